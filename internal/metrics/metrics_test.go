package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamwatch/internal/capture"
)

type fixedSize int

func (f fixedSize) Len() int { return int(f) }

func TestMetricsObserver(t *testing.T) {
	m := New(fixedSize(3), fixedSize(1))
	var _ capture.Observer = m

	m.ObserveLine(true)
	m.ObserveLine(true)
	m.ObserveLine(false)
	m.ObserveState(capture.Running)
	m.ObserveState(capture.Paused)
	m.ObserveExit()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.lines.WithLabelValues("parsed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lines.WithLabelValues("dropped")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.state))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exits))
}

func TestMetricsHandler(t *testing.T) {
	m := New(fixedSize(4), fixedSize(2))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "streamwatch_sessions 4"), body)
	assert.Contains(t, body, "streamwatch_hostnames 2")
	assert.Contains(t, body, `streamwatch_lines_total{result="dropped"} 0`)
}
