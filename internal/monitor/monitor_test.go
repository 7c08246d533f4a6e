package monitor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamwatch/internal/capture"
)

// scriptedProcess writes its lines and then idles until terminated.
type scriptedProcess struct {
	r    *io.PipeReader
	w    *io.PipeWriter
	once sync.Once
	done chan struct{}
}

func (p *scriptedProcess) Stdout() io.Reader { return p.r }
func (p *scriptedProcess) Pid() int          { return 0 }
func (p *scriptedProcess) Terminate() error  { p.end(); return nil }
func (p *scriptedProcess) Kill() error       { p.end(); return nil }
func (p *scriptedProcess) Wait() error       { <-p.done; return nil }

func (p *scriptedProcess) end() {
	p.once.Do(func() {
		_ = p.w.Close()
		close(p.done)
	})
}

func scripted(lines ...string) capture.LaunchFunc {
	return func(ctx context.Context) (capture.Process, error) {
		r, w := io.Pipe()
		p := &scriptedProcess{r: r, w: w, done: make(chan struct{})}
		go func() {
			for _, l := range lines {
				if _, err := fmt.Fprintln(w, l); err != nil {
					return
				}
			}
		}()
		return p, nil
	}
}

func newMonitor(t *testing.T, lines ...string) *Monitor {
	t.Helper()
	m, err := New(Options{Launch: scripted(lines...), PollInterval: time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMonitorControlSurface(t *testing.T) {
	m := newMonitor(t,
		"1700000000.0 10.0.0.5 93.184.216.34 51000 443 7 120 example.com",
		"1700000000.5 93.184.216.34 10.0.0.5 443 51000 7 300",
		"not a packet",
	)
	assert.Equal(t, "Start capture", m.ButtonLabel())

	require.NoError(t, m.StartCapture(context.Background()))
	assert.Equal(t, "Pause capture", m.ButtonLabel())
	assert.ErrorIs(t, m.StartCapture(context.Background()), capture.ErrAlreadyRunning)

	require.Eventually(t, func() bool { return m.Snapshot().TotalPackets == 2 }, time.Second, time.Millisecond)
	name, ok := m.LookupHostname(7)
	assert.True(t, ok)
	assert.Equal(t, "example.com", name)

	require.NoError(t, m.StopCapture())
	assert.Equal(t, "Resume capture", m.ButtonLabel())
	assert.ErrorIs(t, m.StopCapture(), capture.ErrNoActiveCapture)

	m.ClearCache()
	assert.Zero(t, m.Snapshot().TotalPackets)
	_, ok = m.LookupHostname(7)
	assert.False(t, ok)
}

func TestMonitorToggle(t *testing.T) {
	m := newMonitor(t)

	require.NoError(t, m.Toggle(context.Background()))
	assert.Equal(t, capture.Running, m.State())
	require.NoError(t, m.Toggle(context.Background()))
	assert.Equal(t, capture.Paused, m.State())
	require.NoError(t, m.Toggle(context.Background()))
	assert.Equal(t, capture.Running, m.State())

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Equal(t, capture.Paused, m.State())
}

func TestNewRequiresLauncher(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
