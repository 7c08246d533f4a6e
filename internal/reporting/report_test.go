package reporting

import (
	"net/netip"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamwatch/internal/analysis"
	"streamwatch/internal/models"
	"streamwatch/internal/session"
)

func sampleReport() Report {
	cache := session.NewCache()
	names := session.NewHostnames()

	server := netip.MustParseAddr("93.184.216.34")
	client := netip.MustParseAddr("10.0.0.5")
	for i, l := range []int{120, -300, 80, -1500} {
		cache.Append(models.PacketRecord{
			Timestamp:      time.Unix(1700000000, int64(i)*int64(time.Millisecond)),
			ServerAddress:  server,
			ClientAddress:  client,
			ServerPort:     443,
			ClientPort:     51000,
			StreamID:       7,
			DirectedLength: l,
		})
	}
	names.RecordIfPresent(7, "<script>example.com")

	summaries := analysis.Summarize(cache.Snapshot(), names.Lookup, analysis.Query{})
	return Report{
		Interface:    "eth0",
		GeneratedAt:  time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC),
		TotalPackets: cache.TotalPackets(),
		Sessions:     summaries,
		TopServers:   analysis.TopServers(summaries, 10),
	}
}

func TestGenerateSessionReport(t *testing.T) {
	dir := t.TempDir()

	filename, err := GenerateSessionReport(sampleReport(), dir)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, "sessions_20261014_120000.html"))

	content, err := os.ReadFile(filename)
	require.NoError(t, err)
	html := string(content)

	assert.Contains(t, html, "streamwatch Session Report")
	assert.Contains(t, html, "93.184.216.34")
	assert.Contains(t, html, "&lt;script&gt;example.com")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "4 in 1 sessions")
	assert.Contains(t, html, "4/4")
}

func TestExportWritesPlot(t *testing.T) {
	dir := t.TempDir()

	paths, err := Export(sampleReport(), dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	info, err := os.Stat(paths[1])
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(paths[1], ".png"))
	assert.Positive(t, info.Size())
}

func TestExportEmpty(t *testing.T) {
	dir := t.TempDir()

	paths, err := Export(Report{Interface: "eth0"}, dir)
	require.NoError(t, err)
	assert.Len(t, paths, 1)

	_, err = GenerateScatter(Report{}, dir)
	assert.ErrorIs(t, err, ErrNothingToPlot)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2*1024*1024))
}
