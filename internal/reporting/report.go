package reporting

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"streamwatch/internal/analysis"
)

// Report is what the exporters render.
type Report struct {
	Interface    string
	GeneratedAt  time.Time
	TotalPackets int
	Sessions     []analysis.SessionSummary
	TopServers   []analysis.ServerStat
}

// GenerateSessionReport writes an HTML report into dir and returns its path.
func GenerateSessionReport(r Report, dir string) (string, error) {
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now()
	}
	filename := filepath.Join(dir, fmt.Sprintf("sessions_%s.html", r.GeneratedAt.Format("20060102_150405")))

	file, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := file.WriteString(renderHTML(r)); err != nil {
		return "", err
	}
	return filename, nil
}

func renderHTML(r Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>streamwatch Session Report - %s</title>
    <style>
        body { font-family: sans-serif; margin: 20px; color: #333; }
        h1, h2 { color: #2c3e50; }
        table { width: 100%%; border-collapse: collapse; margin-bottom: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f2f2f2; }
        tr:nth-child(even) { background-color: #f9f9f9; }
        .summary { background: #eef; padding: 15px; border-radius: 5px; margin-bottom: 20px; }
        .up { color: #2e7d32; }
        .down { color: #c62828; }
    </style>
</head>
<body>
    <h1>streamwatch Session Report</h1>
    <div class="summary">
        <p><strong>Date:</strong> %s</p>
        <p><strong>Interface:</strong> %s</p>
        <p><strong>Packets:</strong> %d in %d sessions</p>
    </div>
`, r.GeneratedAt.Format("20060102_150405"), r.GeneratedAt.Format(time.RFC1123),
		html.EscapeString(r.Interface), r.TotalPackets, len(r.Sessions))

	b.WriteString(`
    <h2>Top Servers</h2>
    <table>
        <thead>
            <tr>
                <th>Server</th>
                <th>Name</th>
                <th>Data Transferred</th>
            </tr>
        </thead>
        <tbody>
`)
	if len(r.TopServers) == 0 {
		b.WriteString("            <tr><td colspan=\"3\">No traffic captured.</td></tr>\n")
	}
	for _, s := range r.TopServers {
		fmt.Fprintf(&b, "            <tr><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			s.Address, html.EscapeString(s.Name), formatBytes(s.Bytes))
	}
	b.WriteString(`        </tbody>
    </table>

    <h2>Sessions</h2>
    <table>
        <thead>
            <tr>
                <th>Stream</th>
                <th>Session</th>
                <th>Service</th>
                <th>Packets</th>
                <th>Up</th>
                <th>Down</th>
                <th>First Seen</th>
                <th>Last Seen</th>
            </tr>
        </thead>
        <tbody>
`)
	if len(r.Sessions) == 0 {
		b.WriteString("            <tr><td colspan=\"8\">No sessions captured.</td></tr>\n")
	}
	for _, s := range r.Sessions {
		fmt.Fprintf(&b, "            <tr><td>%d</td><td>%s</td><td>%s</td><td>%d/%d</td><td class=\"up\">%s</td><td class=\"down\">%s</td><td>%s</td><td>%s</td></tr>\n",
			s.StreamID, html.EscapeString(s.Legend), s.Service, len(s.Packets), s.TotalPackets,
			formatBytes(s.BytesUp), formatBytes(s.BytesDown),
			s.FirstSeen.Format("15:04:05.000"), s.LastSeen.Format("15:04:05.000"))
	}
	b.WriteString(`        </tbody>
    </table>
</body>
</html>`)
	return b.String()
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
