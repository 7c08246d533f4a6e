package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"streamwatch/internal/capture"
	"streamwatch/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7DB")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Margin(0, 1)

	upStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	downStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	// Session colours, picked by identity hash.
	palette = []lipgloss.Color{"#F25D94", "#7D56F4", "#04B575", "#FFB86C", "#8BE9FD", "#FF5555", "#F1FA8C", "#BD93F9"}
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

func sessionColor(id models.Identity) lipgloss.Color {
	return palette[id.Hash()%uint64(len(palette))]
}

func (m SessionsModel) View() string {
	title := titleStyle.Render(fmt.Sprintf("streamwatch - Live Packet Size vs. Time (%d packets) - %s",
		m.totalPackets, m.cfg.Interface))

	// Capture panel
	panel := fmt.Sprintf("State: %s\n[s] %s\nSessions: %d\nDropped lines: %d",
		m.status.State, m.button, len(m.summaries), m.status.LinesDropped)
	if m.status.State == capture.Running {
		panel += fmt.Sprintf("\nPID %d, %s RSS", m.status.Pid, formatBytes(int64(m.status.RSS)))
	}
	captureBox := infoStyle.Render(panel)

	// Top servers
	var servers []string
	for _, s := range m.topServers {
		line := fmt.Sprintf("%-15s %9s", s.Address, formatBytes(s.Bytes))
		if s.Name != "" {
			line += " " + s.Name
		}
		servers = append(servers, line)
	}
	if len(servers) == 0 {
		servers = append(servers, "Waiting for data...")
	}
	serverBox := infoStyle.Render("Top Servers\n" + strings.Join(servers, "\n"))

	filters := infoStyle.Render(m.sessionInput.View() + "\n" + m.packetInput.View())

	row1 := lipgloss.JoinHorizontal(lipgloss.Top, captureBox, serverBox, filters)
	ttBox := infoStyle.Render("Sessions\n" + m.table.View())

	parts := []string{title, row1, ttBox}
	if s, ok := m.selected(); ok {
		legend := lipgloss.NewStyle().Foreground(sessionColor(s.Identity)).Bold(true).Render("● " + s.Legend)
		service := s.Service
		if s.Encrypted {
			service += " (encrypted)"
		}
		detail := fmt.Sprintf("%s\nclient %s:%d  server %s:%d  %s\n%s",
			legend,
			s.ClientAddress, s.Identity.ClientPort,
			s.Identity.ServerAddress, s.Identity.ServerPort, service,
			sparkline(s.Recent))
		parts = append(parts, infoStyle.Render(detail))
	}
	if m.message != "" {
		parts = append(parts, messageStyle.Render(" "+m.message))
	}
	parts = append(parts, " "+m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// sparkline draws directed lengths scaled to the largest magnitude:
// client->server in green, server->client in red.
func sparkline(lengths []int) string {
	if len(lengths) == 0 {
		return "no packets match the filter"
	}
	peak := 0
	for _, l := range lengths {
		if l < 0 {
			l = -l
		}
		if l > peak {
			peak = l
		}
	}

	var b strings.Builder
	for _, l := range lengths {
		mag := l
		if mag < 0 {
			mag = -mag
		}
		idx := 0
		if peak > 0 {
			idx = mag * (len(sparkBlocks) - 1) / peak
		}
		block := string(sparkBlocks[idx])
		if l < 0 {
			b.WriteString(downStyle.Render(block))
		} else {
			b.WriteString(upStyle.Render(block))
		}
	}
	return b.String()
}
