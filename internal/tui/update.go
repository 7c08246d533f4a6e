package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"streamwatch/internal/analysis"
	"streamwatch/internal/filter"
	"streamwatch/internal/reporting"
)

func (m SessionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.focus != focusTable {
			return m.updateInput(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			m.message = m.button + "..."
			return m, m.toggleCmd()
		case key.Matches(msg, m.keys.Clear):
			m.ctrl.ClearCache()
			m.message = "Cache cleared."
			m = m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.SessionFilter):
			m.focus = focusSession
			m.table.Blur()
			return m, m.sessionInput.Focus()
		case key.Matches(msg, m.keys.PacketFilter):
			m.focus = focusPacket
			m.table.Blur()
			return m, m.packetInput.Focus()
		case key.Matches(msg, m.keys.Export):
			m.message = "Exporting..."
			return m, m.exportCmd()
		}

	case TickMsg:
		m = m.refresh()
		return m, tickCmd(m.cfg.Refresh)

	case toggledMsg:
		if msg.err != nil {
			m.message = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.message = ""
		}
		m = m.refresh()
		return m, nil

	case exitMsg:
		m.message = fmt.Sprintf("Capture stopped: %v", msg.err)
		m = m.refresh()
		return m, waitExit(m.ctrl.Exited())

	case exportedMsg:
		if msg.err != nil {
			m.message = fmt.Sprintf("Export failed: %v", msg.err)
		} else {
			m.message = "Exported " + strings.Join(msg.paths, ", ")
		}
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m SessionsModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Leave) {
		m.sessionInput.Blur()
		m.packetInput.Blur()
		m.focus = focusTable
		m.table.Focus()
		return m, nil
	}
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusSession:
		m.sessionInput, cmd = m.sessionInput.Update(msg)
	case focusPacket:
		m.packetInput, cmd = m.packetInput.Update(msg)
		m.lengths = filter.ParseLengths(m.packetInput.Value())
	}
	m = m.refresh()
	return m, cmd
}

func (m SessionsModel) query() analysis.Query {
	return analysis.Query{
		Session: m.sessionInput.Value(),
		Lengths: m.lengths,
		Recent:  recentLengths,
	}
}

// refresh pulls a new snapshot and rebuilds the table.
func (m SessionsModel) refresh() SessionsModel {
	snap := m.ctrl.Snapshot()
	m.totalPackets = snap.TotalPackets
	m.summaries = analysis.Summarize(snap, m.ctrl.LookupHostname, m.query())
	m.topServers = analysis.TopServers(m.summaries, 5)
	m.status = m.ctrl.Status()
	m.button = m.ctrl.ButtonLabel()

	rows := make([]table.Row, len(m.summaries))
	for i, s := range m.summaries {
		last := ""
		if n := len(s.Packets); n > 0 {
			last = fmt.Sprintf("%+d", s.Packets[n-1].DirectedLength)
		}
		rows[i] = table.Row{
			fmt.Sprintf("%d", s.StreamID),
			s.Legend,
			s.Service,
			fmt.Sprintf("%d/%d", len(s.Packets), s.TotalPackets),
			formatBytes(s.BytesUp),
			formatBytes(s.BytesDown),
			last,
		}
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
	return m
}

func (m SessionsModel) selected() (analysis.SessionSummary, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.summaries) {
		return analysis.SessionSummary{}, false
	}
	return m.summaries[c], true
}

func (m SessionsModel) toggleCmd() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return toggledMsg{err: ctrl.Toggle(ctx)}
	}
}

func (m SessionsModel) exportCmd() tea.Cmd {
	r := reporting.Report{
		Interface:    m.cfg.Interface,
		GeneratedAt:  time.Now(),
		TotalPackets: m.totalPackets,
		Sessions:     m.summaries,
		TopServers:   analysis.TopServers(m.summaries, 10),
	}
	dir := m.cfg.ExportDir
	return func() tea.Msg {
		paths, err := reporting.Export(r, dir)
		return exportedMsg{paths: paths, err: err}
	}
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
