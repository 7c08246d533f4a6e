package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"streamwatch/internal/analysis"
	"streamwatch/internal/capture"
	"streamwatch/internal/filter"
	"streamwatch/internal/session"
)

// Control is the part of the monitor the dashboard drives.
type Control interface {
	Toggle(ctx context.Context) error
	ButtonLabel() string
	ClearCache()
	Snapshot() session.Snapshot
	LookupHostname(streamID int) (string, bool)
	Status() capture.Status
	Exited() <-chan error
}

// Config is the dashboard's startup configuration.
type Config struct {
	Interface     string
	Refresh       time.Duration
	ExportDir     string
	SessionFilter string
	PacketFilter  string
}

type focusTarget int

const (
	focusTable focusTarget = iota
	focusSession
	focusPacket
)

// recentLengths is how many trailing packets the sparkline shows.
const recentLengths = 48

type keyMap struct {
	Toggle        key.Binding
	Clear         key.Binding
	SessionFilter key.Binding
	PacketFilter  key.Binding
	Export        key.Binding
	Leave         key.Binding
	Quit          key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Clear, k.SessionFilter, k.PacketFilter, k.Export, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Leave}}
}

var defaultKeys = keyMap{
	Toggle:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start/pause")),
	Clear:         key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear cache")),
	SessionFilter: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "session filter")),
	PacketFilter:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "packet filter")),
	Export:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
	Leave:         key.NewBinding(key.WithKeys("esc", "enter"), key.WithHelp("esc", "leave filter")),
	Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// SessionsModel is the live sessions dashboard.
type SessionsModel struct {
	ctx  context.Context
	ctrl Control
	cfg  Config

	table        table.Model
	sessionInput textinput.Model
	packetInput  textinput.Model
	focus        focusTarget
	lengths      filter.LengthSet
	keys         keyMap
	help         help.Model

	summaries    []analysis.SessionSummary
	topServers   []analysis.ServerStat
	status       capture.Status
	button       string
	totalPackets int
	message      string
	width        int
}

// NewSessionsModel builds the dashboard. ctx bounds capture runs started
// from it.
func NewSessionsModel(ctx context.Context, ctrl Control, cfg Config) SessionsModel {
	if cfg.Refresh <= 0 {
		cfg.Refresh = time.Second
	}

	columns := []table.Column{
		{Title: "Stream", Width: 7},
		{Title: "Session", Width: 46},
		{Title: "Service", Width: 9},
		{Title: "Packets", Width: 13},
		{Title: "Up", Width: 10},
		{Title: "Down", Width: 10},
		{Title: "Last", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	sessionInput := textinput.New()
	sessionInput.Placeholder = "Sessions"
	sessionInput.Prompt = "session: "
	sessionInput.CharLimit = 128
	sessionInput.SetValue(cfg.SessionFilter)

	packetInput := textinput.New()
	packetInput.Placeholder = "Packet sizes, e.g. 100 -300 200:220"
	packetInput.Prompt = "sizes: "
	packetInput.CharLimit = 256
	packetInput.SetValue(cfg.PacketFilter)

	return SessionsModel{
		ctx:          ctx,
		ctrl:         ctrl,
		cfg:          cfg,
		table:        t,
		sessionInput: sessionInput,
		packetInput:  packetInput,
		lengths:      filter.ParseLengths(cfg.PacketFilter),
		keys:         defaultKeys,
		help:         help.New(),
		button:       ctrl.ButtonLabel(),
	}
}

func (m SessionsModel) Init() tea.Cmd {
	return tea.Batch(tickCmd(0), waitExit(m.ctrl.Exited()))
}

// TickMsg triggers a refresh from the cache.
type TickMsg time.Time

type toggledMsg struct{ err error }

type exitMsg struct{ err error }

type exportedMsg struct {
	paths []string
	err   error
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func waitExit(ch <-chan error) tea.Cmd {
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return nil
		}
		return exitMsg{err: err}
	}
}
