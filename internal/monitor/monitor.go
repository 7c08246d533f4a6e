// Package monitor is the control surface of streamwatch. It owns the
// session cache, the hostname registry and the capture controller, and is
// the only thing the dashboard and the CLI talk to.
package monitor

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"streamwatch/internal/capture"
	"streamwatch/internal/metrics"
	"streamwatch/internal/session"
	"streamwatch/internal/tshark"
)

// Options configures a Monitor.
type Options struct {
	Launch       capture.LaunchFunc
	Logger       *zap.Logger
	PollInterval time.Duration
	BatchSize    int
	StopTimeout  time.Duration
}

// Monitor composes the capture pipeline.
type Monitor struct {
	cache   *session.Cache
	names   *session.Hostnames
	ctrl    *capture.Controller
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New builds the cache, registry, metrics and controller.
func New(opts Options) (*Monitor, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Monitor{
		cache:  session.NewCache(),
		names:  session.NewHostnames(),
		logger: logger,
	}
	m.metrics = metrics.New(m.cache, m.names)

	ctrl, err := capture.NewController(capture.Options{
		Launch:       opts.Launch,
		Records:      m.cache,
		Names:        m.names,
		Observer:     m.metrics,
		Logger:       logger.Named("capture"),
		PollInterval: opts.PollInterval,
		BatchSize:    opts.BatchSize,
		StopTimeout:  opts.StopTimeout,
	})
	if err != nil {
		return nil, err
	}
	m.ctrl = ctrl
	return m, nil
}

// TsharkLaunch adapts a tshark.Launcher to the controller.
func TsharkLaunch(l *tshark.Launcher) capture.LaunchFunc {
	return func(ctx context.Context) (capture.Process, error) {
		cmd, err := l.Start(ctx)
		if err != nil {
			return nil, err
		}
		return cmd, nil
	}
}

// StartCapture starts (or resumes) capturing. ctx bounds the lifetime of
// the capture process, not just the call.
func (m *Monitor) StartCapture(ctx context.Context) error {
	return m.ctrl.Start(ctx)
}

// StopCapture pauses capturing.
func (m *Monitor) StopCapture() error {
	return m.ctrl.Stop()
}

// Toggle is the start/pause/resume button.
func (m *Monitor) Toggle(ctx context.Context) error {
	return m.ctrl.Toggle(ctx)
}

// ButtonLabel is the action Toggle would take next.
func (m *Monitor) ButtonLabel() string {
	switch m.ctrl.State() {
	case capture.Running:
		return "Pause capture"
	case capture.Paused:
		return "Resume capture"
	default:
		return "Start capture"
	}
}

// ClearCache drops all sessions and known server names.
func (m *Monitor) ClearCache() {
	m.cache.Clear()
	m.names.Clear()
	m.logger.Info("cache cleared")
}

// Snapshot returns the current sessions.
func (m *Monitor) Snapshot() session.Snapshot {
	return m.cache.Snapshot()
}

// LookupHostname returns the server name seen on a stream.
func (m *Monitor) LookupHostname(streamID int) (string, bool) {
	return m.names.Lookup(streamID)
}

// State is the controller state.
func (m *Monitor) State() capture.State {
	return m.ctrl.State()
}

// Status is the controller status.
func (m *Monitor) Status() capture.Status {
	return m.ctrl.Status()
}

// Exited delivers unexpected capture process exits.
func (m *Monitor) Exited() <-chan error {
	return m.ctrl.Exited()
}

// Metrics exposes the prometheus collectors.
func (m *Monitor) Metrics() *metrics.Metrics {
	return m.metrics
}

// Close stops a running capture.
func (m *Monitor) Close() error {
	if err := m.ctrl.Stop(); err != nil && !errors.Is(err, capture.ErrNoActiveCapture) {
		return err
	}
	return nil
}
