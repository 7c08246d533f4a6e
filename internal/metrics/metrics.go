package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"streamwatch/internal/capture"
)

const namespace = "streamwatch"

// Sizer reports the size of a store.
type Sizer interface {
	Len() int
}

// Metrics implements capture.Observer on top of prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	lines *prometheus.CounterVec
	state prometheus.Gauge
	exits prometheus.Counter
	runs  prometheus.Counter
}

// New registers the collectors on a fresh registry. sessions and names are
// sampled at scrape time.
func New(sessions, names Sizer) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_total",
			Help:      "tshark lines handled by the capture loop, by result.",
		}, []string{"result"}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "capture_state",
			Help:      "Capture state: 0 not started, 1 running, 2 paused.",
		}),
		exits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_process_exits_total",
			Help:      "Capture processes that exited without being stopped.",
		}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_runs_total",
			Help:      "Capture runs started.",
		}),
	}

	m.registry.MustRegister(m.lines, m.state, m.exits, m.runs)
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions",
		Help:      "Sessions currently held in the cache.",
	}, func() float64 { return float64(sessions.Len()) }))
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "hostnames",
		Help:      "Streams with a known server name.",
	}, func() float64 { return float64(names.Len()) }))

	// Pre-create both series so they show up as 0.
	m.lines.WithLabelValues("parsed")
	m.lines.WithLabelValues("dropped")
	return m
}

func (m *Metrics) ObserveLine(parsed bool) {
	if parsed {
		m.lines.WithLabelValues("parsed").Inc()
	} else {
		m.lines.WithLabelValues("dropped").Inc()
	}
}

func (m *Metrics) ObserveState(s capture.State) {
	m.state.Set(float64(s))
	if s == capture.Running {
		m.runs.Inc()
	}
}

func (m *Metrics) ObserveExit() {
	m.exits.Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
