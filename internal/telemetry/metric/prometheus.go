package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "staffdesk"

// Metrics holds all client metrics. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	SessionTransitions *prometheus.CounterVec
	ForcedLogouts      prometheus.Counter
	HealthProbes       *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "API requests by method, route and status code.",
			},
			[]string{"method", "route", "code"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "API request latency.",
				Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		SessionTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "transitions_total",
				Help:      "Session state transitions.",
			},
			[]string{"from", "to"},
		),
		ForcedLogouts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "forced_logouts_total",
			Help:      "Sessions ended by a 401 from the backend.",
		}),
		HealthProbes: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "health",
				Name:      "probes_total",
				Help:      "Connectivity probes by result.",
			},
			[]string{"result"},
		),
	}
}

// ObserveRequest records one completed request. code 0 means the request
// never got a response.
func (m *Metrics) ObserveRequest(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.RequestsTotal.WithLabelValues(method, route, label).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveTransition records a session state change.
func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.SessionTransitions.WithLabelValues(from, to).Inc()
}

// ObserveForcedLogout records a logout triggered by the backend.
func (m *Metrics) ObserveForcedLogout() {
	if m == nil {
		return
	}
	m.ForcedLogouts.Inc()
}

// ObserveProbe records a health probe result (ok, slow, failed).
func (m *Metrics) ObserveProbe(result string) {
	if m == nil {
		return
	}
	m.HealthProbes.WithLabelValues(result).Inc()
}

// Registry bundles a private Prometheus registry with the client metrics.
type Registry struct {
	reg *prometheus.Registry
	*Metrics
}

// NewRegistry creates a registry with the client metrics and the Go
// runtime collector.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	return &Registry{reg: reg, Metrics: NewMetrics(reg)}
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// WriteTextfile writes all metrics in text exposition format to path.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
