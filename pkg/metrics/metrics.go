// Package metrics holds the Prometheus collectors for handler invocations.
package metrics

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// DefaultRegistry is the process-wide registry exposed by WritePrometheus.
var DefaultRegistry = prometheus.NewRegistry()

// Default is the collector set registered on DefaultRegistry.
var Default = New(DefaultRegistry)

// Metrics groups the invocation collectors.
type Metrics struct {
	registry prometheus.Gatherer

	// InvocationDuration is the handler execution time in seconds.
	InvocationDuration *prometheus.HistogramVec
	// InvocationTotal counts invocations by outcome (succeeded | failed).
	InvocationTotal *prometheus.CounterVec
	// CoercionFailTotal counts inputs that could not be coerced.
	CoercionFailTotal *prometheus.CounterVec
	// ColdStartTotal counts first invocations per process.
	ColdStartTotal *prometheus.CounterVec
	// InFlight is the number of invocations currently running.
	InFlight *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		InvocationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "handlerwrap_invocation_duration_seconds",
				Help:    "Handler invocation duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"handler", "kind"},
		),
		InvocationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "handlerwrap_invocation_total",
				Help: "Handler invocations by outcome.",
			},
			[]string{"handler", "status"},
		),
		CoercionFailTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "handlerwrap_coercion_fail_total",
				Help: "Inputs that could not be coerced to the handler's input type.",
			},
			[]string{"handler"},
		),
		ColdStartTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "handlerwrap_cold_start_total",
				Help: "First invocations served by a process.",
			},
			[]string{"handler"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "handlerwrap_in_flight",
				Help: "Invocations currently running.",
			},
			[]string{"handler"},
		),
	}
	reg.MustRegister(
		m.InvocationDuration, m.InvocationTotal, m.CoercionFailTotal,
		m.ColdStartTotal, m.InFlight,
	)
	return m
}

// Observe records one finished invocation.
func (m *Metrics) Observe(handler, kind, status string, d time.Duration) {
	m.InvocationDuration.WithLabelValues(handler, kind).Observe(d.Seconds())
	m.InvocationTotal.WithLabelValues(handler, status).Inc()
}

// WritePrometheus writes the collectors in the Prometheus text format.
func (m *Metrics) WritePrometheus(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// WritePrometheus writes DefaultRegistry in the Prometheus text format.
func WritePrometheus(w io.Writer) error {
	return Default.WritePrometheus(w)
}
