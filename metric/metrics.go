// Package metric contains the prometheus instrumentation for the service
// host runtime: service lifecycle state, periodic-loop ticks and callback
// dispatch outcomes.
package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all runtime-level metrics (not service-specific)
type Metrics struct {
	ServiceState *prometheus.GaugeVec

	TicksTotal   *prometheus.CounterVec
	TickFailures *prometheus.CounterVec
	TickDuration *prometheus.HistogramVec

	CallbackDispatches *prometheus.CounterVec
	DurableSaves       *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a Metrics instance backed by its own registry
func NewMetrics() *Metrics {
	m := &Metrics{
		ServiceState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "empower",
				Subsystem: "service",
				Name:      "state",
				Help:      "Service state (0=created, 1=idle, 2=running, 3=stopped)",
			},
			[]string{"type"},
		),
		TicksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "empower",
				Subsystem: "loop",
				Name:      "ticks_total",
				Help:      "Total periodic loop ticks executed",
			},
			[]string{"type"},
		),
		TickFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "empower",
				Subsystem: "loop",
				Name:      "tick_failures_total",
				Help:      "Total periodic loop ticks that returned an error",
			},
			[]string{"type"},
		),
		TickDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "empower",
				Subsystem: "loop",
				Name:      "tick_duration_seconds",
				Help:      "Periodic loop tick duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		CallbackDispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "empower",
				Subsystem: "callback",
				Name:      "dispatches_total",
				Help:      "Total callback dispatches by kind and outcome",
			},
			[]string{"kind", "status"},
		),
		DurableSaves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "empower",
				Subsystem: "storage",
				Name:      "saves_total",
				Help:      "Total durable record saves by container kind",
			},
			[]string{"kind"},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.ServiceState,
		m.TicksTotal,
		m.TickFailures,
		m.TickDuration,
		m.CallbackDispatches,
		m.DurableSaves,
	)
	return m
}

// RecordServiceState records a lifecycle state change
func (m *Metrics) RecordServiceState(typeName string, state int) {
	m.ServiceState.WithLabelValues(typeName).Set(float64(state))
}

// RecordTick records one loop tick and its outcome
func (m *Metrics) RecordTick(typeName string, duration time.Duration, err error) {
	m.TicksTotal.WithLabelValues(typeName).Inc()
	m.TickDuration.WithLabelValues(typeName).Observe(duration.Seconds())
	if err != nil {
		m.TickFailures.WithLabelValues(typeName).Inc()
	}
}

// RecordCallbackDispatch records a callback delivery attempt
func (m *Metrics) RecordCallbackDispatch(kind, status string) {
	m.CallbackDispatches.WithLabelValues(kind, status).Inc()
}

// RecordDurableSave records a durable record write
func (m *Metrics) RecordDurableSave(kind string) {
	m.DurableSaves.WithLabelValues(kind).Inc()
}

// Handler returns the HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
