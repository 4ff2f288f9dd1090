// Package telemetry exposes Prometheus metrics for the intel engine.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus metric the engine emits. Each Metrics
// value carries its own registry so tests can run side by side without
// duplicate-registration panics.
type Metrics struct {
	registry *prometheus.Registry

	// Quality gate metrics
	GateEvaluations *prometheus.CounterVec
	GateBlockers    *prometheus.CounterVec

	// Decision fusion metrics
	Decisions        *prometheus.CounterVec
	DecisionBlockers *prometheus.CounterVec
	DecisionDuration prometheus.Histogram

	// Audit log depth
	AuditDepth prometheus.Gauge
}

// NewMetrics creates a registry with all intel engine metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		GateEvaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intel_gate_evaluations_total",
				Help: "Quality gate evaluations by resulting visibility tier",
			},
			[]string{"visibility"},
		),
		GateBlockers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intel_gate_blockers_total",
				Help: "Quality gate blocker occurrences by blocker name",
			},
			[]string{"blocker"},
		),
		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intel_decisions_total",
				Help: "Fusion decisions by resulting bias",
			},
			[]string{"bias"},
		),
		DecisionBlockers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intel_decision_blockers_total",
				Help: "Fusion decision blocker occurrences by blocker name",
			},
			[]string{"blocker"},
		),
		DecisionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "intel_decision_duration_seconds",
				Help:    "Duration of one fusion decision cycle in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
		),
		AuditDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "intel_gate_audit_entries",
				Help: "Entries currently held by the gate audit ring",
			},
		),
	}

	registry.MustRegister(
		m.GateEvaluations,
		m.GateBlockers,
		m.Decisions,
		m.DecisionBlockers,
		m.DecisionDuration,
		m.AuditDepth,
	)
	return m
}

// ObserveGate records one gate evaluation outcome. Nil-safe so callers
// can run without telemetry wired.
func (m *Metrics) ObserveGate(visibility string, blockers []string) {
	if m == nil {
		return
	}
	m.GateEvaluations.WithLabelValues(visibility).Inc()
	for _, b := range blockers {
		m.GateBlockers.WithLabelValues(b).Inc()
	}
}

// ObserveDecision records one fusion decision outcome.
func (m *Metrics) ObserveDecision(bias string, blockers []string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(bias).Inc()
	for _, b := range blockers {
		m.DecisionBlockers.WithLabelValues(b).Inc()
	}
	m.DecisionDuration.Observe(durationSeconds)
}

// SetAuditDepth updates the audit ring depth gauge.
func (m *Metrics) SetAuditDepth(n int) {
	if m == nil {
		return
	}
	m.AuditDepth.Set(float64(n))
}

// Handler serves the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
