// Package metrics exposes Prometheus metrics for the card automation service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// MetricsNamespace is the namespace for all automation metrics.
	MetricsNamespace = "threesided"

	// MetricsSubsystem is the subsystem for automation metrics.
	MetricsSubsystem = "automation"
)

// Metrics holds all Prometheus metrics for the automation pipeline.
type Metrics struct {
	// Run metrics
	RunsTotal          *prometheus.CounterVec
	RunDurationSeconds *prometheus.HistogramVec
	RunEventsTotal     *prometheus.CounterVec
	ClaimConflicts     prometheus.Counter

	// Step metrics
	StepsTotal *prometheus.CounterVec

	// Gate metrics
	GateDecisionsTotal *prometheus.CounterVec

	// Settings state gauges
	AutomationEnabled prometheus.Gauge
	CurrentRetryCount prometheus.Gauge
	TotalPosts        prometheus.Gauge
}

// New creates and registers all automation metrics.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	m := &Metrics{}

	m.initRunMetrics(factory)
	m.initStepMetrics(factory)
	m.initGateMetrics(factory)
	m.initSettingsMetrics(factory)

	return m
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

// initRunMetrics initializes run-level metrics.
func (m *Metrics) initRunMetrics(factory promauto.Factory) {
	m.RunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "runs_total",
			Help:      "Total number of automation runs by terminal status",
		},
		[]string{"trigger", "status"},
	)

	m.RunDurationSeconds = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "run_duration_seconds",
			Help:      "Duration of automation runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4min
		},
		[]string{"trigger"},
	)

	m.RunEventsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "run_events_total",
			Help:      "Total number of run audit events appended",
		},
		[]string{"status"},
	)

	m.ClaimConflicts = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "claim_conflicts_total",
			Help:      "Total number of runs refused because another run held the claim",
		},
	)
}

// initStepMetrics initializes per-step metrics.
func (m *Metrics) initStepMetrics(factory promauto.Factory) {
	m.StepsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "steps_total",
			Help:      "Total number of pipeline steps executed",
		},
		[]string{"step", "outcome"},
	)
}

// initGateMetrics initializes scheduling gate metrics.
func (m *Metrics) initGateMetrics(factory promauto.Factory) {
	m.GateDecisionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "gate_decisions_total",
			Help:      "Total number of scheduling gate decisions",
		},
		[]string{"reason"},
	)
}

// initSettingsMetrics initializes settings state gauges.
func (m *Metrics) initSettingsMetrics(factory promauto.Factory) {
	m.AutomationEnabled = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "enabled",
			Help:      "Whether automation is enabled (1=yes, 0=no)",
		},
	)

	m.CurrentRetryCount = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "current_retry_count",
			Help:      "Current pending retry attempt count from settings",
		},
	)

	m.TotalPosts = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "total_posts",
			Help:      "Lifetime number of cards published by automation",
		},
	)
}

// RecordRun records a completed run with its terminal status.
func (m *Metrics) RecordRun(trigger, status string, durationSeconds float64) {
	m.RunsTotal.WithLabelValues(trigger, status).Inc()
	m.RunDurationSeconds.WithLabelValues(trigger).Observe(durationSeconds)
}

// RecordRunEvent records one audit event append.
func (m *Metrics) RecordRunEvent(status string) {
	m.RunEventsTotal.WithLabelValues(status).Inc()
}

// RecordStep records one executed pipeline step.
func (m *Metrics) RecordStep(step, outcome string) {
	m.StepsTotal.WithLabelValues(step, outcome).Inc()
}

// RecordGateDecision records a scheduling gate decision.
func (m *Metrics) RecordGateDecision(reason string) {
	m.GateDecisionsTotal.WithLabelValues(reason).Inc()
}

// RecordClaimConflict records a run refused by the settings claim.
func (m *Metrics) RecordClaimConflict() {
	m.ClaimConflicts.Inc()
}

// SetSettingsState updates the settings gauges from a fresh snapshot.
func (m *Metrics) SetSettingsState(enabled bool, retryCount int, totalPosts int64) {
	if enabled {
		m.AutomationEnabled.Set(1)
	} else {
		m.AutomationEnabled.Set(0)
	}
	m.CurrentRetryCount.Set(float64(retryCount))
	m.TotalPosts.Set(float64(totalPosts))
}
