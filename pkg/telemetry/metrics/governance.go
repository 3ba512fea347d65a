// Package metrics defines the Prometheus instrumentation for the
// governance engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace is the prefix applied to all metrics.
const Namespace = "warden"

// GovernanceMetrics tracks the engine's governance activity.
//
// Metrics:
//   - warden_registry_reloads_total: Registry reloads by outcome
//   - warden_registry_documents: Skill documents currently loaded
//   - warden_registry_reload_duration_seconds: Registry reload duration
//   - warden_access_decisions_total: Access gate decisions by outcome and reason
//   - warden_control_point_firings_total: Control point firings by classification and resolution
//   - warden_activity_invocations_total: Guarded activity invocations by outcome
type GovernanceMetrics struct {
	registryReloads *prometheus.CounterVec
	registryDocs    prometheus.Gauge
	reloadDuration  prometheus.Histogram
	accessDecisions *prometheus.CounterVec
	controlFirings  *prometheus.CounterVec
	activityInvokes *prometheus.CounterVec
}

// New creates and registers governance metrics with the provided registry.
func New(registry *prometheus.Registry) *GovernanceMetrics {
	gm := &GovernanceMetrics{
		registryReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "registry_reloads_total",
				Help:      "Total number of skill registry reloads",
			},
			[]string{"outcome"},
		),

		registryDocs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "registry_documents",
				Help:      "Number of skill documents currently loaded",
			},
		),

		reloadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "registry_reload_duration_seconds",
				Help:      "Duration of skill registry reloads in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to 2s
			},
		),

		accessDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "access_decisions_total",
				Help:      "Total number of access gate decisions",
			},
			[]string{"outcome", "reason"},
		),

		controlFirings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "control_point_firings_total",
				Help:      "Total number of control point firings",
			},
			[]string{"classification", "resolution"},
		),

		activityInvokes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "activity_invocations_total",
				Help:      "Total number of guarded activity invocations",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		gm.registryReloads,
		gm.registryDocs,
		gm.reloadDuration,
		gm.accessDecisions,
		gm.controlFirings,
		gm.activityInvokes,
	)

	return gm
}

// RecordReload records a registry reload and its resulting document count.
func (gm *GovernanceMetrics) RecordReload(outcome string, docs int, duration time.Duration) {
	gm.registryReloads.WithLabelValues(outcome).Inc()
	gm.reloadDuration.Observe(duration.Seconds())
	if outcome == "success" {
		gm.registryDocs.Set(float64(docs))
	}
}

// RecordAccess records an access gate decision. reason is empty for grants.
func (gm *GovernanceMetrics) RecordAccess(granted bool, reason string) {
	outcome := "granted"
	if !granted {
		outcome = "denied"
	}
	gm.accessDecisions.WithLabelValues(outcome, reason).Inc()
}

// RecordControlPoint records a control point firing and how it resolved
// ("passed", "blocked", "escalated").
func (gm *GovernanceMetrics) RecordControlPoint(classification, resolution string) {
	gm.controlFirings.WithLabelValues(classification, resolution).Inc()
}

// RecordActivity records a guarded activity invocation
// ("allowed", "denied", "failed").
func (gm *GovernanceMetrics) RecordActivity(outcome string) {
	gm.activityInvokes.WithLabelValues(outcome).Inc()
}
