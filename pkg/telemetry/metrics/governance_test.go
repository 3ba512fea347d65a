package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestGovernanceMetrics_Record(t *testing.T) {
	registry := prometheus.NewRegistry()
	gm := New(registry)

	gm.RecordReload("success", 7, 25*time.Millisecond)
	gm.RecordReload("failure", 0, time.Millisecond)
	gm.RecordAccess(true, "")
	gm.RecordAccess(false, "not_approved")
	gm.RecordControlPoint("vetoed", "escalated")
	gm.RecordActivity("denied")

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	byName := make(map[string]bool, len(families))
	for _, f := range families {
		byName[f.GetName()] = true
	}
	for _, want := range []string{
		"warden_registry_reloads_total",
		"warden_registry_documents",
		"warden_registry_reload_duration_seconds",
		"warden_access_decisions_total",
		"warden_control_point_firings_total",
		"warden_activity_invocations_total",
	} {
		if !byName[want] {
			t.Errorf("metric %s not gathered", want)
		}
	}

	// The gauge tracks only successful reloads.
	for _, f := range families {
		if f.GetName() != "warden_registry_documents" {
			continue
		}
		if got := f.GetMetric()[0].GetGauge().GetValue(); got != 7 {
			t.Errorf("warden_registry_documents = %v, want 7", got)
		}
	}
}

func TestNew_SecondRegistryIsIndependent(t *testing.T) {
	// Two instances must not collide: each command builds its own
	// registry rather than using the global default.
	a := New(prometheus.NewRegistry())
	b := New(prometheus.NewRegistry())
	a.RecordActivity("allowed")
	b.RecordActivity("allowed")
}
