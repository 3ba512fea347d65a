package runstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"agentgov/warden/pkg/workflow"
)

// storeUnderTest lets the memory and SQLite backends share one
// behavioural suite; RunStore semantics must not differ by backend.
type storeUnderTest struct {
	name string
	open func(t *testing.T) workflow.RunStore
}

func backends() []storeUnderTest {
	return []storeUnderTest{
		{
			name: "memory",
			open: func(t *testing.T) workflow.RunStore {
				return NewMemoryStore()
			},
		},
		{
			name: "sqlite",
			open: func(t *testing.T) workflow.RunStore {
				cfg := DefaultSQLiteConfig()
				cfg.Path = filepath.Join(t.TempDir(), "runs.db")
				store, err := NewSQLiteStore(cfg, nil)
				if err != nil {
					t.Fatalf("NewSQLiteStore() error = %v", err)
				}
				t.Cleanup(func() { store.Close() })
				return store
			},
		},
	}
}

func sampleRun(id, skillID, agentID string, status workflow.RunStatus, at time.Time) *workflow.Run {
	return &workflow.Run{
		ID:          id,
		SkillID:     skillID,
		AgentID:     agentID,
		Status:      status,
		CurrentStep: 1,
		Results: []workflow.StepResult{
			{StepID: "extract-data", Activity: "extract-data", Output: "ok", Resolution: "passed", CompletedAt: at},
		},
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestRunStore_SaveGet(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			store := b.open(t)
			ctx := context.Background()
			now := time.Now().UTC().Truncate(time.Second)

			run := sampleRun("r1", "payments/invoice-processing", "invoice-bot", workflow.RunBlocked, now)
			run.Pending = &workflow.PendingControlPoint{
				StepID:         "match-po",
				ControlPointID: "po-signoff",
				Classification: "needs_approval",
				Reviewer:       "finance-lead",
				SLAHours:       24,
				RaisedAt:       now,
			}
			if err := store.Save(ctx, run); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			got, err := store.Get(ctx, "r1")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.SkillID != run.SkillID || got.AgentID != run.AgentID || got.Status != run.Status {
				t.Errorf("Get() = %+v", got)
			}
			if got.Pending == nil || got.Pending.ControlPointID != "po-signoff" {
				t.Errorf("Pending = %+v", got.Pending)
			}
			if len(got.Results) != 1 || got.Results[0].Resolution != "passed" {
				t.Errorf("Results = %+v", got.Results)
			}

			// Upsert: saving again under the same id replaces, not duplicates.
			run.Status = workflow.RunCompleted
			run.Pending = nil
			if err := store.Save(ctx, run); err != nil {
				t.Fatal(err)
			}
			got, err = store.Get(ctx, "r1")
			if err != nil {
				t.Fatal(err)
			}
			if got.Status != workflow.RunCompleted || got.Pending != nil {
				t.Errorf("after upsert = %+v", got)
			}

			_, err = store.Get(ctx, "missing")
			if !errors.Is(err, workflow.ErrRunNotFound) {
				t.Errorf("Get(missing) error = %v, want ErrRunNotFound", err)
			}
		})
	}
}

func TestRunStore_List(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			store := b.open(t)
			ctx := context.Background()
			base := time.Now().UTC().Truncate(time.Second)

			runs := []*workflow.Run{
				sampleRun("r1", "payments/invoice-processing", "invoice-bot", workflow.RunCompleted, base.Add(-3*time.Hour)),
				sampleRun("r2", "payments/invoice-processing", "invoice-bot", workflow.RunBlocked, base.Add(-2*time.Hour)),
				sampleRun("r3", "hr/onboarding", "hr-bot", workflow.RunCompleted, base.Add(-1*time.Hour)),
			}
			for _, run := range runs {
				if err := store.Save(ctx, run); err != nil {
					t.Fatal(err)
				}
			}

			tests := []struct {
				name   string
				filter workflow.RunFilter
				want   []string
			}{
				{"all newest first", workflow.RunFilter{}, []string{"r3", "r2", "r1"}},
				{"by skill", workflow.RunFilter{SkillID: "payments/invoice-processing"}, []string{"r2", "r1"}},
				{"by agent", workflow.RunFilter{AgentID: "hr-bot"}, []string{"r3"}},
				{"by status", workflow.RunFilter{Status: workflow.RunBlocked}, []string{"r2"}},
				{"no match", workflow.RunFilter{SkillID: "payments/missing"}, nil},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					got, err := store.List(ctx, tt.filter)
					if err != nil {
						t.Fatalf("List() error = %v", err)
					}
					if len(got) != len(tt.want) {
						t.Fatalf("List() = %d runs, want %d", len(got), len(tt.want))
					}
					for i, id := range tt.want {
						if got[i].ID != id {
							t.Errorf("List()[%d] = %q, want %q", i, got[i].ID, id)
						}
					}
				})
			}
		})
	}
}

func TestRunStore_DeleteOlderThan(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			store := b.open(t)
			ctx := context.Background()
			now := time.Now().UTC().Truncate(time.Second)
			old := now.Add(-40 * 24 * time.Hour)

			seed := []*workflow.Run{
				sampleRun("old-done", "payments/x", "bot", workflow.RunCompleted, old),
				sampleRun("old-failed", "payments/x", "bot", workflow.RunFailed, old),
				// Active runs are never pruned regardless of age.
				sampleRun("old-blocked", "payments/x", "bot", workflow.RunBlocked, old),
				sampleRun("fresh-done", "payments/x", "bot", workflow.RunCompleted, now),
			}
			for _, run := range seed {
				if err := store.Save(ctx, run); err != nil {
					t.Fatal(err)
				}
			}

			removed, err := store.DeleteOlderThan(ctx, now.Add(-30*24*time.Hour))
			if err != nil {
				t.Fatalf("DeleteOlderThan() error = %v", err)
			}
			if removed != 2 {
				t.Errorf("removed = %d, want 2", removed)
			}

			for _, id := range []string{"old-blocked", "fresh-done"} {
				if _, err := store.Get(ctx, id); err != nil {
					t.Errorf("Get(%q) after prune error = %v", id, err)
				}
			}
			for _, id := range []string{"old-done", "old-failed"} {
				if _, err := store.Get(ctx, id); !errors.Is(err, workflow.ErrRunNotFound) {
					t.Errorf("Get(%q) = %v, want ErrRunNotFound", id, err)
				}
			}
		})
	}
}

func TestSweeper(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	old := time.Now().UTC().Add(-40 * 24 * time.Hour)

	if err := store.Save(ctx, sampleRun("stale", "payments/x", "bot", workflow.RunCompleted, old)); err != nil {
		t.Fatal(err)
	}

	sweeper, err := NewSweeper(store, &RetentionConfig{MaxAge: 30 * 24 * time.Hour, Schedule: "0 3 * * *"}, nil)
	if err != nil {
		t.Fatalf("NewSweeper() error = %v", err)
	}

	removed, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Sweep() removed = %d, want 1", removed)
	}
}

func TestNewSweeper_Validation(t *testing.T) {
	store := NewMemoryStore()

	if _, err := NewSweeper(store, &RetentionConfig{MaxAge: 0, Schedule: "0 3 * * *"}, nil); err == nil {
		t.Error("NewSweeper() accepted a zero max age")
	}
	if _, err := NewSweeper(store, &RetentionConfig{MaxAge: time.Hour, Schedule: "not a cron spec"}, nil); err == nil {
		t.Error("NewSweeper() accepted a malformed schedule")
	}
}
