// Package runstore provides the RunStore implementations: an in-memory
// store for tests and single-shot CLI use, and a SQLite store for
// durable state, with a cron-driven retention sweeper over either.
package runstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"agentgov/warden/pkg/workflow"
)

// MemoryStore keeps runs in a map. Safe for concurrent use. Runs are
// copied on the way in and out so callers never share state with the
// store.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*workflow.Run
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*workflow.Run)}
}

// Save inserts or updates a run.
func (s *MemoryStore) Save(_ context.Context, run *workflow.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = cloneRun(run)
	return nil
}

// Get retrieves a run by id.
func (s *MemoryStore) Get(_ context.Context, id string) (*workflow.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, workflow.ErrRunNotFound
	}
	return cloneRun(run), nil
}

// List returns runs matching the filter, newest first.
func (s *MemoryStore) List(_ context.Context, f workflow.RunFilter) ([]*workflow.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*workflow.Run
	for _, run := range s.runs {
		if f.SkillID != "" && run.SkillID != f.SkillID {
			continue
		}
		if f.AgentID != "" && run.AgentID != f.AgentID {
			continue
		}
		if f.Status != "" && run.Status != f.Status {
			continue
		}
		out = append(out, cloneRun(run))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteOlderThan removes terminal runs last updated before cutoff.
func (s *MemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, run := range s.runs {
		if run.Status.Terminal() && run.UpdatedAt.Before(cutoff) {
			delete(s.runs, id)
			removed++
		}
	}
	return removed, nil
}

func cloneRun(run *workflow.Run) *workflow.Run {
	out := *run
	if run.Results != nil {
		out.Results = make([]workflow.StepResult, len(run.Results))
		copy(out.Results, run.Results)
	}
	if run.Pending != nil {
		pending := *run.Pending
		out.Pending = &pending
	}
	return &out
}
