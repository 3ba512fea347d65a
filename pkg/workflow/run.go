// Package workflow executes the ordered steps of a skill document
// under its control points. The runner owns the classification
// semantics; durable run state lives behind the RunStore interface so
// the storage backend stays swappable.
package workflow

import (
	"context"
	"errors"
	"time"

	"agentgov/warden/pkg/skill/document"
)

// RunStatus is the lifecycle state of a workflow run.
type RunStatus string

const (
	// RunRunning means steps are executing.
	RunRunning RunStatus = "running"

	// RunBlocked means a blocking control point fired and the run is
	// waiting for a human decision.
	RunBlocked RunStatus = "blocked"

	// RunEscalated means a vetoed control point fired. Terminal.
	RunEscalated RunStatus = "escalated"

	// RunCompleted means every step finished. Terminal.
	RunCompleted RunStatus = "completed"

	// RunFailed means an activity failed, was denied, or a reviewer
	// rejected a pending checkpoint. Terminal.
	RunFailed RunStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunEscalated, RunCompleted, RunFailed:
		return true
	}
	return false
}

// StepResult records the outcome of one executed step.
type StepResult struct {
	StepID       string    `json:"step_id"`
	Activity     string    `json:"activity"`
	Output       string    `json:"output,omitempty"`
	ControlPoint string    `json:"control_point,omitempty"`
	Resolution   string    `json:"resolution,omitempty"` // passed, notified, approved, blocked
	CompletedAt  time.Time `json:"completed_at"`
}

// PendingControlPoint captures the control point a blocked run is
// waiting on, with enough detail to route the review.
//
// Activation records which side of the step's activity the block
// landed on: a step-scoped point fires after its activity ran, a
// conditional point fires before it. Approval uses this to decide
// whether the pending step still has to execute.
type PendingControlPoint struct {
	StepID         string                  `json:"step_id"`
	ControlPointID string                  `json:"control_point_id"`
	Classification document.Classification `json:"classification"`
	Activation     document.Activation     `json:"activation"`
	Reviewer       string                  `json:"reviewer,omitempty"`
	SLAHours       int                     `json:"sla_hours,omitempty"`
	RaisedAt       time.Time               `json:"raised_at"`
}

// Run is one execution of a skill's workflow by one agent. It is a
// plain serializable record; all transitions go through the Runner.
type Run struct {
	ID      string    `json:"id"`
	SkillID string    `json:"skill_id"`
	AgentID string    `json:"agent_id"`
	Status  RunStatus `json:"status"`

	// CurrentStep indexes into the document's workflow steps. While
	// blocked it stays on the step whose control point fired.
	CurrentStep int `json:"current_step"`

	Results []StepResult         `json:"results,omitempty"`
	Pending *PendingControlPoint `json:"pending,omitempty"`

	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ErrRunNotFound is returned by RunStore implementations for unknown
// run ids.
var ErrRunNotFound = errors.New("run not found")

// RunStore persists workflow runs across process restarts.
type RunStore interface {
	// Save inserts or updates a run keyed by its ID.
	Save(ctx context.Context, run *Run) error

	// Get retrieves a run by id, or ErrRunNotFound.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns runs matching the filter, newest first.
	List(ctx context.Context, f RunFilter) ([]*Run, error)

	// DeleteOlderThan removes terminal runs last updated before cutoff
	// and reports how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// RunFilter narrows List results. Zero values match everything.
type RunFilter struct {
	SkillID string
	AgentID string
	Status  RunStatus
}
