package workflow

import (
	"fmt"

	"agentgov/warden/pkg/skill/document"
)

// ActivityNotPermittedError means a step tried to invoke an activity
// outside the document's approved allowlist.
type ActivityNotPermittedError struct {
	SkillID  string
	StepID   string
	Activity string
}

func (e *ActivityNotPermittedError) Error() string {
	return fmt.Sprintf("activity %q at step %q is not in the approved allowlist of skill %q",
		e.Activity, e.StepID, e.SkillID)
}

// CheckpointBlockedError means a blocking control point fired; the run
// is persisted as blocked and awaits a human decision.
type CheckpointBlockedError struct {
	RunID          string
	StepID         string
	ControlPointID string
	Classification document.Classification
	Reviewer       string
	SLAHours       int
}

func (e *CheckpointBlockedError) Error() string {
	msg := fmt.Sprintf("run %s blocked at step %q by control point %q (%s)",
		e.RunID, e.StepID, e.ControlPointID, e.Classification)
	if e.Reviewer != "" {
		msg += ", reviewer: " + e.Reviewer
	}
	return msg
}

// VetoFiredError means a vetoed control point fired. The run is
// escalated and cannot be resumed.
type VetoFiredError struct {
	RunID             string
	ControlPointID    string
	EscalationContact string
}

func (e *VetoFiredError) Error() string {
	return fmt.Sprintf("run %s halted by vetoed control point %q; escalate to %s",
		e.RunID, e.ControlPointID, e.EscalationContact)
}

// RunStateError means an operation was applied to a run in an
// incompatible state, such as resuming a run that is not blocked.
type RunStateError struct {
	RunID   string
	Status  RunStatus
	Message string
}

func (e *RunStateError) Error() string {
	return fmt.Sprintf("run %s (%s): %s", e.RunID, e.Status, e.Message)
}
