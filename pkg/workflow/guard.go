package workflow

import (
	"context"
	"fmt"

	"agentgov/warden/pkg/skill/document"
)

// ActivityFunc is the implementation of one approved activity. The
// returned string is a short outcome summary stored on the step result.
type ActivityFunc func(ctx context.Context, run *Run) (string, error)

// ActivityGuard is the single entry point for executing activities
// under a skill document. Every invocation is checked against the
// approved allowlist first; registering a handler grants nothing on
// its own.
type ActivityGuard struct {
	doc      *document.Document
	handlers map[string]ActivityFunc
}

// NewActivityGuard creates a guard bound to one document.
func NewActivityGuard(doc *document.Document) *ActivityGuard {
	return &ActivityGuard{
		doc:      doc,
		handlers: make(map[string]ActivityFunc),
	}
}

// Register attaches the implementation for an activity id. Handlers
// for ids outside the allowlist may be registered; they are denied at
// invocation, which keeps registration order-independent of document
// edits.
func (g *ActivityGuard) Register(activityID string, fn ActivityFunc) error {
	if fn == nil {
		return fmt.Errorf("handler for activity %q cannot be nil", activityID)
	}
	if _, dup := g.handlers[activityID]; dup {
		return fmt.Errorf("handler for activity %q already registered", activityID)
	}
	g.handlers[activityID] = fn
	return nil
}

// Invoke runs the activity for a step. The allowlist check comes
// before the handler lookup so an unapproved activity is reported as a
// governance denial even when no handler exists for it.
func (g *ActivityGuard) Invoke(ctx context.Context, run *Run, stepID, activityID string) (string, error) {
	if !g.doc.HasActivity(activityID) {
		return "", &ActivityNotPermittedError{
			SkillID:  g.doc.Metadata.ID,
			StepID:   stepID,
			Activity: activityID,
		}
	}

	fn, ok := g.handlers[activityID]
	if !ok {
		return "", fmt.Errorf("no handler registered for activity %q", activityID)
	}
	return fn(ctx, run)
}
