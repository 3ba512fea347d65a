package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"agentgov/warden/pkg/access"
	"agentgov/warden/pkg/audit"
	"agentgov/warden/pkg/skill/document"
	"agentgov/warden/pkg/telemetry/logging"
	"agentgov/warden/pkg/telemetry/metrics"
)

// Notifier delivers notify-classification control point firings to the
// named reviewer. Delivery failures are logged, never fatal: a notify
// point informs, it does not gate.
type Notifier interface {
	Notify(ctx context.Context, run *Run, cp document.ControlPoint) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, run *Run, cp document.ControlPoint) error

func (f NotifierFunc) Notify(ctx context.Context, run *Run, cp document.ControlPoint) error {
	return f(ctx, run, cp)
}

// TriggerEvaluator decides whether a conditional control point's
// trigger holds before a given step. A nil evaluator means conditional
// points never fire from the runner; the rendered instructions still
// direct the agent to invoke them.
type TriggerEvaluator interface {
	Evaluate(ctx context.Context, run *Run, cp document.ControlPoint) (bool, error)
}

// TriggerEvaluatorFunc adapts a function to the TriggerEvaluator interface.
type TriggerEvaluatorFunc func(ctx context.Context, run *Run, cp document.ControlPoint) (bool, error)

func (f TriggerEvaluatorFunc) Evaluate(ctx context.Context, run *Run, cp document.ControlPoint) (bool, error) {
	return f(ctx, run, cp)
}

// Decision is a human verdict on a blocked run.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Runner drives workflow runs through their steps and control points.
type Runner struct {
	store     RunStore
	notifier  Notifier
	evaluator TriggerEvaluator
	trail     *audit.Writer
	metrics   *metrics.GovernanceMetrics
	logger    *logging.Logger

	now   func() time.Time
	newID func() string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithNotifier sets the notify-classification delivery channel.
func WithNotifier(n Notifier) RunnerOption {
	return func(r *Runner) { r.notifier = n }
}

// WithTriggerEvaluator enables runner-side evaluation of conditional
// control points.
func WithTriggerEvaluator(e TriggerEvaluator) RunnerOption {
	return func(r *Runner) { r.evaluator = e }
}

// WithAuditTrail records every firing and transition to the trail.
func WithAuditTrail(w *audit.Writer) RunnerOption {
	return func(r *Runner) { r.trail = w }
}

// WithMetrics attaches governance metrics.
func WithMetrics(gm *metrics.GovernanceMetrics) RunnerOption {
	return func(r *Runner) { r.metrics = gm }
}

// WithRunnerLogger sets the runner's logger.
func WithRunnerLogger(l *logging.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a Runner persisting to store.
func NewRunner(store RunStore, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:  store,
		logger: logging.Nop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins a new run of doc's workflow for agentID and executes
// steps until the workflow completes, a blocking control point fires,
// or an activity fails. The access gate is applied here as well as at
// document lookup so the runner is safe as a standalone entry point.
//
// The returned run reflects the persisted state. A non-nil error of
// type *CheckpointBlockedError or *VetoFiredError accompanies a run
// that stopped on governance grounds rather than failure.
func (r *Runner) Start(ctx context.Context, doc *document.Document, agentID string, guard *ActivityGuard) (*Run, error) {
	if err := access.Check(doc, agentID); err != nil {
		return nil, err
	}

	now := r.now().UTC()
	run := &Run{
		ID:        r.newID(),
		SkillID:   doc.Metadata.ID,
		AgentID:   agentID,
		Status:    RunRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.store.Save(ctx, run); err != nil {
		return nil, fmt.Errorf("persisting new run: %w", err)
	}

	r.logger.Info("workflow run started",
		"run_id", run.ID, "skill_id", run.SkillID, "agent_id", run.AgentID)
	return r.advance(ctx, run, doc, guard)
}

// Resume applies a human decision to a blocked run and, if approved,
// continues execution from the step after the one that blocked.
func (r *Runner) Resume(ctx context.Context, runID string, doc *document.Document, guard *ActivityGuard, decision Decision) (*Run, error) {
	run, err := r.store.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != RunBlocked || run.Pending == nil {
		return run, &RunStateError{RunID: run.ID, Status: run.Status,
			Message: "only a blocked run can be resumed"}
	}

	pending := run.Pending
	switch decision {
	case DecisionApproved:
		r.resolvePending(run, "approved")
		run.Pending = nil
		run.Status = RunRunning
		// A step-scoped point fired after its step's activity ran, so
		// approval moves past that step. A conditional point fired
		// before the activity; the step still has to execute, so the
		// cursor stays put.
		if pending.Activation != document.ActivationConditional {
			run.CurrentStep++
		}
		r.recordControlPoint(string(pending.Classification), "approved")
		r.logger.Info("blocked run approved",
			"run_id", run.ID, "control_point", pending.ControlPointID)
		if err := r.save(ctx, run); err != nil {
			return run, err
		}
		return r.advance(ctx, run, doc, guard)

	case DecisionRejected:
		r.resolvePending(run, "rejected")
		run.Pending = nil
		run.Status = RunFailed
		run.FailureReason = fmt.Sprintf("control point %q rejected by reviewer", pending.ControlPointID)
		r.recordControlPoint(string(pending.Classification), "rejected")
		r.logger.Info("blocked run rejected",
			"run_id", run.ID, "control_point", pending.ControlPointID)
		return run, r.save(ctx, run)

	default:
		return run, fmt.Errorf("unknown decision %q", decision)
	}
}

// advance executes steps from run.CurrentStep until the workflow ends
// or a governance stop occurs. The run is persisted after every step
// so a crash never loses more than the step in flight.
func (r *Runner) advance(ctx context.Context, run *Run, doc *document.Document, guard *ActivityGuard) (*Run, error) {
	steps := doc.Workflow.Steps

	for run.CurrentStep < len(steps) {
		step := steps[run.CurrentStep]
		stepID := step.EffectiveID()

		// Conditional control points are evaluated before the step's
		// activity so a standing halt condition stops work before more
		// of it happens.
		if stopped, err := r.fireConditional(ctx, run, doc); stopped {
			return run, err
		}

		output, err := guard.Invoke(ctx, run, stepID, step.Activity)
		if err != nil {
			if r.metrics != nil {
				if _, denied := err.(*ActivityNotPermittedError); denied {
					r.metrics.RecordActivity("denied")
				} else {
					r.metrics.RecordActivity("failed")
				}
			}
			run.Status = RunFailed
			run.FailureReason = err.Error()
			if saveErr := r.save(ctx, run); saveErr != nil {
				return run, saveErr
			}
			return run, err
		}
		if r.metrics != nil {
			r.metrics.RecordActivity("allowed")
		}

		result := StepResult{
			StepID:       stepID,
			Activity:     step.Activity,
			Output:       output,
			ControlPoint: step.ControlPoint,
			CompletedAt:  r.now().UTC(),
		}
		run.Results = append(run.Results, result)

		if step.ControlPoint != "" {
			cp := doc.ControlPoint(step.ControlPoint)
			if cp == nil {
				run.Status = RunFailed
				run.FailureReason = fmt.Sprintf("step %q references undefined control point %q", stepID, step.ControlPoint)
				if saveErr := r.save(ctx, run); saveErr != nil {
					return run, saveErr
				}
				return run, errors.New(run.FailureReason)
			}

			if stopped, err := r.fireControlPoint(ctx, run, doc, stepID, *cp); stopped {
				return run, err
			}
		} else {
			r.setLastResolution(run, "passed")
		}

		run.CurrentStep++
		if err := r.save(ctx, run); err != nil {
			return run, err
		}
	}

	run.Status = RunCompleted
	if err := r.save(ctx, run); err != nil {
		return run, err
	}
	r.logger.Info("workflow run completed", "run_id", run.ID, "skill_id", run.SkillID)
	return run, nil
}

// fireConditional checks every conditional control point against the
// evaluator. Reports whether the run stopped, with the stop error.
func (r *Runner) fireConditional(ctx context.Context, run *Run, doc *document.Document) (bool, error) {
	if r.evaluator == nil {
		return false, nil
	}
	for _, cp := range doc.ConditionalControlPoints() {
		fired, err := r.evaluator.Evaluate(ctx, run, cp)
		if err != nil {
			r.logger.Error("trigger evaluation failed",
				"run_id", run.ID, "control_point", cp.ID, "error", err)
			continue
		}
		if !fired {
			continue
		}
		stepID := ""
		if run.CurrentStep < len(doc.Workflow.Steps) {
			stepID = doc.Workflow.Steps[run.CurrentStep].EffectiveID()
		}
		if stopped, err := r.fireControlPoint(ctx, run, doc, stepID, cp); stopped {
			return true, err
		}
	}
	return false, nil
}

// fireControlPoint applies one classification's semantics. Reports
// whether the run stopped.
func (r *Runner) fireControlPoint(ctx context.Context, run *Run, doc *document.Document, stepID string, cp document.ControlPoint) (bool, error) {
	r.logCheckpoint(run, cp, stepID)

	switch cp.Classification {
	case document.ClassificationAuto:
		r.recordControlPoint("auto", "passed")
		r.setLastResolution(run, "passed")
		return false, nil

	case document.ClassificationNotify:
		if r.notifier != nil {
			if err := r.notifier.Notify(ctx, run, cp); err != nil {
				r.logger.Error("notification delivery failed",
					"run_id", run.ID, "control_point", cp.ID, "reviewer", cp.WhoReviews, "error", err)
			}
		}
		r.recordControlPoint("notify", "passed")
		r.setLastResolution(run, "notified")
		return false, nil

	case document.ClassificationReview, document.ClassificationNeedsApproval:
		run.Status = RunBlocked
		run.Pending = &PendingControlPoint{
			StepID:         stepID,
			ControlPointID: cp.ID,
			Classification: cp.Classification,
			Activation:     cp.Activation,
			Reviewer:       cp.WhoReviews,
			SLAHours:       cp.SLAHours,
			RaisedAt:       r.now().UTC(),
		}
		r.setLastResolution(run, "blocked")
		r.recordControlPoint(string(cp.Classification), "blocked")
		if err := r.save(ctx, run); err != nil {
			return true, err
		}
		return true, &CheckpointBlockedError{
			RunID:          run.ID,
			StepID:         stepID,
			ControlPointID: cp.ID,
			Classification: cp.Classification,
			Reviewer:       cp.WhoReviews,
			SLAHours:       cp.SLAHours,
		}

	case document.ClassificationVetoed:
		run.Status = RunEscalated
		run.FailureReason = fmt.Sprintf("vetoed control point %q fired", cp.ID)
		r.recordControlPoint("vetoed", "escalated")
		if err := r.save(ctx, run); err != nil {
			return true, err
		}
		r.logger.Error("vetoed control point fired",
			"run_id", run.ID, "control_point", cp.ID, "contact", cp.EscalationContact)
		return true, &VetoFiredError{
			RunID:             run.ID,
			ControlPointID:    cp.ID,
			EscalationContact: cp.EscalationContact,
		}
	}

	return false, fmt.Errorf("unknown classification %q on control point %q", cp.Classification, cp.ID)
}

// resolvePending stamps the decision on the step result that blocked.
func (r *Runner) resolvePending(run *Run, resolution string) {
	for i := len(run.Results) - 1; i >= 0; i-- {
		if run.Results[i].StepID == run.Pending.StepID {
			run.Results[i].Resolution = resolution
			return
		}
	}
}

// setLastResolution stamps the most recent step result.
func (r *Runner) setLastResolution(run *Run, resolution string) {
	if len(run.Results) > 0 && run.Results[len(run.Results)-1].Resolution == "" {
		run.Results[len(run.Results)-1].Resolution = resolution
	}
}

func (r *Runner) save(ctx context.Context, run *Run) error {
	run.UpdatedAt = r.now().UTC()
	if err := r.store.Save(ctx, run); err != nil {
		return fmt.Errorf("persisting run %s: %w", run.ID, err)
	}
	return nil
}

func (r *Runner) recordControlPoint(classification, resolution string) {
	if r.metrics != nil {
		r.metrics.RecordControlPoint(classification, resolution)
	}
}

func (r *Runner) logCheckpoint(run *Run, cp document.ControlPoint, stepID string) {
	if r.trail == nil {
		return
	}
	err := r.trail.LogCheckpoint(audit.Entry{
		SkillID:        run.SkillID,
		SessionID:      run.ID,
		AgentID:        run.AgentID,
		StepID:         stepID,
		ControlPoint:   cp.ID,
		Classification: string(cp.Classification),
		Reviewer:       cp.WhoReviews,
		SLAHours:       cp.SLAHours,
		Contact:        cp.EscalationContact,
	})
	if err != nil {
		r.logger.Error("audit write failed", "run_id", run.ID, "error", err)
	}
}
