package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"agentgov/warden/pkg/audit"
	"agentgov/warden/pkg/cli"
	"agentgov/warden/pkg/config"
	"agentgov/warden/pkg/skill"
	"agentgov/warden/pkg/skill/document"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Activity allowlist operations",
}

var activityCheckFlags struct {
	skill    string
	step     string
	activity string
	session  string
}

var activityCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a workflow step against the approved allowlist",
	Long: `Check whether a workflow step's activity (or a bare activity id)
appears in the skill's approved allowlist. The verdict is printed as
JSON and mirrored in the exit code: 0 allowed, 1 denied.

--skill accepts either a document path or a skill id resolved through
the registry.

Examples:
  warden activity check --skill registry/payments/invoice-processing/skill.yml \
    --step extract-invoice-data

  warden activity check --skill payments/invoice-processing --activity delete-records`,
	RunE: runActivityCheck,
}

func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.AddCommand(activityCheckCmd)

	f := activityCheckCmd.Flags()
	f.StringVar(&activityCheckFlags.skill, "skill", "", "skill document path or skill id")
	f.StringVar(&activityCheckFlags.step, "step", "", "workflow step id to check")
	f.StringVar(&activityCheckFlags.activity, "activity", "", "activity id to check directly")
	f.StringVar(&activityCheckFlags.session, "session", "", "session or run identifier")

	_ = activityCheckCmd.MarkFlagRequired("skill")
}

// checkVerdict is the JSON verdict printed by activity check.
type checkVerdict struct {
	SkillID  string `json:"skill_id"`
	StepID   string `json:"step_id,omitempty"`
	Activity string `json:"activity,omitempty"`
	Allowed  bool   `json:"allowed"`
	Reason   string `json:"reason,omitempty"`
}

func runActivityCheck(cmd *cobra.Command, args []string) error {
	if activityCheckFlags.step == "" && activityCheckFlags.activity == "" {
		return cli.NewCommandError("activity check",
			fmt.Errorf("one of --step or --activity is required"))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	doc, err := resolveSkill(cmd, cfg, activityCheckFlags.skill)
	if err != nil {
		return cli.NewCommandError("activity check", err)
	}

	verdict := checkVerdict{
		SkillID: doc.Metadata.ID,
		StepID:  activityCheckFlags.step,
	}

	activityID := activityCheckFlags.activity
	if activityID == "" {
		step := findStep(doc, activityCheckFlags.step)
		if step == nil {
			verdict.Reason = fmt.Sprintf("step %q is not in the workflow", activityCheckFlags.step)
		} else {
			activityID = step.Activity
		}
	}
	verdict.Activity = activityID

	if activityID != "" {
		if doc.HasActivity(activityID) {
			verdict.Allowed = true
		} else {
			verdict.Reason = fmt.Sprintf("activity %q is not in the approved allowlist", activityID)
		}
	}

	trail := audit.NewWriter(cfg.Audit.Path)
	if err := trail.LogActivityCheck(doc.Metadata.ID, activityCheckFlags.session,
		activityCheckFlags.step, activityID, verdict.Allowed); err != nil {
		return cli.NewCommandError("activity check", err)
	}

	if err := cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, verdict); err != nil {
		return err
	}
	if !verdict.Allowed {
		return cli.NewExitCodeError(cli.ExitError, fmt.Errorf("activity denied: %s", verdict.Reason))
	}
	return nil
}

// resolveSkill loads a document from a file path, or from the registry
// when the argument is a skill id.
func resolveSkill(cmd *cobra.Command, cfg *config.Config, ref string) (*document.Document, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		doc, _, err := skill.Load(ref, skill.Options{})
		return doc, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	reg, err := openRegistry(cmd, cfg, logger)
	if err != nil {
		return nil, err
	}
	return reg.Get(ref)
}

func findStep(doc *document.Document, stepID string) *document.WorkflowStep {
	for i := range doc.Workflow.Steps {
		if doc.Workflow.Steps[i].EffectiveID() == stepID {
			return &doc.Workflow.Steps[i]
		}
	}
	return nil
}
