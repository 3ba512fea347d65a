package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"agentgov/warden/pkg/audit"
	"agentgov/warden/pkg/cli"
	"agentgov/warden/pkg/skill/document"
)

var checkpointFlags struct {
	skill          string
	session        string
	controlPoint   string
	classification string
	reviewer       string
	slaHours       int
	contact        string
	agent          string
}

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Record a control point firing",
	Long: `Record that a control point fired and report how the agent must
proceed. The firing is appended to the audit trail and the exit code
carries the verdict:

  0  proceed (auto passed, notification sent, or checkpoint now pending
     human review; the printed status distinguishes these)
  2  vetoed: halt all processing immediately

A pending review or approval checkpoint exits 0 with status PENDING;
the agent halts on the printed instruction, not the exit code, so that
scripted wrappers can distinguish a veto from a wait.

Examples:
  warden checkpoint --skill payments/invoice-processing \
    --session $SESSION --control-point amount-threshold \
    --classification needs_approval --reviewer "Finance Lead" --sla-hours 4

  warden checkpoint --skill payments/invoice-processing \
    --session $SESSION --control-point sanctions-match \
    --classification vetoed --contact compliance@example.com`,
	RunE: runCheckpoint,
}

func init() {
	rootCmd.AddCommand(checkpointCmd)

	f := checkpointCmd.Flags()
	f.StringVar(&checkpointFlags.skill, "skill", "", "skill id")
	f.StringVar(&checkpointFlags.session, "session", "", "session or run identifier")
	f.StringVar(&checkpointFlags.controlPoint, "control-point", "", "control point id")
	f.StringVar(&checkpointFlags.classification, "classification", "", "control point classification")
	f.StringVar(&checkpointFlags.reviewer, "reviewer", "", "who reviews this checkpoint")
	f.IntVar(&checkpointFlags.slaHours, "sla-hours", 0, "review SLA in hours")
	f.StringVar(&checkpointFlags.contact, "contact", "", "escalation contact (required for vetoed)")
	f.StringVar(&checkpointFlags.agent, "agent", "", "agent identity")

	_ = checkpointCmd.MarkFlagRequired("skill")
	_ = checkpointCmd.MarkFlagRequired("control-point")
	_ = checkpointCmd.MarkFlagRequired("classification")
}

func runCheckpoint(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	classification := document.Classification(checkpointFlags.classification)
	var status string
	switch classification {
	case document.ClassificationAuto, document.ClassificationNotify:
		status = "PASSED"
	case document.ClassificationReview, document.ClassificationNeedsApproval:
		status = "PENDING"
	case document.ClassificationVetoed:
		status = "ESCALATED"
		if checkpointFlags.contact == "" {
			return cli.NewCommandError("checkpoint",
				fmt.Errorf("--contact is required for vetoed control points"))
		}
	default:
		return cli.NewCommandError("checkpoint",
			fmt.Errorf("unknown classification %q", checkpointFlags.classification))
	}

	trail := audit.NewWriter(cfg.Audit.Path)
	err = trail.LogCheckpoint(audit.Entry{
		SkillID:        checkpointFlags.skill,
		SessionID:      checkpointFlags.session,
		AgentID:        checkpointFlags.agent,
		ControlPoint:   checkpointFlags.controlPoint,
		Classification: checkpointFlags.classification,
		Status:         status,
		Reviewer:       checkpointFlags.reviewer,
		SLAHours:       checkpointFlags.slaHours,
		Contact:        checkpointFlags.contact,
	})
	if err != nil {
		return cli.NewCommandError("checkpoint", err)
	}

	switch classification {
	case document.ClassificationAuto:
		fmt.Printf("PASSED: control point %s recorded, proceed\n", checkpointFlags.controlPoint)
	case document.ClassificationNotify:
		fmt.Printf("PASSED: %s notified for control point %s, proceed\n",
			checkpointFlags.reviewer, checkpointFlags.controlPoint)
	case document.ClassificationReview, document.ClassificationNeedsApproval:
		fmt.Printf("PENDING: control point %s awaits %s", checkpointFlags.controlPoint, checkpointFlags.reviewer)
		if checkpointFlags.slaHours > 0 {
			fmt.Printf(" (SLA: %dh)", checkpointFlags.slaHours)
		}
		fmt.Println("\nHalt here and await the decision before continuing.")
	case document.ClassificationVetoed:
		fmt.Printf("ESCALATED: control point %s is vetoed. Halt all processing and contact %s.\n",
			checkpointFlags.controlPoint, checkpointFlags.contact)
		return cli.NewExitCodeError(cli.ExitVetoed,
			fmt.Errorf("vetoed control point %s fired", checkpointFlags.controlPoint))
	}

	return nil
}
