package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"agentgov/warden/pkg/audit"
	"agentgov/warden/pkg/cli"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit trail operations",
}

var auditLogFlags struct {
	skill   string
	session string
	agent   string
	action  string
}

var auditLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Append an action to the audit trail",
	Long: `Append a free-form action record to the audit trail. Rendered
instruction files direct agents to call this at skill invocation and
after each workflow step.

Example:
  warden audit log --skill payments/invoice-processing \
    --session $SESSION --action skill_invoked`,
	RunE: runAuditLog,
}

var auditShowFlags struct {
	skill   string
	session string
	kind    string
	limit   int
}

var auditShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print audit trail entries",
	Long: `Print audit trail entries as JSON lines, optionally filtered by
skill, session, or entry kind.

Example:
  warden audit show --skill payments/invoice-processing --kind checkpoint`,
	RunE: runAuditShow,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditLogCmd)
	auditCmd.AddCommand(auditShowCmd)

	lf := auditLogCmd.Flags()
	lf.StringVar(&auditLogFlags.skill, "skill", "", "skill id")
	lf.StringVar(&auditLogFlags.session, "session", "", "session or run identifier")
	lf.StringVar(&auditLogFlags.agent, "agent", "", "agent identity")
	lf.StringVar(&auditLogFlags.action, "action", "", "action performed")
	_ = auditLogCmd.MarkFlagRequired("skill")
	_ = auditLogCmd.MarkFlagRequired("action")

	sf := auditShowCmd.Flags()
	sf.StringVar(&auditShowFlags.skill, "skill", "", "filter by skill id")
	sf.StringVar(&auditShowFlags.session, "session", "", "filter by session")
	sf.StringVar(&auditShowFlags.kind, "kind", "", "filter by kind: action, checkpoint, activity_check")
	sf.IntVar(&auditShowFlags.limit, "limit", 0, "print at most the last N matching entries")
}

func runAuditLog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	trail := audit.NewWriter(cfg.Audit.Path)
	err = trail.LogAction(auditLogFlags.skill, auditLogFlags.session,
		auditLogFlags.agent, auditLogFlags.action)
	if err != nil {
		return cli.NewCommandError("audit log", err)
	}
	return nil
}

func runAuditShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	entries, err := audit.Read(cfg.Audit.Path)
	if err != nil {
		return cli.NewCommandError("audit show", err)
	}

	var matched []audit.Entry
	for _, e := range entries {
		if auditShowFlags.skill != "" && e.SkillID != auditShowFlags.skill {
			continue
		}
		if auditShowFlags.session != "" && e.SessionID != auditShowFlags.session {
			continue
		}
		if auditShowFlags.kind != "" && e.Kind != auditShowFlags.kind {
			continue
		}
		matched = append(matched, e)
	}

	if auditShowFlags.limit > 0 && len(matched) > auditShowFlags.limit {
		matched = matched[len(matched)-auditShowFlags.limit:]
	}

	if len(matched) == 0 {
		fmt.Println("No audit entries found.")
		return nil
	}

	formatter := &cli.JSONFormatter{}
	for _, e := range matched {
		if err := formatter.FormatTo(os.Stdout, e); err != nil {
			return err
		}
	}
	return nil
}
