package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"agentgov/warden/pkg/audit"
	"agentgov/warden/pkg/cli"
	"agentgov/warden/pkg/config"
	"agentgov/warden/pkg/skill/document"
	"agentgov/warden/pkg/telemetry/logging"
	"agentgov/warden/pkg/workflow"
	"agentgov/warden/pkg/workflow/runstore"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage workflow runs",
	Long: `Inspect and resolve workflow runs tracked by the engine. A run
records an agent's progress through a skill's workflow; blocked runs
wait here for an approve or reject decision.`,
}

var runsListFlags struct {
	skill  string
	agent  string
	status string
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workflow runs",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one workflow run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsApproveCmd = &cobra.Command{
	Use:   "approve <run-id>",
	Short: "Approve a blocked run and continue it",
	Long: `Approve the pending control point of a blocked run. The run
continues through its remaining steps; it may block again at a later
control point, which is reported as a new PENDING state.`,
	Args: cobra.ExactArgs(1),
	RunE: makeRunsDecision(workflow.DecisionApproved),
}

var runsRejectCmd = &cobra.Command{
	Use:   "reject <run-id>",
	Short: "Reject a blocked run",
	Args:  cobra.ExactArgs(1),
	RunE:  makeRunsDecision(workflow.DecisionRejected),
}

var runsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Prune aged-out terminal runs now",
	RunE:  runRunsPrune,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsApproveCmd, runsRejectCmd, runsPruneCmd)

	f := runsListCmd.Flags()
	f.StringVar(&runsListFlags.skill, "skill", "", "filter by skill id")
	f.StringVar(&runsListFlags.agent, "agent", "", "filter by agent id")
	f.StringVar(&runsListFlags.status, "status", "", "filter by status: running, blocked, escalated, completed, failed")
}

// openRunStore builds the configured run store backend.
func openRunStore(cfg *config.Config, logger *logging.Logger) (workflow.RunStore, func() error, error) {
	switch cfg.RunStore.Backend {
	case "memory":
		return runstore.NewMemoryStore(), func() error { return nil }, nil
	case "sqlite":
		store, err := runstore.NewSQLiteStore(&runstore.SQLiteConfig{
			Path:         cfg.RunStore.Path,
			MaxOpenConns: 10,
			WALMode:      true,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown run store backend %q", cfg.RunStore.Backend)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return cli.NewConfigError("logging", err.Error())
	}

	store, closeStore, err := openRunStore(cfg, logger)
	if err != nil {
		return cli.NewCommandError("runs list", err)
	}
	defer closeStore()

	runs, err := store.List(cmd.Context(), workflow.RunFilter{
		SkillID: runsListFlags.skill,
		AgentID: runsListFlags.agent,
		Status:  workflow.RunStatus(runsListFlags.status),
	})
	if err != nil {
		return cli.NewCommandError("runs list", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs found.")
		return nil
	}
	return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, runs)
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return cli.NewConfigError("logging", err.Error())
	}

	store, closeStore, err := openRunStore(cfg, logger)
	if err != nil {
		return cli.NewCommandError("runs show", err)
	}
	defer closeStore()

	run, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return cli.NewCommandError("runs show", err)
	}
	return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, run)
}

// makeRunsDecision builds the approve/reject handler. The engine
// tracks run state while the agent performs the actual work, so
// remaining steps progress through recording handlers.
func makeRunsDecision(decision workflow.Decision) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		name := "runs " + string(decision)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return cli.NewConfigError("logging", err.Error())
		}

		store, closeStore, err := openRunStore(cfg, logger)
		if err != nil {
			return cli.NewCommandError(name, err)
		}
		defer closeStore()

		run, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return cli.NewCommandError(name, err)
		}

		reg, err := openRegistry(cmd, cfg, logger)
		if err != nil {
			return cli.NewCommandError(name, err)
		}
		doc, err := reg.Get(run.SkillID)
		if err != nil {
			return cli.NewCommandError(name, err)
		}

		runner := workflow.NewRunner(store,
			workflow.WithRunnerLogger(logger),
			workflow.WithAuditTrail(audit.NewWriter(cfg.Audit.Path)))

		run, err = runner.Resume(cmd.Context(), args[0], doc, recordingGuard(doc), decision)
		if err != nil {
			var blocked *workflow.CheckpointBlockedError
			var vetoed *workflow.VetoFiredError
			switch {
			case errors.As(err, &blocked):
				fmt.Printf("PENDING: run %s blocked again at control point %s\n",
					run.ID, blocked.ControlPointID)
				return nil
			case errors.As(err, &vetoed):
				fmt.Printf("ESCALATED: run %s halted by vetoed control point %s; contact %s\n",
					run.ID, vetoed.ControlPointID, vetoed.EscalationContact)
				return cli.NewExitCodeError(cli.ExitVetoed, err)
			}
			return cli.NewCommandError(name, err)
		}

		fmt.Printf("Run %s is now %s\n", run.ID, run.Status)
		return nil
	}
}

// recordingGuard registers a pass-through handler for every approved
// activity: the run advances and is audited while the work itself
// happens on the agent side.
func recordingGuard(doc *document.Document) *workflow.ActivityGuard {
	guard := workflow.NewActivityGuard(doc)
	for _, act := range doc.ApprovedActivities {
		_ = guard.Register(act.ID, func(ctx context.Context, run *workflow.Run) (string, error) {
			return "recorded", nil
		})
	}
	return guard
}

func runRunsPrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return cli.NewConfigError("logging", err.Error())
	}

	store, closeStore, err := openRunStore(cfg, logger)
	if err != nil {
		return cli.NewCommandError("runs prune", err)
	}
	defer closeStore()

	sweeper, err := runstore.NewSweeper(store, &runstore.RetentionConfig{
		MaxAge:   cfg.RunStore.RetentionMaxAge,
		Schedule: cfg.RunStore.RetentionSchedule,
	}, logger)
	if err != nil {
		return cli.NewCommandError("runs prune", err)
	}

	removed, err := sweeper.Sweep(cmd.Context())
	if err != nil {
		return cli.NewCommandError("runs prune", err)
	}
	fmt.Printf("Pruned %d runs\n", removed)
	return nil
}
