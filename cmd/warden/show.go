package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"agentgov/warden/pkg/cli"
)

var showFlags struct {
	raw bool
}

var showCmd = &cobra.Command{
	Use:   "show <skill-id>",
	Short: "Show a skill document",
	Long: `Show the parsed form of a skill document as JSON, or the raw YAML
source with --raw.

Examples:
  warden show payments/invoice-processing
  warden show --raw payments/invoice-processing`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolVar(&showFlags.raw, "raw", false, "print the raw YAML source")
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return cli.NewConfigError("logging", err.Error())
	}

	reg, err := openRegistry(cmd, cfg, logger)
	if err != nil {
		return cli.NewCommandError("show", err)
	}

	doc, err := reg.Get(args[0])
	if err != nil {
		return cli.NewCommandError("show", err)
	}

	if showFlags.raw {
		data, err := os.ReadFile(doc.SourceFile)
		if err != nil {
			return cli.NewCommandError("show", fmt.Errorf("reading %s: %w", doc.SourceFile, err))
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, doc)
}
