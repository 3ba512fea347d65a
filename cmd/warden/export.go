package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"agentgov/warden/pkg/cli"
	"agentgov/warden/pkg/export"
)

var exportFlags struct {
	format    string
	outputDir string
}

var exportCmd = &cobra.Command{
	Use:   "export <skill-id>",
	Short: "Export a skill for an external system",
	Long: `Export a skill document in a format consumed by an external
guardrail or policy system.

Formats:
  json        versioned JSON envelope for generic interchange
  guardrails  NeMo Guardrails config.yml plus Colang flow stubs

Examples:
  warden export --format json payments/invoice-processing
  warden export --format guardrails --output-dir out/ payments/invoice-processing`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFlags.format, "format", "json", "export format: json, guardrails")
	exportCmd.Flags().StringVar(&exportFlags.outputDir, "output-dir", "", "directory to write files into (default: print to stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
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
		return cli.NewCommandError("export", err)
	}

	doc, err := reg.Get(args[0])
	if err != nil {
		return cli.NewCommandError("export", err)
	}

	adapter, err := export.ForFormat(exportFlags.format)
	if err != nil {
		return cli.NewCommandError("export", err)
	}

	files, err := adapter.Export(doc)
	if err != nil {
		return cli.NewCommandError("export", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	if exportFlags.outputDir == "" {
		for _, name := range names {
			fmt.Printf("--- %s ---\n%s", name, files[name])
		}
		return nil
	}

	for _, name := range names {
		path := filepath.Join(exportFlags.outputDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return cli.NewCommandError("export", err)
		}
		if err := os.WriteFile(path, []byte(files[name]), 0o644); err != nil {
			return cli.NewCommandError("export", err)
		}
		fmt.Printf("Wrote %s\n", path)
	}
	return nil
}
