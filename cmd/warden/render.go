package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"agentgov/warden/pkg/cli"
	"agentgov/warden/pkg/render"
	"agentgov/warden/pkg/skill/validator"
)

var renderFlags struct {
	stdout bool
}

var renderCmd = &cobra.Command{
	Use:   "render <skill-id>",
	Short: "Render the instruction file for a skill",
	Long: `Render a skill document into the SKILL.md instruction text an agent
consumes. By default the file is written next to the document source;
--stdout prints it instead.

Rendering is deterministic: the same document always produces the same
bytes, which is how validation detects hand-edited instruction files.

Examples:
  warden render payments/invoice-processing
  warden render --stdout payments/invoice-processing`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().BoolVar(&renderFlags.stdout, "stdout", false, "print to stdout instead of writing the file")
}

func runRender(cmd *cobra.Command, args []string) error {
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
		return cli.NewCommandError("render", err)
	}

	doc, err := reg.Get(args[0])
	if err != nil {
		return cli.NewCommandError("render", err)
	}

	text := render.Render(doc)

	if renderFlags.stdout {
		_, err := os.Stdout.WriteString(text)
		return err
	}

	out := filepath.Join(doc.SourceDir, validator.RenderedFileName)
	if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
		return cli.NewCommandError("render", fmt.Errorf("writing %s: %w", out, err))
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}
