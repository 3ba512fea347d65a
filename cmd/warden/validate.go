package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"agentgov/warden/pkg/cli"
	"agentgov/warden/pkg/skill"
	skillerrors "agentgov/warden/pkg/skill/errors"
	"agentgov/warden/pkg/skill/validator"
)

var validateFlags struct {
	strict bool
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Validate skill documents",
	Long: `Validate one skill document or every document under a directory.

Validation runs in two tiers: structural (shape, required fields,
enums, conditional requirements) and semantic (cross-references,
uniqueness, consistency). Semantic findings that are suspicious but
not fatal are reported as warnings; --strict turns them into errors.

For documents named skill.yml the sibling SKILL.md is checked against
a fresh render and flagged when missing or stale.

Examples:
  # Validate a single document
  warden validate registry/payments/invoice-processing/skill.yml

  # Validate a whole registry, warnings as errors
  warden validate --strict registry/

  # Machine-readable report
  warden validate --format json registry/`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFlags.strict, "strict", false, "treat warnings as errors")
	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
}

// fileReport is the per-file validation outcome in JSON output.
type fileReport struct {
	Path     string   `json:"path"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := collectDocuments(args[0])
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	if len(files) == 0 {
		return cli.NewCommandError("validate", fmt.Errorf("no skill documents found under %s", args[0]))
	}

	opts := skill.Options{Strict: validateFlags.strict, CheckFreshness: true}

	var reports []fileReport
	invalid := 0
	for _, path := range files {
		report := fileReport{Path: path, Valid: true}

		_, warnings, err := skill.Load(path, opts)
		for _, w := range warnings {
			report.Warnings = append(report.Warnings, w.String())
		}
		if err != nil {
			report.Valid = false
			invalid++
			if verr, ok := err.(*skillerrors.ValidationError); ok {
				report.Errors = verr.Messages()
			} else {
				report.Errors = []string{err.Error()}
			}
		}
		reports = append(reports, report)
	}

	if err := printValidateReports(reports); err != nil {
		return err
	}
	if invalid > 0 {
		return cli.NewCommandError("validate",
			fmt.Errorf("%d of %d documents invalid", invalid, len(files)))
	}
	return nil
}

// collectDocuments resolves the argument to a list of document paths.
// A file argument is taken as-is; a directory is walked for skill.yml.
func collectDocuments(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == validator.DocumentFileName {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func printValidateReports(reports []fileReport) error {
	if validateFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, reports)
	}

	for _, r := range reports {
		if r.Valid {
			fmt.Printf("OK    %s\n", r.Path)
		} else {
			fmt.Printf("FAIL  %s\n", r.Path)
		}
		for _, e := range r.Errors {
			fmt.Printf("      error: %s\n", e)
		}
		for _, w := range r.Warnings {
			fmt.Printf("      %s\n", w)
		}
	}
	return nil
}
