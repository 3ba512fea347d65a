package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"agentgov/warden/pkg/cli"
	"agentgov/warden/pkg/registry"
	"agentgov/warden/pkg/skill/document"
)

var listFlags struct {
	businessArea string
	status       string
	agent        string
	format       string
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List skills in the registry",
	Long: `List the skill documents loaded from the registry, optionally
filtered by business area, lifecycle status, or accessibility to a
specific agent.

Examples:
  warden list --registry registry/
  warden list --business-area payments
  warden list --status approved --agent invoice-bot`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listFlags.businessArea, "business-area", "", "filter by business area")
	listCmd.Flags().StringVar(&listFlags.status, "status", "", "filter by status: draft, approved, deprecated")
	listCmd.Flags().StringVar(&listFlags.agent, "agent", "", "only skills accessible to this agent")
	listCmd.Flags().StringVar(&listFlags.format, "format", "text", "output format: text, json")
}

// listEntry is one row of list output.
type listEntry struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Version      string `json:"version"`
	Status       string `json:"status"`
	BusinessArea string `json:"business_area"`
	Risk         string `json:"risk"`
}

func runList(cmd *cobra.Command, args []string) error {
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
		return cli.NewCommandError("list", err)
	}

	docs := reg.List(registry.Filter{
		BusinessArea: listFlags.businessArea,
		Status:       document.Status(listFlags.status),
	})

	var entries []listEntry
	for _, doc := range docs {
		if listFlags.agent != "" {
			if _, err := reg.GetForAgent(doc.Metadata.ID, listFlags.agent); err != nil {
				continue
			}
		}
		entries = append(entries, listEntry{
			ID:           doc.Metadata.ID,
			Name:         doc.Metadata.Name,
			Version:      doc.Metadata.Version,
			Status:       string(doc.Metadata.Status),
			BusinessArea: doc.Metadata.BusinessArea,
			Risk:         string(doc.Context.RiskClassification),
		})
	}

	if listFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, entries)
	}

	if len(entries) == 0 {
		fmt.Println("No skills found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVERSION\tSTATUS\tRISK")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Version, e.Status, e.Risk)
	}
	return w.Flush()
}
