package export

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"agentgov/warden/pkg/skill/document"
)

// GuardrailsAdapter emits a NeMo Guardrails configuration skeleton: a
// config.yml wiring the rails and a Colang file with one input flow
// per vetoed control point plus a flow covering the unacceptable
// actions list. The flow bodies are stubs for a rails engineer to
// complete; the adapter's job is carrying the governance surface over,
// not writing dialogue logic.
type GuardrailsAdapter struct{}

// Name implements Adapter.
func (a *GuardrailsAdapter) Name() string { return "guardrails" }

type railsConfig struct {
	Instructions []railsInstruction `yaml:"instructions"`
	Rails        railsSection       `yaml:"rails"`
}

type railsInstruction struct {
	Type    string `yaml:"type"`
	Content string `yaml:"content"`
}

type railsSection struct {
	Input railsFlows `yaml:"input"`
}

type railsFlows struct {
	Flows []string `yaml:"flows"`
}

// Export implements Adapter.
func (a *GuardrailsAdapter) Export(doc *document.Document) (map[string]string, error) {
	var flows []string
	for _, cp := range doc.VetoedControlPoints() {
		flows = append(flows, flowName(cp.ID))
	}
	if len(doc.Constraints.UnacceptableActions) > 0 {
		flows = append(flows, "check unacceptable actions")
	}

	cfg := railsConfig{
		Instructions: []railsInstruction{{
			Type: "general",
			Content: strings.Join(strings.Fields(doc.Context.Description), " ") +
				" Only the approved activities in the governing skill definition may be performed.",
		}},
		Rails: railsSection{Input: railsFlows{Flows: flows}},
	}

	cfgData, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding guardrails config for %q: %w", doc.Metadata.ID, err)
	}

	return map[string]string{
		"config.yml":                 string(cfgData),
		"rails/" + slug(doc) + ".co": colang(doc),
	}, nil
}

func flowName(cpID string) string {
	return "check " + strings.ReplaceAll(cpID, "-", " ")
}

func colang(doc *document.Document) string {
	var b strings.Builder

	for _, cp := range doc.VetoedControlPoints() {
		fmt.Fprintf(&b, "define flow %s\n", flowName(cp.ID))
		fmt.Fprintf(&b, "  \"\"\"%s\"\"\"\n", strings.Join(strings.Fields(cp.Description), " "))
		if cp.Trigger != "" {
			fmt.Fprintf(&b, "  # trigger: %s\n", strings.Join(strings.Fields(cp.Trigger), " "))
		}
		fmt.Fprintf(&b, "  bot refuse and escalate to %s\n", cp.EscalationContact)
		b.WriteString("  stop\n\n")
	}

	if actions := doc.Constraints.UnacceptableActions; len(actions) > 0 {
		b.WriteString("define flow check unacceptable actions\n")
		b.WriteString("  \"\"\"Refuse any request matching the unacceptable actions list.\"\"\"\n")
		for _, action := range actions {
			fmt.Fprintf(&b, "  # %s\n", strings.Join(strings.Fields(action), " "))
		}
		b.WriteString("  bot refuse\n  stop\n")
	}

	return b.String()
}
