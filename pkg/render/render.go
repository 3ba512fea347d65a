// Package render compiles a validated skill document into the literal
// instruction text (SKILL.md) handed to an agent at runtime.
//
// Render is a pure function: no I/O, no clock, no randomness. Identical
// documents always produce byte-identical text, which is what makes the
// validator's freshness check meaningful. A SKILL.md that no longer
// matches a fresh render was hand-edited after generation.
//
// Ordering within every section follows document order and is never
// re-sorted; the author's ordering is part of the procedure.
package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"agentgov/warden/pkg/skill/document"
)

// maxDescription caps the frontmatter description length. Longer text is
// truncated with an explicit ellipsis marker rather than failing.
const maxDescription = 1024

// Render generates the complete SKILL.md text for a document.
func Render(doc *document.Document) string {
	sections := []string{
		frontmatter(doc),
		header(doc),
		initialisation(doc),
		approvedActivities(doc),
		unacceptableActions(doc),
		vetoedConditions(doc),
		oversightCheckpoints(doc),
		conditionTriggeredControls(doc),
		workflow(doc),
	}

	var kept []string
	for _, s := range sections {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.TrimRight(strings.Join(kept, "\n"), "\n") + "\n"
}

// inline collapses multi-line YAML strings to a single line.
func inline(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func skillYMLPath(doc *document.Document) string {
	return fmt.Sprintf("registry/%s/skill.yml", doc.Metadata.ID)
}

// displayName returns a control point's explicit name or its title-cased id.
func displayName(cp document.ControlPoint) string {
	if cp.Name != "" {
		return cp.Name
	}
	words := strings.Split(cp.ID, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// checkpointCmd builds the warden checkpoint invocation for a control point.
func checkpointCmd(skillID string, cp document.ControlPoint) string {
	args := []string{
		"warden checkpoint",
		fmt.Sprintf("  --skill %s", skillID),
		"  --session ${WARDEN_SESSION_ID}",
		fmt.Sprintf("  --control-point %s", cp.ID),
		fmt.Sprintf("  --classification %s", cp.Classification),
	}
	if cp.WhoReviews != "" {
		args = append(args, fmt.Sprintf("  --reviewer %q", cp.WhoReviews))
	}
	if cp.SLAHours > 0 {
		args = append(args, fmt.Sprintf("  --sla-hours %d", cp.SLAHours))
	}
	if cp.EscalationContact != "" {
		args = append(args, fmt.Sprintf("  --contact %s", cp.EscalationContact))
	}
	return strings.Join(args, " \\\n")
}

func auditCmd(skillID, action string) string {
	return fmt.Sprintf(
		"warden audit log \\\n  --skill %s \\\n  --session ${WARDEN_SESSION_ID} \\\n  --action %s",
		skillID, action)
}

func validateActivityCmd(skillYML, stepID string) string {
	return fmt.Sprintf(
		"warden activity check \\\n  --skill %s \\\n  --step %s",
		skillYML, stepID)
}

func haltComment(c document.Classification) string {
	switch c {
	case document.ClassificationVetoed:
		return "# Exit code 2 — halt all processing immediately."
	case document.ClassificationNeedsApproval:
		return "# PENDING — halt here and await explicit approval before continuing."
	case document.ClassificationReview:
		return "# PENDING — halt here and await reviewer clearance before continuing."
	case document.ClassificationNotify:
		return "# NOTIFY — human is informed; agent may continue."
	}
	return ""
}

func fencedCmd(cmd, comment string) string {
	if comment == "" {
		return fmt.Sprintf("```bash\n%s\n```", cmd)
	}
	return fmt.Sprintf("```bash\n%s\n%s\n```", cmd, comment)
}

func frontmatter(doc *document.Document) string {
	meta := doc.Metadata
	ctx := doc.Context

	name := meta.ID
	if i := strings.LastIndex(meta.ID, "/"); i >= 0 {
		name = meta.ID[i+1:]
	}

	rawDesc := inline(ctx.Description)
	area := strings.ReplaceAll(meta.BusinessArea, "_", " ")
	agents := strings.Join(meta.AuthorisedAgents, ", ")

	useWhen := fmt.Sprintf("Use when %s is needed for %s operations.", meta.Name, area)
	suffix := fmt.Sprintf(" %s Risk: %s. Authorised agents: %s.", useWhen, ctx.RiskClassification, agents)

	if len(rawDesc)+len(suffix) > maxDescription {
		// The suffix alone can exceed the cap (the agent list is
		// unbounded), so the keep length needs clamping, and the cut
		// must land on a rune boundary.
		keep := maxDescription - len(suffix) - len("...")
		if keep < 0 {
			keep = 0
		}
		for keep > 0 && !utf8.RuneStart(rawDesc[keep]) {
			keep--
		}
		rawDesc = rawDesc[:keep] + "..."
	}

	return fmt.Sprintf("---\nname: %s\ndescription: %q\n---\n", name, rawDesc+suffix)
}

func header(doc *document.Document) string {
	meta := doc.Metadata
	ctx := doc.Context

	regStr := "None specified"
	if len(ctx.ApplicableRegulations) > 0 {
		regStr = strings.Join(ctx.ApplicableRegulations, " | ")
	}

	return fmt.Sprintf(
		"# %s\n\n"+
			"> **Governed Skill** — Supervisor: %s (%s)\n"+
			"> Risk: **%s** | Version: %s | Regulations: %s\n\n"+
			"*All steps, controls, and restrictions below are defined by your supervisor. "+
			"Follow this procedure exactly.*\n\n---",
		meta.Name,
		meta.Supervisor.Name, meta.Supervisor.Role,
		ctx.RiskClassification, meta.Version, regStr,
	)
}

func initialisation(doc *document.Document) string {
	return fmt.Sprintf(
		"## Initialisation\n\n"+
			"Before any other action, record that this skill has been invoked:\n\n"+
			"```bash\n%s\n```\n\n---",
		auditCmd(doc.Metadata.ID, "skill_invoked"))
}

func approvedActivities(doc *document.Document) string {
	var rows []string
	for _, act := range doc.ApprovedActivities {
		rows = append(rows, fmt.Sprintf("| `%s` | %s |", act.ID, inline(act.Description)))
	}

	return fmt.Sprintf(
		"## Approved Activities\n\n"+
			"You may **only** perform activities listed below. "+
			"Validate each step before executing:\n\n"+
			"```bash\n%s\n```\n\n"+
			"If `\"allowed\": false` — halt immediately and log the attempt.\n\n"+
			"| Activity ID | Description |\n"+
			"|-------------|-------------|\n"+
			"%s\n\n---",
		validateActivityCmd(skillYMLPath(doc), "<step-id>"),
		strings.Join(rows, "\n"))
}

func unacceptableActions(doc *document.Document) string {
	actions := doc.Constraints.UnacceptableActions
	if len(actions) == 0 {
		return ""
	}
	var items []string
	for _, a := range actions {
		items = append(items, "- "+inline(a))
	}
	return fmt.Sprintf("## What You Must Never Do\n\n%s\n\n---", strings.Join(items, "\n"))
}

func vetoedConditions(doc *document.Document) string {
	vetoed := doc.VetoedControlPoints()
	if len(vetoed) == 0 {
		return ""
	}

	lines := []string{
		"## Vetoed Conditions — Halt Immediately",
		"",
		"If any of these conditions arise, invoke the checkpoint immediately and halt. " +
			"No human override is possible.",
		"",
	}

	for _, cp := range vetoed {
		lines = append(lines,
			fmt.Sprintf("### %s — %s", cp.ID, displayName(cp)),
			"",
			inline(cp.Description))
		if cp.Trigger != "" {
			lines = append(lines, "", fmt.Sprintf("**Trigger:** %s", inline(cp.Trigger)))
		}
		lines = append(lines, "",
			fencedCmd(checkpointCmd(doc.Metadata.ID, cp), haltComment(document.ClassificationVetoed)),
			"")
	}

	lines = append(lines, "---")
	return strings.Join(lines, "\n")
}

// checkpointSection renders a list of non-vetoed, non-auto control
// points with their metadata line and enforcement command.
func checkpointSection(doc *document.Document, title, intro string, points []document.ControlPoint, showTrigger bool) string {
	if len(points) == 0 {
		return ""
	}

	lines := []string{"## " + title, "", intro, ""}

	for _, cp := range points {
		metaParts := []string{fmt.Sprintf("Classification: **%s**", cp.Classification)}
		if cp.WhoReviews != "" {
			metaParts = append(metaParts, "Reviewer: "+cp.WhoReviews)
		}
		if cp.SLAHours > 0 {
			metaParts = append(metaParts, fmt.Sprintf("SLA: %dh", cp.SLAHours))
		}

		lines = append(lines,
			fmt.Sprintf("### %s — %s", cp.ID, displayName(cp)),
			"",
			strings.Join(metaParts, " | "),
			"")
		if showTrigger {
			lines = append(lines, fmt.Sprintf("**Trigger:** %s", inline(cp.Trigger)), "")
		}
		lines = append(lines,
			inline(cp.Description),
			"",
			fencedCmd(checkpointCmd(doc.Metadata.ID, cp), haltComment(cp.Classification)),
			"")
	}

	lines = append(lines, "---")
	return strings.Join(lines, "\n")
}

func oversightCheckpoints(doc *document.Document) string {
	var points []document.ControlPoint
	for _, cp := range doc.ControlPoints {
		if cp.Classification == document.ClassificationVetoed || cp.Classification == document.ClassificationAuto {
			continue
		}
		if cp.Activation == document.ActivationStep {
			points = append(points, cp)
		}
	}
	return checkpointSection(doc, "Oversight Checkpoints",
		"These checkpoints are invoked at specific workflow steps (see Workflow section).",
		points, false)
}

func conditionTriggeredControls(doc *document.Document) string {
	var points []document.ControlPoint
	for _, cp := range doc.ControlPoints {
		if cp.Classification == document.ClassificationVetoed || cp.Classification == document.ClassificationAuto {
			continue
		}
		if cp.Activation == document.ActivationConditional {
			points = append(points, cp)
		}
	}
	return checkpointSection(doc, "Condition-Triggered Controls",
		"These activate when their trigger condition is met during any workflow step.",
		points, true)
}

func workflow(doc *document.Document) string {
	steps := doc.Workflow.Steps
	if len(steps) == 0 {
		return ""
	}

	skillID := doc.Metadata.ID
	skillYML := skillYMLPath(doc)

	lines := []string{
		"## Workflow",
		"",
		"Execute steps in this exact order. Do not skip, reorder, or add steps.",
		"",
	}

	for i, step := range steps {
		stepID := step.EffectiveID()

		// Resolve the activity's human-readable description; fall back
		// to the raw id for documents carrying unresolved references
		// (validation warns on those, but render never fails).
		activityText := step.Activity
		if act := doc.ActivityByID(step.Activity); act != nil {
			activityText = inline(act.Description)
		}

		lines = append(lines,
			fmt.Sprintf("### Step %d — %s", i+1, stepID),
			"",
			fmt.Sprintf("**Activity:** %s", activityText),
			"",
			fmt.Sprintf("```bash\n%s\n\n%s\n```",
				validateActivityCmd(skillYML, stepID),
				auditCmd(skillID, stepID)))

		if step.ControlPoint != "" {
			if cp := doc.ControlPoint(step.ControlPoint); cp != nil {
				label := string(cp.Classification)
				switch cp.Classification {
				case document.ClassificationAuto:
					label = "auto — agent proceeds automatically"
				case document.ClassificationNeedsApproval:
					label = "halt and await approval"
				case document.ClassificationReview:
					label = "halt and await review"
				case document.ClassificationNotify:
					label = "notify and continue"
				}
				lines = append(lines, "",
					fmt.Sprintf("Control point **%s** (%s):", step.ControlPoint, label),
					"",
					fencedCmd(checkpointCmd(skillID, *cp), haltComment(cp.Classification)))
			}
		}

		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
