// Package validator performs the semantic tier of skill validation.
//
// The structural tier (shape, required fields, enums, conditional
// requirements) lives in the schema package and runs at parse time.
// This package checks what a schema cannot: cross-references between
// document sections, internal uniqueness, and consistency signals that
// are suspicious rather than fatal.
//
// Findings split into two severities. Violations make a document
// unusable and are returned as a ValidationError. Warnings flag likely
// authoring mistakes but never block; strict callers promote them via
// the errors package.
package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"agentgov/warden/pkg/render"
	"agentgov/warden/pkg/skill/document"
	skillerrors "agentgov/warden/pkg/skill/errors"
)

// DocumentFileName is the canonical name of a skill definition file
// inside its registry directory.
const DocumentFileName = "skill.yml"

// RenderedFileName is the generated instruction file that sits next to
// the definition.
const RenderedFileName = "SKILL.md"

// Validator runs semantic validation over parsed documents.
type Validator struct{}

// New returns a Validator.
func New() *Validator {
	return &Validator{}
}

// Validate checks cross-references and consistency for a single parsed
// document. Violations describe defects that make the document
// unusable; warnings describe suspicious but tolerated authoring.
func (v *Validator) Validate(doc *document.Document) ([]skillerrors.Violation, []skillerrors.Warning) {
	var violations []skillerrors.Violation
	var warnings []skillerrors.Warning

	violations = append(violations, v.checkUniqueness(doc)...)
	violations = append(violations, v.checkBusinessAreaPrefix(doc)...)
	violations = append(violations, v.checkControlPointRefs(doc)...)

	warnings = append(warnings, v.checkAgents(doc)...)
	warnings = append(warnings, v.checkApprovalFields(doc)...)
	warnings = append(warnings, v.checkWorkflowActivities(doc)...)
	warnings = append(warnings, v.checkOrphanStepPoints(doc)...)

	return violations, warnings
}

// checkUniqueness rejects duplicate activity and control point ids.
func (v *Validator) checkUniqueness(doc *document.Document) []skillerrors.Violation {
	var out []skillerrors.Violation

	seenAct := make(map[string]bool, len(doc.ApprovedActivities))
	for i, act := range doc.ApprovedActivities {
		if seenAct[act.ID] {
			out = append(out, skillerrors.Violation{
				FieldPath: fmt.Sprintf("approved_activities.%d.id", i),
				Message:   fmt.Sprintf("duplicate activity id %q", act.ID),
			})
		}
		seenAct[act.ID] = true
	}

	seenCP := make(map[string]bool, len(doc.ControlPoints))
	for i, cp := range doc.ControlPoints {
		if seenCP[cp.ID] {
			out = append(out, skillerrors.Violation{
				FieldPath: fmt.Sprintf("control_points.%d.id", i),
				Message:   fmt.Sprintf("duplicate control point id %q", cp.ID),
			})
		}
		seenCP[cp.ID] = true
	}

	return out
}

// checkBusinessAreaPrefix requires metadata.id to be namespaced under
// metadata.business_area when the latter is set.
func (v *Validator) checkBusinessAreaPrefix(doc *document.Document) []skillerrors.Violation {
	area := doc.Metadata.BusinessArea
	if area == "" {
		return nil
	}
	if strings.HasPrefix(doc.Metadata.ID, area+"/") {
		return nil
	}
	return []skillerrors.Violation{{
		FieldPath: "metadata.id",
		Message: fmt.Sprintf("id %q is not namespaced under business_area %q",
			doc.Metadata.ID, area),
	}}
}

// checkControlPointRefs rejects workflow steps naming a control point
// that does not exist.
func (v *Validator) checkControlPointRefs(doc *document.Document) []skillerrors.Violation {
	var out []skillerrors.Violation
	for i, step := range doc.Workflow.Steps {
		if step.ControlPoint == "" {
			continue
		}
		if doc.ControlPoint(step.ControlPoint) == nil {
			out = append(out, skillerrors.Violation{
				FieldPath: fmt.Sprintf("workflow.steps.%d.control_point", i),
				Message: fmt.Sprintf("step %q references undefined control point %q",
					step.EffectiveID(), step.ControlPoint),
			})
		}
	}
	return out
}

func (v *Validator) checkAgents(doc *document.Document) []skillerrors.Warning {
	if !doc.HasWildcardAgent() {
		return nil
	}
	return []skillerrors.Warning{{
		Path:    "metadata.authorised_agents",
		Message: "wildcard agent '*' grants access to any agent identity; restrict before approval",
	}}
}

func (v *Validator) checkApprovalFields(doc *document.Document) []skillerrors.Warning {
	if doc.Metadata.Status != document.StatusApproved {
		return nil
	}
	var out []skillerrors.Warning
	if doc.Metadata.ApprovedAt == "" {
		out = append(out, skillerrors.Warning{
			Path:    "metadata.approved_at",
			Message: "status is approved but approved_at is not set",
		})
	}
	if doc.Metadata.ApprovedBy == "" {
		out = append(out, skillerrors.Warning{
			Path:    "metadata.approved_by",
			Message: "status is approved but approved_by is not set",
		})
	}
	return out
}

// checkWorkflowActivities flags steps whose activity is not in the
// approved allowlist. A warning rather than a violation so drafts can
// sketch a workflow before activities are finalised; the runtime guard
// denies such steps regardless.
func (v *Validator) checkWorkflowActivities(doc *document.Document) []skillerrors.Warning {
	var out []skillerrors.Warning
	for i, step := range doc.Workflow.Steps {
		if step.Activity == "" || doc.HasActivity(step.Activity) {
			continue
		}
		out = append(out, skillerrors.Warning{
			Path: fmt.Sprintf("workflow.steps.%d.activity", i),
			Message: fmt.Sprintf("step %q uses activity %q which is not in approved_activities",
				step.EffectiveID(), step.Activity),
		})
	}
	return out
}

// checkOrphanStepPoints flags step-activation control points that no
// workflow step references. They can never fire.
func (v *Validator) checkOrphanStepPoints(doc *document.Document) []skillerrors.Warning {
	referenced := make(map[string]bool)
	for _, step := range doc.Workflow.Steps {
		if step.ControlPoint != "" {
			referenced[step.ControlPoint] = true
		}
	}

	var out []skillerrors.Warning
	for i, cp := range doc.ControlPoints {
		if cp.Activation != document.ActivationStep || referenced[cp.ID] {
			continue
		}
		out = append(out, skillerrors.Warning{
			Path: fmt.Sprintf("control_points.%d", i),
			Message: fmt.Sprintf("step-activation control point %q is referenced by no workflow step and can never fire",
				cp.ID),
		})
	}
	return out
}

// CheckFreshness compares the rendered instruction file next to the
// document against a fresh render. It only applies to documents loaded
// from a canonical skill.yml; other paths yield no findings.
func (v *Validator) CheckFreshness(doc *document.Document) []skillerrors.Warning {
	if doc.SourceFile == "" || filepath.Base(doc.SourceFile) != DocumentFileName {
		return nil
	}

	rendered := filepath.Join(doc.SourceDir, RenderedFileName)
	data, err := os.ReadFile(rendered)
	if err != nil {
		if os.IsNotExist(err) {
			return []skillerrors.Warning{{
				Path:    RenderedFileName,
				Message: fmt.Sprintf("%s has not been generated; run the render command", RenderedFileName),
			}}
		}
		return []skillerrors.Warning{{
			Path:    RenderedFileName,
			Message: fmt.Sprintf("cannot read %s: %v", RenderedFileName, err),
		}}
	}

	if string(data) != render.Render(doc) {
		return []skillerrors.Warning{{
			Path:    RenderedFileName,
			Message: fmt.Sprintf("%s is stale or hand-edited; regenerate it from %s", RenderedFileName, DocumentFileName),
		}}
	}
	return nil
}
