package document

// Status is the lifecycle state of a skill document.
// Only the supervising hub transitions draft -> approved and
// approved -> deprecated; the engine never mutates it.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusApproved   Status = "approved"
	StatusDeprecated Status = "deprecated"
)

// Risk is the informational risk classification carried by a skill.
type Risk string

const (
	RiskLow      Risk = "low"
	RiskMedium   Risk = "medium"
	RiskHigh     Risk = "high"
	RiskCritical Risk = "critical"
)

// Classification is the severity tier of a control point.
type Classification string

const (
	// ClassificationAuto passes without human involvement; the firing is logged.
	ClassificationAuto Classification = "auto"

	// ClassificationNotify passes but emits a notification to WhoReviews.
	ClassificationNotify Classification = "notify"

	// ClassificationReview blocks until a reviewer clears it.
	ClassificationReview Classification = "review"

	// ClassificationNeedsApproval blocks until explicit sign-off is received.
	ClassificationNeedsApproval Classification = "needs_approval"

	// ClassificationVetoed halts the entire run unconditionally. Terminal.
	ClassificationVetoed Classification = "vetoed"
)

// Activation determines when a control point can fire.
type Activation string

const (
	// ActivationConditional points fire whenever their trigger condition is
	// detected, at any workflow step.
	ActivationConditional Activation = "conditional"

	// ActivationStep points fire only when referenced by a workflow step.
	ActivationStep Activation = "step"
)

// WildcardAgent in authorised_agents permits any requesting agent identity.
// Discouraged outside test environments; validation warns on it.
const WildcardAgent = "*"

// Document is the root of a parsed skill definition: the unit of
// governance describing what an agent may do, the control points it must
// honour, and the ordered workflow it must follow. All downstream
// components (registry, access gate, renderer, workflow runner) operate
// only on this typed form; parsing is the single fallible boundary.
type Document struct {
	Metadata           Metadata       `yaml:"metadata" json:"metadata"`
	Context            Context        `yaml:"context" json:"context"`
	ApprovedActivities []Activity     `yaml:"approved_activities" json:"approved_activities"`
	Constraints        Constraints    `yaml:"constraints" json:"constraints"`
	ControlPoints      []ControlPoint `yaml:"control_points" json:"control_points"`
	Workflow           Workflow       `yaml:"workflow" json:"workflow"`

	// Source tracking (set by the loader, never serialized)
	SourceFile string `yaml:"-" json:"-"`
	SourceDir  string `yaml:"-" json:"-"`
}

// Metadata identifies a skill and carries its lifecycle state.
type Metadata struct {
	SchemaVersion    string     `yaml:"schema_version" json:"schema_version"`
	ID               string     `yaml:"id" json:"id"` // <business_area>/<slug>, immutable once approved
	Name             string     `yaml:"name" json:"name"`
	Version          string     `yaml:"version" json:"version"`
	Status           Status     `yaml:"status" json:"status"`
	BusinessArea     string     `yaml:"business_area" json:"business_area"`
	AuthorisedAgents []string   `yaml:"authorised_agents" json:"authorised_agents"`
	Supervisor       Supervisor `yaml:"supervisor" json:"supervisor"`
	CreatedAt        string     `yaml:"created_at" json:"created_at,omitempty"`
	ApprovedAt       string     `yaml:"approved_at" json:"approved_at,omitempty"`
	ApprovedBy       string     `yaml:"approved_by" json:"approved_by,omitempty"`
}

// Supervisor is the human who authored and owns the skill.
type Supervisor struct {
	Name string `yaml:"name" json:"name"`
	Role string `yaml:"role" json:"role"`
}

// Context carries the business framing of a skill.
type Context struct {
	Description           string   `yaml:"description" json:"description"`
	RiskClassification    Risk     `yaml:"risk_classification" json:"risk_classification"`
	BusinessRationale     string   `yaml:"business_rationale" json:"business_rationale,omitempty"`
	ApplicableRegulations []string `yaml:"applicable_regulations" json:"applicable_regulations,omitempty"`
}

// Activity is one entry in the exhaustive allowlist of permitted
// operations. Anything not listed is implicitly forbidden.
type Activity struct {
	ID          string `yaml:"id" json:"id"`
	Description string `yaml:"description" json:"description"`
}

// Constraints are behavioural rules not encoded elsewhere in the document.
type Constraints struct {
	ProceduralRequirements []string `yaml:"procedural_requirements" json:"procedural_requirements,omitempty"`
	UnacceptableActions    []string `yaml:"unacceptable_actions" json:"unacceptable_actions,omitempty"`
}

// ControlPoint is a named moment requiring agent behaviour beyond "just
// proceed": automatic, advisory, human-gated, or an unconditional halt.
type ControlPoint struct {
	ID                string         `yaml:"id" json:"id"` // unique within the document
	Name              string         `yaml:"name" json:"name,omitempty"`
	Description       string         `yaml:"description" json:"description"`
	Classification    Classification `yaml:"classification" json:"classification"`
	Activation        Activation     `yaml:"activation" json:"activation"`
	Trigger           string         `yaml:"trigger" json:"trigger,omitempty"`                       // required iff activation is conditional
	WhoReviews        string         `yaml:"who_reviews" json:"who_reviews,omitempty"`               // required iff notify/review/needs_approval
	EscalationContact string         `yaml:"escalation_contact" json:"escalation_contact,omitempty"` // required iff vetoed
	SLAHours          int            `yaml:"sla_hours" json:"sla_hours,omitempty"`
}

// Workflow is the ordered execution plan.
type Workflow struct {
	Steps []WorkflowStep `yaml:"steps" json:"steps"`
}

// WorkflowStep references one approved activity and, optionally, a
// control point that gates it. Steps are authored once and immutable at
// runtime; the execution cursor lives with the external orchestrator.
type WorkflowStep struct {
	ID           string `yaml:"id" json:"id,omitempty"` // defaults to the activity id
	Activity     string `yaml:"activity" json:"activity"`
	ControlPoint string `yaml:"control_point" json:"control_point,omitempty"`
}

// EffectiveID returns the step's explicit id if present, else its activity id.
func (s WorkflowStep) EffectiveID() string {
	if s.ID != "" {
		return s.ID
	}
	return s.Activity
}

// ControlPoint returns the control point with the given id, or nil.
func (d *Document) ControlPoint(id string) *ControlPoint {
	for i := range d.ControlPoints {
		if d.ControlPoints[i].ID == id {
			return &d.ControlPoints[i]
		}
	}
	return nil
}

// ActivityByID returns the approved activity with the given id, or nil.
func (d *Document) ActivityByID(id string) *Activity {
	for i := range d.ApprovedActivities {
		if d.ApprovedActivities[i].ID == id {
			return &d.ApprovedActivities[i]
		}
	}
	return nil
}

// HasActivity reports whether id appears in the approved allowlist.
func (d *Document) HasActivity(id string) bool {
	return d.ActivityByID(id) != nil
}

// HasWildcardAgent reports whether the allowlist admits any agent identity.
func (d *Document) HasWildcardAgent() bool {
	for _, a := range d.Metadata.AuthorisedAgents {
		if a == WildcardAgent {
			return true
		}
	}
	return false
}

// AgentAuthorised reports whether agentID appears in authorised_agents
// or the wildcard is present. It does not consider document status;
// callers wanting the full gate use the access package.
func (d *Document) AgentAuthorised(agentID string) bool {
	for _, a := range d.Metadata.AuthorisedAgents {
		if a == WildcardAgent || a == agentID {
			return true
		}
	}
	return false
}

// VetoedControlPoints returns all vetoed-classification control points
// in document order.
func (d *Document) VetoedControlPoints() []ControlPoint {
	var out []ControlPoint
	for _, cp := range d.ControlPoints {
		if cp.Classification == ClassificationVetoed {
			out = append(out, cp)
		}
	}
	return out
}

// ConditionalControlPoints returns all conditional-activation control
// points in document order.
func (d *Document) ConditionalControlPoints() []ControlPoint {
	var out []ControlPoint
	for _, cp := range d.ControlPoints {
		if cp.Activation == ActivationConditional {
			out = append(out, cp)
		}
	}
	return out
}

// IsBlocking reports whether the classification halts execution until a
// human signal arrives.
func (c Classification) IsBlocking() bool {
	return c == ClassificationReview || c == ClassificationNeedsApproval
}

// RequiresReviewer reports whether the classification requires a
// who_reviews contact.
func (c Classification) RequiresReviewer() bool {
	switch c {
	case ClassificationNotify, ClassificationReview, ClassificationNeedsApproval:
		return true
	}
	return false
}
