package document

import "testing"

func testDoc() *Document {
	return &Document{
		Metadata: Metadata{
			ID:               "payments/invoice-processing",
			Status:           StatusApproved,
			AuthorisedAgents: []string{"invoice-bot", "backup-bot"},
		},
		ApprovedActivities: []Activity{
			{ID: "extract-data", Description: "Extract invoice data"},
			{ID: "match-po", Description: "Match against purchase order"},
		},
		ControlPoints: []ControlPoint{
			{ID: "threshold", Classification: ClassificationNeedsApproval, Activation: ActivationStep},
			{ID: "sanctions", Classification: ClassificationVetoed, Activation: ActivationConditional, Trigger: "sanctions list match"},
			{ID: "fraud", Classification: ClassificationVetoed, Activation: ActivationConditional, Trigger: "fraud signals"},
		},
		Workflow: Workflow{Steps: []WorkflowStep{
			{Activity: "extract-data"},
			{ID: "po-check", Activity: "match-po", ControlPoint: "threshold"},
		}},
	}
}

func TestWorkflowStep_EffectiveID(t *testing.T) {
	tests := []struct {
		name string
		step WorkflowStep
		want string
	}{
		{"explicit id", WorkflowStep{ID: "po-check", Activity: "match-po"}, "po-check"},
		{"defaults to activity", WorkflowStep{Activity: "extract-data"}, "extract-data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.step.EffectiveID(); got != tt.want {
				t.Errorf("EffectiveID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDocument_AgentAuthorised(t *testing.T) {
	tests := []struct {
		name    string
		agents  []string
		agentID string
		want    bool
	}{
		{"listed agent", []string{"invoice-bot"}, "invoice-bot", true},
		{"unlisted agent", []string{"invoice-bot"}, "other-bot", false},
		{"wildcard admits anyone", []string{WildcardAgent}, "anything", true},
		{"empty list admits no one", nil, "invoice-bot", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := testDoc()
			doc.Metadata.AuthorisedAgents = tt.agents
			if got := doc.AgentAuthorised(tt.agentID); got != tt.want {
				t.Errorf("AgentAuthorised(%q) = %v, want %v", tt.agentID, got, tt.want)
			}
		})
	}
}

func TestDocument_Lookups(t *testing.T) {
	doc := testDoc()

	if cp := doc.ControlPoint("threshold"); cp == nil || cp.ID != "threshold" {
		t.Errorf("ControlPoint(threshold) = %v", cp)
	}
	if cp := doc.ControlPoint("missing"); cp != nil {
		t.Errorf("ControlPoint(missing) = %v, want nil", cp)
	}
	if !doc.HasActivity("extract-data") {
		t.Error("HasActivity(extract-data) = false")
	}
	if doc.HasActivity("delete-records") {
		t.Error("HasActivity(delete-records) = true")
	}

	vetoed := doc.VetoedControlPoints()
	if len(vetoed) != 2 || vetoed[0].ID != "sanctions" || vetoed[1].ID != "fraud" {
		t.Errorf("VetoedControlPoints() order/content wrong: %+v", vetoed)
	}

	conditional := doc.ConditionalControlPoints()
	if len(conditional) != 2 {
		t.Errorf("ConditionalControlPoints() = %d points, want 2", len(conditional))
	}
}

func TestClassification_Predicates(t *testing.T) {
	tests := []struct {
		c        Classification
		blocking bool
		reviewer bool
	}{
		{ClassificationAuto, false, false},
		{ClassificationNotify, false, true},
		{ClassificationReview, true, true},
		{ClassificationNeedsApproval, true, true},
		{ClassificationVetoed, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.c), func(t *testing.T) {
			if got := tt.c.IsBlocking(); got != tt.blocking {
				t.Errorf("IsBlocking() = %v, want %v", got, tt.blocking)
			}
			if got := tt.c.RequiresReviewer(); got != tt.reviewer {
				t.Errorf("RequiresReviewer() = %v, want %v", got, tt.reviewer)
			}
		})
	}
}
