package access

import (
	"testing"

	"agentgov/warden/pkg/skill/document"
)

func gateDoc(status document.Status, agents ...string) *document.Document {
	return &document.Document{
		Metadata: document.Metadata{
			ID:               "payments/invoice-processing",
			Status:           status,
			AuthorisedAgents: agents,
		},
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		doc     *document.Document
		agentID string
		wantErr any // nil, *NotApprovedError, or *NotAuthorisedError
	}{
		{
			name:    "approved and listed",
			doc:     gateDoc(document.StatusApproved, "invoice-bot"),
			agentID: "invoice-bot",
		},
		{
			name:    "approved with wildcard",
			doc:     gateDoc(document.StatusApproved, "*"),
			agentID: "any-bot",
		},
		{
			name:    "approved but unlisted",
			doc:     gateDoc(document.StatusApproved, "invoice-bot"),
			agentID: "other-bot",
			wantErr: &NotAuthorisedError{},
		},
		{
			name:    "draft denied for listed agent",
			doc:     gateDoc(document.StatusDraft, "invoice-bot"),
			agentID: "invoice-bot",
			wantErr: &NotApprovedError{},
		},
		{
			// Status dominates the allowlist: a wildcard on a draft
			// must read as not approved, not as authorised.
			name:    "draft with wildcard is still not approved",
			doc:     gateDoc(document.StatusDraft, "*"),
			agentID: "any-bot",
			wantErr: &NotApprovedError{},
		},
		{
			name:    "deprecated denied",
			doc:     gateDoc(document.StatusDeprecated, "invoice-bot"),
			agentID: "invoice-bot",
			wantErr: &NotApprovedError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.doc, tt.agentID)

			switch want := tt.wantErr.(type) {
			case nil:
				if err != nil {
					t.Errorf("Check() = %v, want nil", err)
				}
			case *NotApprovedError:
				if _, ok := err.(*NotApprovedError); !ok {
					t.Errorf("Check() = %T (%v), want *NotApprovedError", err, err)
				}
			case *NotAuthorisedError:
				if _, ok := err.(*NotAuthorisedError); !ok {
					t.Errorf("Check() = %T (%v), want *NotAuthorisedError", err, err)
				}
			default:
				t.Fatalf("bad test case: %T", want)
			}
		})
	}
}

func TestDenial(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not approved", &NotApprovedError{SkillID: "x", Status: document.StatusDraft}, "not_approved"},
		{"not authorised", &NotAuthorisedError{AgentID: "a", SkillID: "x"}, "not_authorised"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Denial(tt.err); got != tt.want {
				t.Errorf("Denial() = %q, want %q", got, tt.want)
			}
		})
	}
}
