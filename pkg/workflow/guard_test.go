package workflow

import (
	"context"
	"errors"
	"testing"

	"agentgov/warden/pkg/skill/document"
)

func guardDoc() *document.Document {
	return &document.Document{
		Metadata: document.Metadata{ID: "payments/invoice-processing"},
		ApprovedActivities: []document.Activity{
			{ID: "extract-data", Description: "Extract data"},
			{ID: "post-entry", Description: "Post the entry"},
		},
	}
}

func TestActivityGuard_Invoke(t *testing.T) {
	guard := NewActivityGuard(guardDoc())
	if err := guard.Register("extract-data", func(ctx context.Context, run *Run) (string, error) {
		return "extracted", nil
	}); err != nil {
		t.Fatal(err)
	}
	// Registered but not on the allowlist.
	if err := guard.Register("wire-funds", func(ctx context.Context, run *Run) (string, error) {
		return "wired", nil
	}); err != nil {
		t.Fatal(err)
	}

	run := &Run{ID: "r1", SkillID: "payments/invoice-processing"}

	t.Run("approved and registered", func(t *testing.T) {
		out, err := guard.Invoke(context.Background(), run, "step-1", "extract-data")
		if err != nil {
			t.Fatalf("Invoke() error = %v", err)
		}
		if out != "extracted" {
			t.Errorf("Invoke() output = %q", out)
		}
	})

	t.Run("unapproved is denied even with a handler", func(t *testing.T) {
		_, err := guard.Invoke(context.Background(), run, "step-2", "wire-funds")
		var denied *ActivityNotPermittedError
		if !errors.As(err, &denied) {
			t.Fatalf("Invoke() error = %T (%v), want *ActivityNotPermittedError", err, err)
		}
		if denied.Activity != "wire-funds" || denied.StepID != "step-2" {
			t.Errorf("denial = %+v", denied)
		}
	})

	t.Run("approved without a handler", func(t *testing.T) {
		_, err := guard.Invoke(context.Background(), run, "step-3", "post-entry")
		if err == nil {
			t.Fatal("Invoke() succeeded with no handler registered")
		}
		var denied *ActivityNotPermittedError
		if errors.As(err, &denied) {
			t.Error("missing handler reported as a governance denial")
		}
	})
}

func TestActivityGuard_Register(t *testing.T) {
	guard := NewActivityGuard(guardDoc())

	if err := guard.Register("extract-data", nil); err == nil {
		t.Error("Register() accepted a nil handler")
	}

	fn := func(ctx context.Context, run *Run) (string, error) { return "", nil }
	if err := guard.Register("extract-data", fn); err != nil {
		t.Fatal(err)
	}
	if err := guard.Register("extract-data", fn); err == nil {
		t.Error("Register() accepted a duplicate handler")
	}
}
