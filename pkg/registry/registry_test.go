package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"agentgov/warden/pkg/access"
	"agentgov/warden/pkg/skill/document"
)

const docTemplate = `
metadata:
  schema_version: "2.0"
  id: %s
  name: %s
  version: "1.0.0"
  status: %s
  business_area: %s
  authorised_agents:
    - "%s"
  approved_at: "2026-01-10"
  approved_by: Dana Okafor
context:
  description: Test skill.
  risk_classification: low
approved_activities:
  - id: do-thing
    description: Do the thing
control_points:
  - id: spot-check
    description: Spot check
    classification: auto
    activation: step
workflow:
  steps:
    - activity: do-thing
      control_point: spot-check
`

func writeSkill(t *testing.T, root, id, status, agent string) string {
	t.Helper()
	area := filepath.Dir(id)
	name := filepath.Base(id)
	dir := filepath.Join(root, area, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "skill.yml")
	content := fmt.Sprintf(docTemplate, id, name, status, area, agent)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRegistry_Reload(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "payments/invoice-processing", "approved", "invoice-bot")
	writeSkill(t, root, "payments/refund-handling", "draft", "refund-bot")
	writeSkill(t, root, "hr/onboarding", "approved", "hr-bot")

	// One broken file must not block the rest of the set.
	badDir := filepath.Join(root, "payments", "broken")
	if err := os.MkdirAll(badDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(badDir, "skill.yml"), []byte("metadata: [not a mapping"), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := New()
	result, err := reg.Reload(root)
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if reg.Len() != 3 {
		t.Errorf("Len() = %d, want 3", reg.Len())
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("Skipped = %d entries, want 1", len(result.Skipped))
	}
	if !reg.Contains("payments/invoice-processing") {
		t.Error("invoice-processing missing after reload")
	}
	if reg.Version() == "" {
		t.Error("Version() empty after reload")
	}
}

func TestRegistry_Get(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "payments/invoice-processing", "approved", "invoice-bot")

	reg := New()
	if _, err := reg.Reload(root); err != nil {
		t.Fatal(err)
	}

	doc, err := reg.Get("payments/invoice-processing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.Metadata.ID != "payments/invoice-processing" {
		t.Errorf("Get() returned %q", doc.Metadata.ID)
	}

	_, err = reg.Get("payments/missing")
	var notFound *SkillNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("Get(missing) error = %T (%v), want *SkillNotFoundError", err, err)
	}
}

func TestRegistry_GetForAgent(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "payments/invoice-processing", "approved", "invoice-bot")
	writeSkill(t, root, "payments/refund-handling", "draft", "*")

	reg := New()
	if _, err := reg.Reload(root); err != nil {
		t.Fatal(err)
	}

	t.Run("granted", func(t *testing.T) {
		if _, err := reg.GetForAgent("payments/invoice-processing", "invoice-bot"); err != nil {
			t.Errorf("GetForAgent() error = %v", err)
		}
	})

	t.Run("unlisted agent", func(t *testing.T) {
		_, err := reg.GetForAgent("payments/invoice-processing", "rogue-bot")
		var denied *access.NotAuthorisedError
		if !errors.As(err, &denied) {
			t.Errorf("error = %T (%v), want *NotAuthorisedError", err, err)
		}
	})

	t.Run("draft with wildcard reads as not approved", func(t *testing.T) {
		_, err := reg.GetForAgent("payments/refund-handling", "any-bot")
		var notApproved *access.NotApprovedError
		if !errors.As(err, &notApproved) {
			t.Errorf("error = %T (%v), want *NotApprovedError", err, err)
		}
	})

	t.Run("unknown skill", func(t *testing.T) {
		_, err := reg.GetForAgent("payments/missing", "invoice-bot")
		var notFound *SkillNotFoundError
		if !errors.As(err, &notFound) {
			t.Errorf("error = %T (%v), want *SkillNotFoundError", err, err)
		}
	})
}

func TestRegistry_List(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "payments/invoice-processing", "approved", "invoice-bot")
	writeSkill(t, root, "payments/refund-handling", "draft", "refund-bot")
	writeSkill(t, root, "hr/onboarding", "approved", "hr-bot")

	reg := New()
	if _, err := reg.Reload(root); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{
			name:   "all sorted by id",
			filter: Filter{},
			want:   []string{"hr/onboarding", "payments/invoice-processing", "payments/refund-handling"},
		},
		{
			name:   "by business area",
			filter: Filter{BusinessArea: "payments"},
			want:   []string{"payments/invoice-processing", "payments/refund-handling"},
		},
		{
			name:   "by status",
			filter: Filter{Status: document.StatusApproved},
			want:   []string{"hr/onboarding", "payments/invoice-processing"},
		},
		{
			name:   "combined",
			filter: Filter{BusinessArea: "payments", Status: document.StatusDraft},
			want:   []string{"payments/refund-handling"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := reg.List(tt.filter)
			if len(docs) != len(tt.want) {
				t.Fatalf("List() = %d docs, want %d", len(docs), len(tt.want))
			}
			for i, want := range tt.want {
				if docs[i].Metadata.ID != want {
					t.Errorf("List()[%d] = %q, want %q", i, docs[i].Metadata.ID, want)
				}
			}
		})
	}
}

func TestRegistry_Replace_RejectsDuplicates(t *testing.T) {
	reg := New()
	doc1 := &document.Document{Metadata: document.Metadata{ID: "payments/x"}, SourceFile: "a/skill.yml"}
	doc2 := &document.Document{Metadata: document.Metadata{ID: "payments/x"}, SourceFile: "b/skill.yml"}

	if err := reg.Replace([]*document.Document{doc1}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	before := reg.Version()

	err := reg.Replace([]*document.Document{doc1, doc2})
	if err == nil {
		t.Fatal("Replace() accepted duplicate skill ids")
	}
	if reg.Len() != 1 || reg.Version() != before {
		t.Error("failed Replace() mutated the registry")
	}
}

func TestRegistry_VersionChangesOnReload(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "payments/invoice-processing", "approved", "invoice-bot")

	reg := New()
	if _, err := reg.Reload(root); err != nil {
		t.Fatal(err)
	}
	v1 := reg.Version()

	writeSkill(t, root, "payments/refund-handling", "approved", "refund-bot")
	if _, err := reg.Reload(root); err != nil {
		t.Fatal(err)
	}
	if reg.Version() == v1 {
		t.Error("Version() unchanged after the document set changed")
	}
}
