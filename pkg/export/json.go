package export

import (
	"encoding/json"
	"fmt"

	"agentgov/warden/pkg/skill/document"
)

// EnvelopeFormat tags the generic JSON export so consumers can detect
// incompatible future revisions.
const EnvelopeFormat = "supervisory-skill-v1"

// envelope wraps the document for interchange. No timestamp: exports
// are deterministic and diffable.
type envelope struct {
	Format string             `json:"format"`
	Skill  *document.Document `json:"skill"`
}

// JSONAdapter emits the document as a single versioned JSON file.
type JSONAdapter struct{}

// Name implements Adapter.
func (a *JSONAdapter) Name() string { return "json" }

// Export implements Adapter.
func (a *JSONAdapter) Export(doc *document.Document) (map[string]string, error) {
	data, err := json.MarshalIndent(envelope{Format: EnvelopeFormat, Skill: doc}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding skill %q: %w", doc.Metadata.ID, err)
	}
	return map[string]string{
		slug(doc) + ".json": string(data) + "\n",
	}, nil
}
