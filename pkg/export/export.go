// Package export converts skill documents into formats consumed by
// external guardrail and policy systems. Each adapter returns a set of
// named files; writing them to disk is the caller's concern.
package export

import (
	"fmt"
	"path"
	"sort"

	"agentgov/warden/pkg/skill/document"
)

// Adapter converts one document into a set of output files, keyed by
// relative file name. Adapters are deterministic: the same document
// always yields the same bytes.
type Adapter interface {
	// Name is the format identifier used on the command line.
	Name() string

	// Export produces the output files for doc.
	Export(doc *document.Document) (map[string]string, error)
}

// ForFormat returns the adapter registered under name.
func ForFormat(name string) (Adapter, error) {
	switch name {
	case "json":
		return &JSONAdapter{}, nil
	case "guardrails":
		return &GuardrailsAdapter{}, nil
	}
	return nil, fmt.Errorf("unknown export format %q (supported: %v)", name, Formats())
}

// Formats lists the registered adapter names, sorted.
func Formats() []string {
	out := []string{"json", "guardrails"}
	sort.Strings(out)
	return out
}

// slug returns the skill id's final path segment, used for file names.
func slug(doc *document.Document) string {
	return path.Base(doc.Metadata.ID)
}
