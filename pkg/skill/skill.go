// Package skill is the facade over the skill document pipeline. It
// wires the parser (structural tier) and the validator (semantic tier)
// into single-call entry points used by the CLI, the registry loader,
// and the workflow runtime.
package skill

import (
	"agentgov/warden/pkg/skill/document"
	skillerrors "agentgov/warden/pkg/skill/errors"
	"agentgov/warden/pkg/skill/parser"
	"agentgov/warden/pkg/skill/validator"
)

// Options control a Load pass.
type Options struct {
	// Strict promotes every warning to a validation violation.
	Strict bool

	// CheckFreshness compares the sibling rendered instruction file
	// against a fresh render. Requires filesystem access next to the
	// source file, so the registry loader leaves it off.
	CheckFreshness bool
}

// Load parses and validates the document at path. On success it
// returns the typed document plus any non-fatal warnings. The error is
// a *errors.ParseError for unreadable or malformed input and a
// *errors.ValidationError for a document that parsed but is invalid.
func Load(path string, opts Options) (*document.Document, []skillerrors.Warning, error) {
	doc, err := parser.NewParser().Parse(path)
	if err != nil {
		return nil, nil, err
	}
	return validate(doc, path, opts)
}

// LoadBytes is Load for in-memory input. sourcePath is used only for
// error reporting and freshness resolution.
func LoadBytes(data []byte, sourcePath string, opts Options) (*document.Document, []skillerrors.Warning, error) {
	doc, err := parser.NewParser().ParseBytes(data, sourcePath)
	if err != nil {
		return nil, nil, err
	}
	return validate(doc, sourcePath, opts)
}

func validate(doc *document.Document, path string, opts Options) (*document.Document, []skillerrors.Warning, error) {
	v := validator.New()

	violations, warnings := v.Validate(doc)
	if len(violations) > 0 {
		return nil, warnings, skillerrors.NewValidationError(path, violations)
	}

	if opts.CheckFreshness {
		warnings = append(warnings, v.CheckFreshness(doc)...)
	}

	if opts.Strict && len(warnings) > 0 {
		return nil, warnings, skillerrors.Promote(path, warnings)
	}
	return doc, warnings, nil
}
