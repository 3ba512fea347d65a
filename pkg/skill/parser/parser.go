package parser

import (
	"os"
	"path/filepath"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"agentgov/warden/pkg/skill/document"
	skillerrors "agentgov/warden/pkg/skill/errors"
	"agentgov/warden/pkg/skill/schema"
)

// Parser converts raw skill YAML into the typed document model. It is
// the only place a document crosses from untyped bytes to
// *document.Document; everything downstream operates on the typed form.
type Parser struct{}

// NewParser creates a new parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads and parses a skill file from the given path. Structural
// schema validation runs as part of parsing: a document that fails the
// published schema never becomes a typed Document.
func (p *Parser) Parse(path string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &skillerrors.ParseError{
			Path:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	if !utf8.Valid(data) {
		return nil, &skillerrors.ParseError{
			Path:    path,
			Message: "file contains invalid UTF-8 encoding",
		}
	}

	return p.ParseBytes(data, path)
}

// ParseBytes parses skill YAML from bytes. sourcePath is recorded on the
// returned document for error reporting and freshness checks; it may be
// empty for purely in-memory documents.
func (p *Parser) ParseBytes(data []byte, sourcePath string) (*document.Document, error) {
	// YAML syntax pass: decode into an untyped tree first so the
	// structural schema sees exactly what the author wrote.
	var top interface{}
	if err := yaml.Unmarshal(data, &top); err != nil {
		return nil, &skillerrors.ParseError{
			Path:    sourcePath,
			Message: "YAML syntax error",
			Cause:   err,
		}
	}

	raw, ok := top.(map[string]interface{})
	if !ok {
		return nil, &skillerrors.ParseError{
			Path:    sourcePath,
			Message: "top-level YAML must be a mapping",
		}
	}

	// Structural pass: every violation is collected, tagged with its
	// field path, and returned together.
	if violations := schema.Validate(raw); len(violations) > 0 {
		return nil, skillerrors.NewValidationError(sourcePath, violations)
	}

	// Typed decode. The schema already proved shape and enum
	// membership, so this cannot reject anything the schema accepted.
	var doc document.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &skillerrors.ParseError{
			Path:    sourcePath,
			Message: "failed to decode document",
			Cause:   err,
		}
	}

	doc.SourceFile = sourcePath
	if sourcePath != "" {
		doc.SourceDir = filepath.Dir(sourcePath)
	}
	return &doc, nil
}
