// Package schema holds the published structural schema for skill
// documents and validates raw documents against it.
//
// The schema is embedded in the binary and compiled once per process;
// every load cycle reuses the compiled form. A document claiming an
// unsupported schema_version fails the enum check and is therefore a
// structural validation failure like any other.
package schema

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	skillerrors "agentgov/warden/pkg/skill/errors"
)

// Version is the schema version accepted by this build.
const Version = "2.0"

//go:embed skill.schema.json
var schemaJSON []byte

var (
	compileOnce sync.Once
	compiled    *gojsonschema.Schema
	compileErr  error
)

func load() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		loader := gojsonschema.NewBytesLoader(schemaJSON)
		compiled, compileErr = gojsonschema.NewSchema(loader)
		if compileErr != nil {
			compileErr = fmt.Errorf("failed to compile embedded skill schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// Validate checks a raw (already YAML-decoded) document against the
// structural schema. All violations are collected and returned together,
// sorted by field path; nil means the document is structurally valid.
func Validate(raw map[string]interface{}) []skillerrors.Violation {
	s, err := load()
	if err != nil {
		// A broken embedded schema is a programming error, not an
		// authoring error; surface it as a root violation so callers
		// still see it through the normal reporting path.
		return []skillerrors.Violation{{Message: err.Error()}}
	}

	result, err := s.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return []skillerrors.Violation{{Message: fmt.Sprintf("schema evaluation failed: %v", err)}}
	}

	if result.Valid() {
		return nil
	}

	violations := make([]skillerrors.Violation, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		path := re.Field()
		if path == "(root)" {
			path = ""
		}
		violations = append(violations, skillerrors.Violation{
			FieldPath: path,
			Message:   re.Description(),
		})
	}
	return violations
}
