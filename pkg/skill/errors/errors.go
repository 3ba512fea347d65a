package errors

import (
	"fmt"
	"sort"
	"strings"
)

// Violation is a single structural schema violation, tagged with the
// path of the offending field (e.g. "metadata.status").
type Violation struct {
	FieldPath string
	Message   string
}

// String formats the violation in "[path] message" form.
func (v Violation) String() string {
	path := v.FieldPath
	if path == "" {
		path = "root"
	}
	return fmt.Sprintf("[%s] %s", path, v.Message)
}

// ValidationError is raised when a skill document fails structural
// validation, or when strict mode promotes consistency warnings.
// It always carries every violation found, never just the first, so
// authors can fix a document in one pass.
type ValidationError struct {
	// Path is the source file that failed validation (may be empty for
	// in-memory documents).
	Path string

	// Violations holds all detected violations, sorted by field path.
	Violations []Violation
}

// NewValidationError creates a ValidationError with violations sorted by
// field path for deterministic output.
func NewValidationError(path string, violations []Violation) *ValidationError {
	sorted := make([]Violation, len(violations))
	copy(sorted, violations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FieldPath < sorted[j].FieldPath
	})
	return &ValidationError{Path: path, Violations: sorted}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	summary := strings.Join(msgs, "; ")
	if e.Path == "" {
		return summary
	}
	return fmt.Sprintf("%s: %s", e.Path, summary)
}

// Messages returns the formatted violation strings in sorted order.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return msgs
}

// Warning is a non-fatal consistency finding: the document is loadable
// but internally inconsistent or risky in a way the author should fix.
// Strict validation promotes warnings to a ValidationError.
type Warning struct {
	// Path is the source file the warning applies to (may be empty).
	Path string

	// Message describes the inconsistency.
	Message string
}

// String formats the warning for display.
func (w Warning) String() string {
	if w.Path == "" {
		return fmt.Sprintf("WARNING: %s", w.Message)
	}
	return fmt.Sprintf("WARNING %s: %s", w.Path, w.Message)
}

// Promote converts a set of warnings into a fatal ValidationError.
// Used by strict mode.
func Promote(path string, warnings []Warning) *ValidationError {
	violations := make([]Violation, len(warnings))
	for i, w := range warnings {
		violations[i] = Violation{Message: w.Message}
	}
	return &ValidationError{Path: path, Violations: violations}
}

// ParseError is raised when a skill file cannot be read or is not
// syntactically valid YAML.
type ParseError struct {
	Path    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error in %q: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error in %q: %s", e.Path, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}
