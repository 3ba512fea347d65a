package registry

import "fmt"

// SkillNotFoundError means no loaded document carries the requested id.
type SkillNotFoundError struct {
	SkillID string
}

func (e *SkillNotFoundError) Error() string {
	return fmt.Sprintf("skill %q not found in registry", e.SkillID)
}

// RegistryError wraps failures of registry operations themselves
// (loading, replacing, watching) as opposed to lookup misses.
type RegistryError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *RegistryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("registry %s: %s: %v", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("registry %s: %s", e.Operation, e.Message)
}

func (e *RegistryError) Unwrap() error {
	return e.Cause
}
