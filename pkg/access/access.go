// Package access decides whether an agent may use a skill.
//
// The decision is a pure function of the document and the requesting
// identity. It performs no I/O, records nothing, and caches nothing;
// callers that want observability wrap it (see the registry package).
package access

import (
	"fmt"

	"agentgov/warden/pkg/skill/document"
)

// NotApprovedError means the skill exists but its lifecycle status
// forbids use by anyone.
type NotApprovedError struct {
	SkillID string
	Status  document.Status
}

func (e *NotApprovedError) Error() string {
	return fmt.Sprintf("skill %q is not approved for use (status: %s)", e.SkillID, e.Status)
}

// NotAuthorisedError means the skill is approved but the requesting
// agent is not on its allowlist.
type NotAuthorisedError struct {
	AgentID string
	SkillID string
}

func (e *NotAuthorisedError) Error() string {
	return fmt.Sprintf("agent %q is not authorised for skill %q", e.AgentID, e.SkillID)
}

// Check grants or denies agentID the use of doc.
//
// Status is evaluated before the allowlist: a draft or deprecated
// skill is denied with NotApprovedError even when its allowlist
// carries the wildcard. Only an approved document ever reaches the
// allowlist check.
func Check(doc *document.Document, agentID string) error {
	if doc.Metadata.Status != document.StatusApproved {
		return &NotApprovedError{SkillID: doc.Metadata.ID, Status: doc.Metadata.Status}
	}
	if !doc.AgentAuthorised(agentID) {
		return &NotAuthorisedError{AgentID: agentID, SkillID: doc.Metadata.ID}
	}
	return nil
}

// Denial maps a Check error to a short stable reason label. It returns
// "" for nil and "error" for unrecognised errors.
func Denial(err error) string {
	switch err.(type) {
	case nil:
		return ""
	case *NotApprovedError:
		return "not_approved"
	case *NotAuthorisedError:
		return "not_authorised"
	}
	return "error"
}
