// Package document defines the typed model for supervised skill
// definitions: the Document root type plus control points, workflow
// steps, and the approved-activity allowlist.
//
// The model is deliberately dumb data. Validation lives in the validator
// package, access decisions in the access package, and rendering in the
// render package; all of them borrow read-only references to a Document
// owned by the registry cache.
package document
