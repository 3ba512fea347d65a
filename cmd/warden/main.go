// Warden is a governance engine for autonomous agent skills.
//
// It loads skill documents from a registry, validates them, gates
// agent access, renders instruction files, and enforces workflow
// control points at runtime.
//
// Usage:
//
//	# Validate a skill document
//	warden validate registry/payments/invoice-processing/skill.yml
//
//	# Validate an entire registry with warnings promoted to errors
//	warden validate --strict registry/
//
//	# List loaded skills
//	warden list --registry registry/
//
//	# Render the instruction file for a skill
//	warden render payments/invoice-processing
//
//	# Record a control point firing (exit code 2 means halt)
//	warden checkpoint --skill payments/invoice-processing \
//	  --session $SESSION --control-point sanctions-match --classification vetoed \
//	  --contact compliance@example.com
//
//	# Check a workflow step against the approved allowlist
//	warden activity check --skill registry/payments/invoice-processing/skill.yml \
//	  --step extract-invoice-data
package main

func main() {
	Execute()
}
