// Package cli provides shared building blocks for the warden command
// line tool: typed command errors, the exit code protocol, and output
// formatting.
//
// Exit codes are part of the tool's contract with calling agents:
//
//	0  success (access granted, checkpoint passed, document valid)
//	1  failure (invalid document, denied access, command error)
//	2  vetoed control point fired; the caller must halt immediately
package cli
