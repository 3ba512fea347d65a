// Package audit records governance events as an append-only JSONL
// trail: one JSON object per line, written with O_APPEND so entries
// from concurrent processes interleave without corruption.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry kinds.
const (
	KindAction     = "action"
	KindCheckpoint = "checkpoint"
	KindActivity   = "activity_check"
)

// Entry is one audit record. Fields not relevant to an entry's kind
// stay empty and are omitted from the encoded line.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	SkillID   string    `json:"skill_id"`
	SessionID string    `json:"session_id,omitempty"`
	AgentID   string    `json:"agent_id,omitempty"`

	// Action entries
	Action string `json:"action,omitempty"`

	// Checkpoint entries
	ControlPoint   string `json:"control_point,omitempty"`
	Classification string `json:"classification,omitempty"`
	Status         string `json:"status,omitempty"`
	Reviewer       string `json:"reviewer,omitempty"`
	SLAHours       int    `json:"sla_hours,omitempty"`
	Contact        string `json:"contact,omitempty"`

	// Activity check entries
	StepID  string `json:"step_id,omitempty"`
	Allowed *bool  `json:"allowed,omitempty"`

	Details map[string]any `json:"details,omitempty"`
}

// Writer appends entries to a single trail file, creating it and its
// parent directory on first write.
type Writer struct {
	mu   sync.Mutex
	path string

	// now is overridable for tests.
	now func() time.Time
}

// NewWriter creates a Writer for the trail at path.
func NewWriter(path string) *Writer {
	return &Writer{path: path, now: time.Now}
}

// Path returns the trail file location.
func (w *Writer) Path() string {
	return w.path
}

// Append writes one entry. A zero Timestamp is stamped with the
// current UTC time.
func (w *Writer) Append(e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = w.now().UTC()
	}
	if e.Kind == "" {
		return fmt.Errorf("audit entry has no kind")
	}

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding audit entry: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("creating audit directory: %w", err)
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit trail: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing audit entry: %w", err)
	}
	return nil
}

// LogAction records a free-form action performed under a skill.
func (w *Writer) LogAction(skillID, sessionID, agentID, action string) error {
	return w.Append(Entry{
		Kind:      KindAction,
		SkillID:   skillID,
		SessionID: sessionID,
		AgentID:   agentID,
		Action:    action,
	})
}

// LogCheckpoint records a control point firing and its resolution.
func (w *Writer) LogCheckpoint(e Entry) error {
	e.Kind = KindCheckpoint
	return w.Append(e)
}

// LogActivityCheck records an allowlist verdict for a workflow step.
func (w *Writer) LogActivityCheck(skillID, sessionID, stepID, activity string, allowed bool) error {
	return w.Append(Entry{
		Kind:      KindActivity,
		SkillID:   skillID,
		SessionID: sessionID,
		StepID:    stepID,
		Action:    activity,
		Allowed:   &allowed,
	})
}

// Read loads every entry in the trail at path. A missing file yields
// an empty slice; a malformed line fails the whole read, since a trail
// that cannot be parsed completely cannot be trusted partially.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit trail: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("audit trail %s line %d: %w", path, lineNo, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading audit trail: %w", err)
	}
	return entries, nil
}
