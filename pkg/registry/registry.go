// Package registry holds the governed skill set in memory and serves
// lookups to the CLI and the workflow runtime.
//
// The registry is the only stateful piece of the read path. Documents
// are immutable once loaded; reloads build a complete new set off to
// the side and swap it in atomically, so readers always observe either
// the old set or the new one, never a mix.
package registry

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"

	"agentgov/warden/pkg/access"
	"agentgov/warden/pkg/skill/document"
	"agentgov/warden/pkg/telemetry/logging"
	"agentgov/warden/pkg/telemetry/metrics"
)

// Registry is a thread-safe in-memory store of validated skill documents,
// keyed by metadata.id.
type Registry struct {
	mu       sync.RWMutex
	docs     map[string]*document.Document
	version  string
	loadTime time.Time

	logger  *logging.Logger
	metrics *metrics.GovernanceMetrics
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry's logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithMetrics attaches governance metrics. Without it the registry
// records nothing.
func WithMetrics(gm *metrics.GovernanceMetrics) Option {
	return func(r *Registry) { r.metrics = gm }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		docs:     make(map[string]*document.Document),
		loadTime: time.Now(),
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get retrieves a document by skill id without any access gating.
// Administrative callers (list, show, render) use this path.
func (r *Registry) Get(skillID string) (*document.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[skillID]
	if !ok {
		return nil, &SkillNotFoundError{SkillID: skillID}
	}
	return doc, nil
}

// GetForAgent retrieves a document through the full access gate:
// existence, lifecycle status, then allowlist. The runtime path uses
// this exclusively.
func (r *Registry) GetForAgent(skillID, agentID string) (*document.Document, error) {
	doc, err := r.Get(skillID)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordAccess(false, "not_found")
		}
		return nil, err
	}

	if err := access.Check(doc, agentID); err != nil {
		if r.metrics != nil {
			r.metrics.RecordAccess(false, access.Denial(err))
		}
		r.logger.Warn("access denied",
			"skill_id", skillID,
			"agent_id", agentID,
			"reason", access.Denial(err))
		return nil, err
	}

	if r.metrics != nil {
		r.metrics.RecordAccess(true, "")
	}
	return doc, nil
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	BusinessArea string
	Status       document.Status
}

// List returns all documents matching the filter, sorted by skill id.
func (r *Registry) List(f Filter) []*document.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*document.Document, 0, len(r.docs))
	for _, doc := range r.docs {
		if f.BusinessArea != "" && doc.Metadata.BusinessArea != f.BusinessArea {
			continue
		}
		if f.Status != "" && doc.Metadata.Status != f.Status {
			continue
		}
		out = append(out, doc)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Metadata.ID < out[j].Metadata.ID
	})
	return out
}

// Contains reports whether a skill id is loaded.
func (r *Registry) Contains(skillID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.docs[skillID]
	return ok
}

// Len returns the number of loaded documents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.docs)
}

// Replace atomically swaps the entire document set. Duplicate skill
// ids across source files are a load-time defect and rejected whole,
// leaving the previous set in place.
func (r *Registry) Replace(docs []*document.Document) error {
	next := make(map[string]*document.Document, len(docs))
	for _, doc := range docs {
		if doc == nil {
			return &RegistryError{Operation: "replace", Message: "document cannot be nil"}
		}
		id := doc.Metadata.ID
		if id == "" {
			return &RegistryError{Operation: "replace", Message: "document has empty id"}
		}
		if prev, ok := next[id]; ok {
			return &RegistryError{
				Operation: "replace",
				Message: fmt.Sprintf("skill id %q defined in both %s and %s",
					id, prev.SourceFile, doc.SourceFile),
			}
		}
		next[id] = doc
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.docs = next
	r.loadTime = time.Now()
	r.version = computeVersion(next)
	return nil
}

// Reload loads root from disk and swaps the result in. Files that fail
// to parse or validate are skipped with a logged warning; they never
// block the rest of the set.
func (r *Registry) Reload(root string) (*LoadResult, error) {
	start := time.Now()

	result, err := NewLoader(r.logger).LoadDirectory(root)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordReload("failure", 0, time.Since(start))
		}
		return nil, err
	}

	if err := r.Replace(result.Documents); err != nil {
		if r.metrics != nil {
			r.metrics.RecordReload("failure", 0, time.Since(start))
		}
		return nil, err
	}

	if r.metrics != nil {
		r.metrics.RecordReload("success", len(result.Documents), time.Since(start))
	}
	r.logger.Info("registry reloaded",
		"root", root,
		"documents", len(result.Documents),
		"skipped", len(result.Skipped),
		"version", r.Version())
	return result, nil
}

// Version returns an opaque identifier for the current document set.
// It changes whenever the set changes.
func (r *Registry) Version() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.version
}

// LoadTime returns when the current set was installed.
func (r *Registry) LoadTime() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.loadTime
}

// computeVersion hashes ids, versions, and source paths in sorted
// order so the value is deterministic for a given set.
func computeVersion(docs map[string]*document.Document) string {
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	h := sha256.New()
	for _, id := range ids {
		doc := docs[id]
		h.Write([]byte(id))
		h.Write([]byte(doc.Metadata.Version))
		h.Write([]byte(doc.SourceFile))
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
