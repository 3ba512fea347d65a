package registry

import (
	"io/fs"
	"path/filepath"
	"sort"

	"agentgov/warden/pkg/skill"
	"agentgov/warden/pkg/skill/document"
	skillerrors "agentgov/warden/pkg/skill/errors"
	"agentgov/warden/pkg/skill/validator"
	"agentgov/warden/pkg/telemetry/logging"
)

// Loader discovers and parses skill documents under a directory tree.
type Loader struct {
	logger *logging.Logger
}

// NewLoader creates a Loader. A nil logger discards output.
func NewLoader(logger *logging.Logger) *Loader {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Loader{logger: logger}
}

// SkippedFile records a discovered file that failed to load.
type SkippedFile struct {
	Path string
	Err  error
}

// LoadResult is the outcome of a directory load.
type LoadResult struct {
	Documents []*document.Document
	Skipped   []SkippedFile
	Warnings  map[string][]skillerrors.Warning
}

// LoadDirectory walks root for skill.yml files and loads each one. A
// file that fails to parse or validate is recorded in Skipped and
// logged; it never aborts the walk. The returned error covers walk
// failures only (root missing, unreadable directories).
func (l *Loader) LoadDirectory(root string) (*LoadResult, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == validator.DocumentFileName {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, &RegistryError{Operation: "load", Message: "walking " + root, Cause: err}
	}
	sort.Strings(files)

	result := &LoadResult{Warnings: make(map[string][]skillerrors.Warning)}
	for _, path := range files {
		doc, warnings, err := skill.Load(path, skill.Options{})
		if err != nil {
			l.logger.Warn("skipping invalid skill document", "path", path, "error", err)
			result.Skipped = append(result.Skipped, SkippedFile{Path: path, Err: err})
			continue
		}
		if len(warnings) > 0 {
			result.Warnings[path] = warnings
			for _, w := range warnings {
				l.logger.Warn("skill document warning", "path", path, "warning", w.String())
			}
		}
		result.Documents = append(result.Documents, doc)
	}
	return result, nil
}
