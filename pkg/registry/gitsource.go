package registry

import (
	"context"
	"errors"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"agentgov/warden/pkg/telemetry/logging"
)

// GitSource keeps a local checkout of a remote skill repository in
// sync. The checkout directory is then loaded like any local registry
// root, so git distribution composes with the watcher and loader
// unchanged.
type GitSource struct {
	// URL is the remote repository URL.
	URL string

	// Branch is the branch to track. Empty means the remote default.
	Branch string

	// Dir is the local checkout directory.
	Dir string

	Logger *logging.Logger
}

// Sync clones the repository on first use and fast-forwards the
// checkout on every subsequent call. An already-up-to-date pull is not
// an error.
func (s *GitSource) Sync(ctx context.Context) error {
	logger := s.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	if _, err := os.Stat(s.Dir); os.IsNotExist(err) {
		return s.clone(ctx, logger)
	}

	repo, err := git.PlainOpen(s.Dir)
	if err != nil {
		return &RegistryError{Operation: "git_sync", Message: "opening " + s.Dir, Cause: err}
	}

	wt, err := repo.Worktree()
	if err != nil {
		return &RegistryError{Operation: "git_sync", Message: "resolving worktree", Cause: err}
	}

	opts := &git.PullOptions{RemoteName: "origin"}
	if s.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(s.Branch)
	}

	err = wt.PullContext(ctx, opts)
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		logger.Debug("skill repository already up to date", "dir", s.Dir)
		return nil
	}
	if err != nil {
		return &RegistryError{Operation: "git_sync", Message: "pulling " + s.URL, Cause: err}
	}

	logger.Info("skill repository updated", "url", s.URL, "dir", s.Dir)
	return nil
}

func (s *GitSource) clone(ctx context.Context, logger *logging.Logger) error {
	opts := &git.CloneOptions{
		URL:          s.URL,
		SingleBranch: true,
	}
	if s.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(s.Branch)
	}

	if _, err := git.PlainCloneContext(ctx, s.Dir, false, opts); err != nil {
		return &RegistryError{Operation: "git_sync", Message: "cloning " + s.URL, Cause: err}
	}

	logger.Info("skill repository cloned", "url", s.URL, "dir", s.Dir)
	return nil
}
