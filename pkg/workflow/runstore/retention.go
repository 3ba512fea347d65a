package runstore

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"agentgov/warden/pkg/telemetry/logging"
	"agentgov/warden/pkg/workflow"
)

// RetentionConfig configures the periodic pruning of terminal runs.
type RetentionConfig struct {
	// MaxAge is how long terminal runs are kept. Default: 30 days.
	MaxAge time.Duration

	// Schedule is a cron expression for the sweep. Default: daily at
	// 03:00.
	Schedule string
}

// DefaultRetentionConfig returns the default retention policy.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		MaxAge:   30 * 24 * time.Hour,
		Schedule: "0 3 * * *",
	}
}

// Sweeper prunes aged-out terminal runs on a cron schedule. Active
// runs (running, blocked) are never pruned regardless of age.
type Sweeper struct {
	store  workflow.RunStore
	cfg    *RetentionConfig
	cron   *cron.Cron
	logger *logging.Logger
}

// NewSweeper creates a Sweeper over store.
func NewSweeper(store workflow.RunStore, cfg *RetentionConfig, logger *logging.Logger) (*Sweeper, error) {
	if cfg == nil {
		cfg = DefaultRetentionConfig()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if cfg.MaxAge <= 0 {
		return nil, fmt.Errorf("retention max age must be positive, got %s", cfg.MaxAge)
	}

	s := &Sweeper{
		store:  store,
		cfg:    cfg,
		cron:   cron.New(),
		logger: logger,
	}

	if _, err := s.cron.AddFunc(cfg.Schedule, s.sweep); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

// Start begins the schedule. The first sweep runs at the next
// scheduled time, not immediately; call Sweep for an eager pass.
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("run retention sweeper started",
		"schedule", s.cfg.Schedule, "max_age", s.cfg.MaxAge.String())
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep prunes immediately and reports how many runs were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.cfg.MaxAge)
	return s.store.DeleteOlderThan(ctx, cutoff)
}

func (s *Sweeper) sweep() {
	removed, err := s.Sweep(context.Background())
	if err != nil {
		s.logger.Error("run retention sweep failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Info("run retention sweep completed", "removed", removed)
	}
}
