// Package config loads the engine's YAML configuration file and
// supplies defaults for everything it omits, so a missing file is a
// fully usable zero configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Registry RegistryConfig `yaml:"registry"`
	RunStore RunStoreConfig `yaml:"run_store"`
	Audit    AuditConfig    `yaml:"audit"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// RegistryConfig locates the skill documents and controls reloading.
type RegistryConfig struct {
	// Root is the directory walked for skill documents.
	Root string `yaml:"root"`

	// Watch enables reload-on-change for long-lived processes.
	Watch bool `yaml:"watch"`

	// Debounce is the quiet period before a watch-triggered reload.
	Debounce time.Duration `yaml:"debounce"`

	// Git, when set, syncs Root from a remote repository before loading.
	Git *GitConfig `yaml:"git,omitempty"`
}

// GitConfig describes a remote skill repository.
type GitConfig struct {
	URL    string `yaml:"url"`
	Branch string `yaml:"branch"`
}

// RunStoreConfig selects and configures run persistence.
type RunStoreConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// Path is the SQLite database file. Ignored for memory.
	Path string `yaml:"path"`

	// RetentionMaxAge is how long terminal runs are kept.
	RetentionMaxAge time.Duration `yaml:"retention_max_age"`

	// RetentionSchedule is the cron expression for the pruning sweep.
	RetentionSchedule string `yaml:"retention_schedule"`
}

// AuditConfig locates the audit trail.
type AuditConfig struct {
	// Path is the JSONL trail file.
	Path string `yaml:"path"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Registry: RegistryConfig{
			Root:     "registry",
			Debounce: 500 * time.Millisecond,
		},
		RunStore: RunStoreConfig{
			Backend:           "sqlite",
			Path:              "data/runs.db",
			RetentionMaxAge:   30 * 24 * time.Hour,
			RetentionSchedule: "0 3 * * *",
		},
		Audit: AuditConfig{
			Path: "data/audit.jsonl",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the configuration at path, layering it over Default. An
// empty path returns Default unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Registry.Root == "" {
		return fmt.Errorf("registry.root cannot be empty")
	}
	if c.Registry.Debounce < 0 {
		return fmt.Errorf("registry.debounce cannot be negative")
	}
	if c.Registry.Git != nil && c.Registry.Git.URL == "" {
		return fmt.Errorf("registry.git.url cannot be empty when git is configured")
	}

	switch c.RunStore.Backend {
	case "memory":
	case "sqlite":
		if c.RunStore.Path == "" {
			return fmt.Errorf("run_store.path cannot be empty for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown run_store.backend %q (supported: memory, sqlite)", c.RunStore.Backend)
	}

	if c.RunStore.RetentionMaxAge < 0 {
		return fmt.Errorf("run_store.retention_max_age cannot be negative")
	}
	if c.Audit.Path == "" {
		return fmt.Errorf("audit.path cannot be empty")
	}
	return nil
}
