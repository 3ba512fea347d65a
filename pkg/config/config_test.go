package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Registry.Root != "registry" {
		t.Errorf("Registry.Root = %q", cfg.Registry.Root)
	}
	if cfg.RunStore.Backend != "sqlite" || cfg.RunStore.Path != "data/runs.db" {
		t.Errorf("RunStore = %+v", cfg.RunStore)
	}
	if cfg.RunStore.RetentionMaxAge != 30*24*time.Hour {
		t.Errorf("RetentionMaxAge = %s", cfg.RunStore.RetentionMaxAge)
	}
	if cfg.Audit.Path != "data/audit.jsonl" {
		t.Errorf("Audit.Path = %q", cfg.Audit.Path)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_FileLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warden.yml")
	content := `
registry:
  root: /srv/skills
  watch: true
  debounce: 2s
  git:
    url: https://git.example.com/skills.git
    branch: main
run_store:
  backend: memory
logging:
  level: debug
  format: text
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Registry.Root != "/srv/skills" || !cfg.Registry.Watch {
		t.Errorf("Registry = %+v", cfg.Registry)
	}
	if cfg.Registry.Debounce != 2*time.Second {
		t.Errorf("Debounce = %s", cfg.Registry.Debounce)
	}
	if cfg.Registry.Git == nil || cfg.Registry.Git.URL != "https://git.example.com/skills.git" {
		t.Errorf("Git = %+v", cfg.Registry.Git)
	}
	if cfg.RunStore.Backend != "memory" {
		t.Errorf("Backend = %q", cfg.RunStore.Backend)
	}
	// Omitted sections keep their defaults.
	if cfg.Audit.Path != "data/audit.jsonl" {
		t.Errorf("Audit.Path = %q, want default", cfg.Audit.Path)
	}
	if cfg.RunStore.RetentionSchedule != "0 3 * * *" {
		t.Errorf("RetentionSchedule = %q, want default", cfg.RunStore.RetentionSchedule)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
			t.Error("Load() succeeded on a missing file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "warden.yml")
		if err := os.WriteFile(path, []byte("registry: [broken"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Error("Load() succeeded on malformed YAML")
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty registry root",
			mutate:  func(c *Config) { c.Registry.Root = "" },
			wantErr: "registry.root",
		},
		{
			name:    "negative debounce",
			mutate:  func(c *Config) { c.Registry.Debounce = -time.Second },
			wantErr: "debounce",
		},
		{
			name:    "git without url",
			mutate:  func(c *Config) { c.Registry.Git = &GitConfig{Branch: "main"} },
			wantErr: "git.url",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.RunStore.Backend = "postgres" },
			wantErr: "run_store.backend",
		},
		{
			name: "sqlite without path",
			mutate: func(c *Config) {
				c.RunStore.Backend = "sqlite"
				c.RunStore.Path = ""
			},
			wantErr: "run_store.path",
		},
		{
			name: "memory backend needs no path",
			mutate: func(c *Config) {
				c.RunStore.Backend = "memory"
				c.RunStore.Path = ""
			},
		},
		{
			name:    "empty audit path",
			mutate:  func(c *Config) { c.Audit.Path = "" },
			wantErr: "audit.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() accepted an invalid config")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
