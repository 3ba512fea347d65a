package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("registry reloaded", "documents", 3, "version", "abc123")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if record["msg"] != "registry reloaded" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["documents"] != float64(3) {
		t.Errorf("documents = %v", record["documents"])
	}
	if record["level"] != "INFO" {
		t.Errorf("level = %v", record["level"])
	}
}

func TestNew_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "debug", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug("access denied", "agent_id", "rogue-bot")
	out := buf.String()
	if !strings.Contains(out, "access denied") || !strings.Contains(out, "agent_id=rogue-bot") {
		t.Errorf("unexpected text output: %s", out)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("below threshold")
	logger.Warn("at threshold")

	out := buf.String()
	if strings.Contains(out, "below threshold") {
		t.Error("info record emitted at warn level")
	}
	if !strings.Contains(out, "at threshold") {
		t.Error("warn record missing")
	}
}

func TestNew_With(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "text", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.With("run_id", "r1").Info("step completed")
	if !strings.Contains(buf.String(), "run_id=r1") {
		t.Errorf("bound field missing: %s", buf.String())
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("New() accepted an unknown level")
	}
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("New() accepted an unknown format")
	}
}

func TestParseLevel(t *testing.T) {
	for _, ok := range []string{"", "debug", "DEBUG", "info", "warn", "warning", "error", "ERROR"} {
		if _, err := parseLevel(ok); err != nil {
			t.Errorf("parseLevel(%q) error = %v", ok, err)
		}
	}
	if _, err := parseLevel("trace"); err == nil {
		t.Error("parseLevel() accepted an unknown level")
	}
}

func TestNop(t *testing.T) {
	// Must be safe to use without any setup.
	Nop().Info("discarded")
	Nop().With("k", "v").Error("also discarded")
}
