package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/janjanpower/text-alignment-tool/internal/state"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aligntool.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DatabasePath != "text_alignment.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.MaxHistory != state.DefaultMaxHistory {
		t.Errorf("MaxHistory = %d, want %d", cfg.MaxHistory, state.DefaultMaxHistory)
	}
	if cfg.CoalesceWindow.Std() != state.DefaultCoalesceWindow {
		t.Errorf("CoalesceWindow = %s, want %s", cfg.CoalesceWindow.Std(), state.DefaultCoalesceWindow)
	}
	if cfg.Username != "local" {
		t.Errorf("Username = %q", cfg.Username)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
database_path: /data/projects.db
max_history: 100
coalesce_window: 500ms
flush_retry_interval: 1s
username: editor
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DatabasePath != "/data/projects.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.MaxHistory != 100 {
		t.Errorf("MaxHistory = %d", cfg.MaxHistory)
	}
	if cfg.CoalesceWindow.Std() != 500*time.Millisecond {
		t.Errorf("CoalesceWindow = %s", cfg.CoalesceWindow.Std())
	}
	if cfg.FlushRetryInterval.Std() != time.Second {
		t.Errorf("FlushRetryInterval = %s", cfg.FlushRetryInterval.Std())
	}
	if cfg.Username != "editor" {
		t.Errorf("Username = %q", cfg.Username)
	}
}

func TestLoadPartialFileKeepsRemainingDefaults(t *testing.T) {
	path := writeConfig(t, "max_history: 10\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxHistory != 10 {
		t.Errorf("MaxHistory = %d", cfg.MaxHistory)
	}
	if cfg.DatabasePath != "text_alignment.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.CoalesceWindow.Std() != state.DefaultCoalesceWindow {
		t.Errorf("CoalesceWindow = %s", cfg.CoalesceWindow.Std())
	}
}

func TestLoadZeroWindowDisablesCoalescing(t *testing.T) {
	path := writeConfig(t, "coalesce_window: 0s\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.CoalesceWindow.Std() != 0 {
		t.Errorf("CoalesceWindow = %s, want 0", cfg.CoalesceWindow.Std())
	}
}

func TestLoadRejectsNegativeWindow(t *testing.T) {
	path := writeConfig(t, "coalesce_window: -2s\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for negative coalesce_window")
	}
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	path := writeConfig(t, "coalesce_window: soon\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed duration")
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := writeConfig(t, "max_history: [\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid yaml")
	}
}
