package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePaths_Defaults(t *testing.T) {
	// Clear all env overrides.
	t.Setenv("KWORK_HOME", "")
	t.Setenv("KW_QUEUE_DIR", "")
	t.Setenv("KW_STATUS_DIR", "")
	t.Setenv("KW_EVENTS_DB", "")
	t.Setenv("KW_CONFIG_PATH", "")

	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("get home dir: %v", err)
	}

	paths, err := ResolvePaths()
	if err != nil {
		t.Fatalf("ResolvePaths() error: %v", err)
	}

	expectedBase := filepath.Join(home, ".kwork")

	if paths.KworkHome != expectedBase {
		t.Errorf("KworkHome = %q, want %q", paths.KworkHome, expectedBase)
	}
	if paths.QueueRoot != filepath.Join(expectedBase, "queues") {
		t.Errorf("QueueRoot = %q, want %q", paths.QueueRoot, filepath.Join(expectedBase, "queues"))
	}
	if paths.StatusRoot != filepath.Join(expectedBase, "status") {
		t.Errorf("StatusRoot = %q, want %q", paths.StatusRoot, filepath.Join(expectedBase, "status"))
	}
	if paths.MetaRoot != filepath.Join(expectedBase, "meta") {
		t.Errorf("MetaRoot = %q, want %q", paths.MetaRoot, filepath.Join(expectedBase, "meta"))
	}
	if paths.EventDBPath != filepath.Join(expectedBase, "events.db") {
		t.Errorf("EventDBPath = %q, want %q", paths.EventDBPath, filepath.Join(expectedBase, "events.db"))
	}
	if paths.ConfigPath != filepath.Join(expectedBase, "config.toml") {
		t.Errorf("ConfigPath = %q, want %q", paths.ConfigPath, filepath.Join(expectedBase, "config.toml"))
	}
}

func TestResolvePaths_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()

	t.Setenv("KWORK_HOME", filepath.Join(tmpDir, "custom-kwork"))
	t.Setenv("KW_QUEUE_DIR", filepath.Join(tmpDir, "q"))
	t.Setenv("KW_STATUS_DIR", filepath.Join(tmpDir, "s"))
	t.Setenv("KW_EVENTS_DB", filepath.Join(tmpDir, "custom-events.db"))
	t.Setenv("KW_CONFIG_PATH", filepath.Join(tmpDir, "custom.toml"))

	paths, err := ResolvePaths()
	if err != nil {
		t.Fatalf("ResolvePaths() error: %v", err)
	}

	if paths.KworkHome != filepath.Join(tmpDir, "custom-kwork") {
		t.Errorf("KworkHome = %q", paths.KworkHome)
	}
	if paths.QueueRoot != filepath.Join(tmpDir, "q") {
		t.Errorf("QueueRoot = %q", paths.QueueRoot)
	}
	if paths.StatusRoot != filepath.Join(tmpDir, "s") {
		t.Errorf("StatusRoot = %q", paths.StatusRoot)
	}
	if paths.EventDBPath != filepath.Join(tmpDir, "custom-events.db") {
		t.Errorf("EventDBPath = %q", paths.EventDBPath)
	}
	if paths.ConfigPath != filepath.Join(tmpDir, "custom.toml") {
		t.Errorf("ConfigPath = %q", paths.ConfigPath)
	}

	// MetaRoot respects KWORK_HOME when set.
	if paths.MetaRoot != filepath.Join(tmpDir, "custom-kwork", "meta") {
		t.Errorf("MetaRoot = %q", paths.MetaRoot)
	}
}

func TestResolvePaths_HomeOverrideOnly(t *testing.T) {
	tmpDir := t.TempDir()

	t.Setenv("KWORK_HOME", tmpDir)
	t.Setenv("KW_QUEUE_DIR", "")
	t.Setenv("KW_STATUS_DIR", "")
	t.Setenv("KW_EVENTS_DB", "")
	t.Setenv("KW_CONFIG_PATH", "")

	paths, err := ResolvePaths()
	if err != nil {
		t.Fatalf("ResolvePaths() error: %v", err)
	}

	if paths.QueueRoot != filepath.Join(tmpDir, "queues") {
		t.Errorf("QueueRoot = %q, want under KWORK_HOME", paths.QueueRoot)
	}
	if paths.StatusRoot != filepath.Join(tmpDir, "status") {
		t.Errorf("StatusRoot = %q, want under KWORK_HOME", paths.StatusRoot)
	}
	if paths.EventDBPath != filepath.Join(tmpDir, "events.db") {
		t.Errorf("EventDBPath = %q, want under KWORK_HOME", paths.EventDBPath)
	}
}
