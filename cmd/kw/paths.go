package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds all resolved kwork state file paths.
// Use ResolvePaths() to populate this struct with defaults + env overrides.
type Paths struct {
	KworkHome   string // ~/.kwork or KWORK_HOME
	QueueRoot   string // queues/ or KW_QUEUE_DIR
	StatusRoot  string // status/ or KW_STATUS_DIR
	MetaRoot    string // meta/ (respects KWORK_HOME)
	EventDBPath string // events.db or KW_EVENTS_DB
	ConfigPath  string // config.toml or KW_CONFIG_PATH
}

// ResolvePaths returns all kwork paths, respecting env var overrides.
// Environment variables:
//   - KWORK_HOME: base directory for all kwork state (default: ~/.kwork)
//   - KW_QUEUE_DIR: queue root (default: $KWORK_HOME/queues)
//   - KW_STATUS_DIR: status log root (default: $KWORK_HOME/status)
//   - KW_EVENTS_DB: lifecycle event database (default: $KWORK_HOME/events.db)
//   - KW_CONFIG_PATH: controller config (default: $KWORK_HOME/config.toml)
//
// If KWORK_HOME is set, it becomes the base for all default paths.
// Specific env vars override both the default and the KWORK_HOME base.
// The same scheme is read by the agent-side harness, so controller and
// agent agree on file locations without coordination.
func ResolvePaths() (*Paths, error) {
	home, err := resolveKworkHome()
	if err != nil {
		return nil, err
	}

	return &Paths{
		KworkHome:   home,
		QueueRoot:   resolvePathWithEnv("KW_QUEUE_DIR", home, "queues"),
		StatusRoot:  resolvePathWithEnv("KW_STATUS_DIR", home, "status"),
		MetaRoot:    filepath.Join(home, "meta"),
		EventDBPath: resolvePathWithEnv("KW_EVENTS_DB", home, "events.db"),
		ConfigPath:  resolvePathWithEnv("KW_CONFIG_PATH", home, "config.toml"),
	}, nil
}

// resolveKworkHome returns the kwork home directory from KWORK_HOME or ~/.kwork.
func resolveKworkHome() (string, error) {
	if v := os.Getenv("KWORK_HOME"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".kwork"), nil
}

// resolvePathWithEnv returns the path from envKey if set, otherwise joins base + suffix.
func resolvePathWithEnv(envKey, base, suffix string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return filepath.Join(base, suffix)
}
