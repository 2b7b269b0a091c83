package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the controller configuration read from config.toml.
type Config struct {
	// ProjectsDir is the root under which projects (and their worktrees)
	// live. Session working directories resolve beneath it.
	ProjectsDir string `toml:"projects_dir"`
	// AgentCommand is the program started inside a new session.
	AgentCommand string `toml:"agent_command"`
	// PollIntervalMS is the agent-side queue poll interval hint.
	PollIntervalMS int `toml:"poll_interval_ms"`
	// ReadyTimeoutSec bounds the wait for the agent prompt on start.
	ReadyTimeoutSec int `toml:"ready_timeout_sec"`
}

// DefaultConfig returns the built-in defaults, used when no config file
// exists and as the template `kw init` writes.
func DefaultConfig() Config {
	return Config{
		ProjectsDir:     defaultProjectsDir(),
		AgentCommand:    "claude",
		PollIntervalMS:  500,
		ReadyTimeoutSec: 60,
	}
}

// defaultProjectsDir prefers ~/Projects over ~/projects, matching the
// conventional layout the dashboard browses.
func defaultProjectsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "projects"
	}
	upper := filepath.Join(home, "Projects")
	if info, err := os.Stat(upper); err == nil && info.IsDir() {
		return upper
	}
	return filepath.Join(home, "projects")
}

// LoadConfig reads the config file at path, layering it over the defaults.
// A missing file yields the defaults without error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// WriteConfig serializes cfg to path, creating parent directories.
func WriteConfig(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
