package main

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// kworkHome returns the kwork state directory, honoring KWORK_HOME.
func kworkHome() string {
	if v := os.Getenv("KWORK_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kwork"
	}
	return filepath.Join(home, ".kwork")
}

// queueRoot returns the message queue directory, honoring KW_QUEUE_DIR.
func queueRoot() string {
	if v := os.Getenv("KW_QUEUE_DIR"); v != "" {
		return v
	}
	return filepath.Join(kworkHome(), "queues")
}

// statusRoot returns the status log directory, honoring KW_STATUS_DIR.
func statusRoot() string {
	if v := os.Getenv("KW_STATUS_DIR"); v != "" {
		return v
	}
	return filepath.Join(kworkHome(), "status")
}

// projectsRoot returns the projects directory: the config file's
// projects_dir when set, otherwise ~/Projects, falling back to ~/projects.
func projectsRoot() string {
	if dir := configuredProjectsDir(); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	upper := filepath.Join(home, "Projects")
	if info, err := os.Stat(upper); err == nil && info.IsDir() {
		return upper
	}
	return filepath.Join(home, "projects")
}

// configuredProjectsDir reads projects_dir from config.toml, best effort.
func configuredProjectsDir() string {
	path := os.Getenv("KW_CONFIG_PATH")
	if path == "" {
		path = filepath.Join(kworkHome(), "config.toml")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var cfg struct {
		ProjectsDir string `toml:"projects_dir"`
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return ""
	}
	return cfg.ProjectsDir
}
