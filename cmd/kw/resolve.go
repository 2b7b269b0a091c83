package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"kwork/pkg/address"
)

// sessionTarget bundles everything the controller derives from a typed
// session path: the parsed address, the session's working directory, and
// the fs key joining it to its queue/status/metadata files.
type sessionTarget struct {
	addr       address.Address
	workingDir string
	fsKey      string
}

// resolveTarget parses a session path and resolves its working directory
// under the projects root. Root and worktree sessions for the same
// directory share an fs key on purpose; the sub-session name changes the
// tmux session, not the files.
func resolveTarget(cfg Config, path string) (sessionTarget, error) {
	addr, err := address.ParsePath(path)
	if err != nil {
		return sessionTarget{}, err
	}
	dir := filepath.Join(cfg.ProjectsDir, addr.Project)
	if addr.Worktree != "" {
		dir = filepath.Join(dir, addr.Worktree)
	}
	return sessionTarget{
		addr:       addr,
		workingDir: dir,
		fsKey:      address.FsKey(dir),
	}, nil
}

// sessionDefaults are optional per-worktree settings read from
// .kwork.yaml in the session's working directory. They seed the agent's
// role environment on start.
type sessionDefaults struct {
	Role string `yaml:"role"`
	Tags string `yaml:"tags"`
	Note string `yaml:"note"`
}

// loadSessionDefaults reads .kwork.yaml from dir. A missing file yields
// zero defaults; a malformed one is an error so a typo does not silently
// start an untagged session.
func loadSessionDefaults(dir string) (sessionDefaults, error) {
	var d sessionDefaults
	data, err := os.ReadFile(filepath.Join(dir, ".kwork.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return d, fmt.Errorf("read session defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("parse session defaults: %w", err)
	}
	return d, nil
}
