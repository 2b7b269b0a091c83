package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"kwork/pkg/address"
)

// Project is one directory under the projects root. Worktree repos keep a
// bare clone in .bare with one directory per checked-out worktree next to
// it; plain repos have no worktrees.
type Project struct {
	Name           string   `json:"name"`
	Dir            string   `json:"dir"`
	Worktrees      []string `json:"worktrees"`
	IsWorktreeRepo bool     `json:"isWorktreeRepo"`
}

// loadProjects scans the projects root. Missing root yields an empty list.
// The "dev" scratch directory is skipped.
func loadProjects(root string) ([]Project, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var projects []Project
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "dev" {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if info, err := os.Stat(filepath.Join(dir, ".bare")); err == nil && info.IsDir() {
			worktrees, err := listWorktrees(dir)
			if err != nil {
				return nil, err
			}
			projects = append(projects, Project{
				Name:           entry.Name(),
				Dir:            dir,
				Worktrees:      worktrees,
				IsWorktreeRepo: true,
			})
			continue
		}
		projects = append(projects, Project{Name: entry.Name(), Dir: dir})
	}
	return projects, nil
}

// listWorktrees returns the sorted worktree directory names of a bare repo.
func listWorktrees(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var worktrees []string
	for _, entry := range entries {
		if entry.IsDir() && entry.Name() != ".bare" {
			worktrees = append(worktrees, entry.Name())
		}
	}
	sort.Strings(worktrees)
	return worktrees, nil
}

// pmAddress is the address of a project's coordinating session: the main
// worktree for worktree repos, the project root otherwise.
func pmAddress(p Project) (address.Address, error) {
	if p.IsWorktreeRepo {
		return address.New(p.Name, "main", "")
	}
	return address.New(p.Name, "", "")
}

// worktreeAddress is the address of a worktree's implementing session.
func worktreeAddress(p Project, worktree string) (address.Address, error) {
	return address.New(p.Name, worktree, "pi")
}

// workingDir returns the filesystem directory an address's session runs in.
// Sub-sessions share their worktree's directory.
func workingDir(root string, addr address.Address) string {
	dir := filepath.Join(root, addr.Project)
	if addr.Worktree != "" {
		dir = filepath.Join(dir, addr.Worktree)
	}
	return dir
}

// normalizeMessage collapses a multi-line prompt entry to a single line the
// agent's input box accepts.
func normalizeMessage(message string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(message), " "))
}
