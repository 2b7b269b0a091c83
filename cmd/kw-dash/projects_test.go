package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProjects(t *testing.T) {
	root := t.TempDir()
	// Plain repo.
	if err := os.MkdirAll(filepath.Join(root, "tools"), 0o755); err != nil {
		t.Fatal(err)
	}
	// Worktree repo with a bare clone and two worktrees.
	for _, d := range []string{".bare", "main", "auth"} {
		if err := os.MkdirAll(filepath.Join(root, "demo", d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	// Skipped entries: the dev scratch dir and loose files.
	if err := os.MkdirAll(filepath.Join(root, "dev"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	projects, err := loadProjects(root)
	if err != nil {
		t.Fatalf("loadProjects: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("got %d projects, want 2: %+v", len(projects), projects)
	}

	demo := projects[0]
	if demo.Name != "demo" || !demo.IsWorktreeRepo {
		t.Errorf("demo = %+v, want worktree repo", demo)
	}
	if len(demo.Worktrees) != 2 || demo.Worktrees[0] != "auth" || demo.Worktrees[1] != "main" {
		t.Errorf("worktrees = %v, want sorted [auth main]", demo.Worktrees)
	}

	tools := projects[1]
	if tools.Name != "tools" || tools.IsWorktreeRepo || len(tools.Worktrees) != 0 {
		t.Errorf("tools = %+v, want plain repo", tools)
	}
}

func TestLoadProjects_MissingRoot(t *testing.T) {
	projects, err := loadProjects(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("loadProjects on missing root: %v", err)
	}
	if projects != nil {
		t.Errorf("projects = %v, want nil", projects)
	}
}

func TestPMAddress(t *testing.T) {
	wt, err := pmAddress(Project{Name: "demo", IsWorktreeRepo: true})
	if err != nil {
		t.Fatal(err)
	}
	if wt.FlatID() != "demo+main" {
		t.Errorf("worktree repo pm = %q, want demo+main", wt.FlatID())
	}

	plain, err := pmAddress(Project{Name: "tools"})
	if err != nil {
		t.Fatal(err)
	}
	if plain.FlatID() != "tools" {
		t.Errorf("plain repo pm = %q, want tools", plain.FlatID())
	}
}

func TestWorktreeAddress(t *testing.T) {
	addr, err := worktreeAddress(Project{Name: "demo"}, "auth")
	if err != nil {
		t.Fatal(err)
	}
	if addr.FlatID() != "demo+auth+pi" {
		t.Errorf("FlatID = %q, want demo+auth+pi", addr.FlatID())
	}
}

func TestNormalizeMessage(t *testing.T) {
	got := normalizeMessage("  fix the\nparser\n  and rerun  ")
	if got != "fix the parser and rerun" {
		t.Errorf("normalizeMessage = %q", got)
	}
}
