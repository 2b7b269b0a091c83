package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"kwork/pkg/address"
	"kwork/pkg/statuslog"
)

func testProjects() []Project {
	return []Project{
		{Name: "demo", Dir: "/p/demo", Worktrees: []string{"auth", "main"}, IsWorktreeRepo: true},
		{Name: "tools", Dir: "/p/tools"},
	}
}

func TestBuildRows(t *testing.T) {
	rows := buildRows("/p", testProjects())

	want := []struct {
		session string
		workdir string
	}{
		{"demo/main", "/p/demo/main"},
		{"demo/auth/pi", "/p/demo/auth"},
		{"demo/main/pi", "/p/demo/main"},
		{"tools", "/p/tools"},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i, w := range want {
		if rows[i].session() != w.session {
			t.Errorf("row %d session = %q, want %q", i, rows[i].session(), w.session)
		}
		if rows[i].workdir != w.workdir {
			t.Errorf("row %d workdir = %q, want %q", i, rows[i].workdir, w.workdir)
		}
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func loadedModel(t *testing.T) Model {
	t.Helper()
	m := newModel("/p", t.TempDir(), t.TempDir())
	nm, _ := m.Update(projectsMsg(testProjects()))
	return nm.(Model)
}

func TestNavigationClamps(t *testing.T) {
	m := loadedModel(t)

	nm, _ := m.Update(keyMsg("k"))
	m = nm.(Model)
	if m.cursor != 0 {
		t.Errorf("cursor after k at top = %d, want 0", m.cursor)
	}

	for i := 0; i < 10; i++ {
		nm, _ = m.Update(keyMsg("j"))
		m = nm.(Model)
	}
	if m.cursor != len(m.rows)-1 {
		t.Errorf("cursor after overrun = %d, want %d", m.cursor, len(m.rows)-1)
	}
}

func TestPromptSendEnqueuesFollowUp(t *testing.T) {
	m := loadedModel(t)

	nm, _ := m.Update(keyMsg("m"))
	m = nm.(Model)
	if m.inputMode != promptFollowUp {
		t.Fatalf("inputMode = %v, want promptFollowUp", m.inputMode)
	}

	m.input.SetValue("review the\nparser change")
	nm, cmd := m.Update(keyMsg("enter"))
	m = nm.(Model)
	if cmd == nil {
		t.Fatal("no send command returned")
	}

	msg, ok := cmd().(sentMsg)
	if !ok {
		t.Fatalf("command returned %T, want sentMsg", msg)
	}
	if msg.err != nil {
		t.Fatalf("send failed: %v", msg.err)
	}
	if msg.session != "demo/main" {
		t.Errorf("sent session = %q, want demo/main", msg.session)
	}

	data, err := os.ReadFile(filepath.Join(m.queueDir, address.FsKey("/p/demo/main")+".jsonl"))
	if err != nil {
		t.Fatalf("read queue file: %v", err)
	}
	line := strings.TrimSpace(string(data))
	if !strings.Contains(line, `"message":"review the parser change"`) {
		t.Errorf("queue line = %q, want normalized message", line)
	}
	if !strings.Contains(line, `"mode":"followUp"`) {
		t.Errorf("queue line = %q, want followUp mode", line)
	}
}

func TestPromptSteerMode(t *testing.T) {
	m := loadedModel(t)

	nm, _ := m.Update(keyMsg("s"))
	m = nm.(Model)
	if m.inputMode != promptSteer {
		t.Fatalf("inputMode = %v, want promptSteer", m.inputMode)
	}

	m.input.SetValue("stop and wait")
	nm, cmd := m.Update(keyMsg("enter"))
	m = nm.(Model)
	if msg := cmd().(sentMsg); msg.err != nil {
		t.Fatalf("send failed: %v", msg.err)
	}

	data, err := os.ReadFile(filepath.Join(m.queueDir, address.FsKey("/p/demo/main")+".jsonl"))
	if err != nil {
		t.Fatalf("read queue file: %v", err)
	}
	if !strings.Contains(string(data), `"mode":"steer"`) {
		t.Errorf("queue line = %q, want steer mode", strings.TrimSpace(string(data)))
	}
}

func TestPromptEscCancels(t *testing.T) {
	m := loadedModel(t)
	nm, _ := m.Update(keyMsg("m"))
	m = nm.(Model)
	nm, _ = m.Update(keyMsg("esc"))
	m = nm.(Model)
	if m.inputMode != promptNone {
		t.Errorf("inputMode after esc = %v, want promptNone", m.inputMode)
	}
}

func TestPromptEmptyMessageDropped(t *testing.T) {
	m := loadedModel(t)
	nm, _ := m.Update(keyMsg("m"))
	m = nm.(Model)
	m.input.SetValue("   \n  ")
	nm, cmd := m.Update(keyMsg("enter"))
	m = nm.(Model)
	if cmd != nil {
		t.Error("empty message produced a send command")
	}
	if m.notice != "empty message dropped" {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestCleanupNeedsWorktreeRow(t *testing.T) {
	m := loadedModel(t)
	// Cursor starts on the demo project header, not a worktree.
	nm, _ := m.Update(keyMsg("c"))
	m = nm.(Model)
	if m.confirming {
		t.Error("confirming on a project header row")
	}
	if m.notice != "select a worktree to clean up" {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestCleanupConfirmCancel(t *testing.T) {
	m := loadedModel(t)
	nm, _ := m.Update(keyMsg("j")) // move onto demo/auth/pi
	m = nm.(Model)

	nm, _ = m.Update(keyMsg("c"))
	m = nm.(Model)
	if !m.confirming {
		t.Fatal("c on worktree row did not ask for confirmation")
	}

	nm, _ = m.Update(keyMsg("n"))
	m = nm.(Model)
	if m.confirming {
		t.Error("still confirming after n")
	}
	if m.notice != "cleanup cancelled" {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestStatusPaneShowsLastEntry(t *testing.T) {
	m := loadedModel(t)

	fsKey := address.FsKey("/p/demo/main")
	w := statuslog.NewWriter(m.statusDir, fsKey, "")
	if err := w.Append(statuslog.Entry{Status: "done", Message: "merged auth fix"}); err != nil {
		t.Fatal(err)
	}

	msg := fetchStatusCmd(m.statusDir, "/p/demo/main")().(statusMsg)
	nm, _ := m.Update(msg)
	m = nm.(Model)

	view := m.View()
	if !strings.Contains(view, "merged auth fix") {
		t.Error("view missing last status message")
	}
	if !strings.Contains(view, "demo/main") {
		t.Error("view missing selected session path")
	}
}

func TestRobotSnapshot(t *testing.T) {
	projectsDir := t.TempDir()
	statusDir := t.TempDir()
	for _, d := range []string{".bare", "main"} {
		if err := os.MkdirAll(filepath.Join(projectsDir, "demo", d), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	workdir := filepath.Join(projectsDir, "demo", "main")
	w := statuslog.NewWriter(statusDir, address.FsKey(workdir), "")
	if err := w.Append(statuslog.Entry{Status: "done", Message: "shipped"}); err != nil {
		t.Fatal(err)
	}

	data, err := robotSnapshot(projectsDir, statusDir)
	if err != nil {
		t.Fatalf("robotSnapshot: %v", err)
	}

	var snap struct {
		Projects []Project         `json:"projects"`
		Sessions []sessionSnapshot `json:"sessions"`
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(snap.Projects) != 1 || snap.Projects[0].Name != "demo" {
		t.Fatalf("projects = %+v", snap.Projects)
	}

	var found bool
	for _, s := range snap.Sessions {
		if s.Session == "demo/main" {
			found = true
			if s.Status != "done" || s.Message != "shipped" {
				t.Errorf("session snapshot = %+v", s)
			}
		}
	}
	if !found {
		t.Error("demo/main session missing from snapshot")
	}
}
