// Package main implements the kw-dash interactive dashboard.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"kwork/pkg/address"
	"kwork/pkg/statuslog"
)

// sessionSnapshot is one session's line in the robot snapshot.
type sessionSnapshot struct {
	Session    string `json:"session"`
	WorkingDir string `json:"workingDir"`
	Status     string `json:"status,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
	Message    string `json:"message,omitempty"`
}

// robotSnapshot builds a machine-readable view of projects and their latest
// session status, for scripts and agents driving the dashboard headless.
func robotSnapshot(projectsDir, statusDir string) ([]byte, error) {
	projects, err := loadProjects(projectsDir)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}

	sessions := make([]sessionSnapshot, 0, len(projects))
	for _, r := range buildRows(projectsDir, projects) {
		snap := sessionSnapshot{Session: r.session(), WorkingDir: r.workdir}
		sub := statuslog.NewSubscriber(statusDir, address.FsKey(r.workdir))
		if entry, err := sub.Last(); err == nil {
			snap.Status = entry.Status
			snap.Timestamp = entry.Timestamp.Format(time.RFC3339)
			snap.Message = entry.Message
		}
		sessions = append(sessions, snap)
	}

	data, err := json.Marshal(map[string]any{
		"projects": projects,
		"sessions": sessions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

func main() {
	robot := false
	for _, arg := range os.Args[1:] {
		if arg == "--robot" {
			robot = true
		}
	}

	projectsDir := projectsRoot()
	statusDir := statusRoot()

	if robot || !isatty.IsTerminal(os.Stdout.Fd()) {
		data, err := robotSnapshot(projectsDir, statusDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "kw-dash: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	p := tea.NewProgram(newModel(projectsDir, queueRoot(), statusDir), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running dashboard: %v\n", err)
		os.Exit(1)
	}
}
