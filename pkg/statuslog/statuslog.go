// Package statuslog implements the per-session completion log: the agent
// appends one entry per finished turn, and any number of controller
// processes tail the file to wait for completions. The log is never
// consumed or rewritten, which is why it is a separate file from the
// destructively-drained message queue.
package statuslog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"
)

// MaxMessageLen caps the echoed assistant message in a status entry.
const MaxMessageLen = 2000

// Entry is one completion record.
type Entry struct {
	Timestamp    time.Time `json:"timestamp"`
	Status       string    `json:"status"`
	Role         string    `json:"role"`
	StopReason   string    `json:"stopReason,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	Truncated    bool      `json:"truncated"`
	Message      string    `json:"message"`
	Cwd          string    `json:"cwd"`
	SessionFile  string    `json:"sessionFile,omitempty"`
}

// Truncate caps s at MaxMessageLen bytes, reporting whether it cut. The
// cut backs up to a rune boundary so the capped message stays valid UTF-8.
func Truncate(s string) (string, bool) {
	if len(s) <= MaxMessageLen {
		return s, false
	}
	end := MaxMessageLen
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end], true
}

// Writer appends completion entries for one session.
type Writer struct {
	path string
}

// NewWriter returns a Writer for fsKey under the status root. An explicit
// override path (from the hosting process's environment) takes precedence
// when non-empty.
func NewWriter(root, fsKey, override string) *Writer {
	if override != "" {
		return &Writer{path: override}
	}
	return &Writer{path: filepath.Join(root, fsKey+".jsonl")}
}

// Path returns the status log path.
func (w *Writer) Path() string { return w.path }

// Append writes one entry line, creating the directory if absent. Existing
// lines are never touched; the single agent process owning this log is the
// only writer, so entries are strictly append-ordered.
func (w *Writer) Append(e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Status == "" {
		e.Status = "done"
	}
	if e.Role == "" {
		e.Role = "assistant"
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal status entry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create status dir: %w", err)
	}
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open status log: %w", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append status entry: %w", err)
	}
	return nil
}
