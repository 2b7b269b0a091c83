// Package queue implements the per-session message queue: a line-JSON file
// the controller appends to and the session's own consumer drains. Malformed
// lines are moved to a parallel dead-letter file and never retried.
package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Mode is the delivery urgency of a queued message.
type Mode string

// Delivery modes.
const (
	// ModeFollowUp queues the message behind the agent's current turn.
	ModeFollowUp Mode = "followUp"
	// ModeSteer interrupts the agent's current turn. Steer is the
	// cancellation primitive; the interruption itself is the agent
	// runtime's job.
	ModeSteer Mode = "steer"
)

// Entry is one queued message.
type Entry struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
	Mode    Mode   `json:"mode"`
}

// valid reports whether the entry can be delivered. Mode defaults to
// followUp when absent so hand-written lines stay deliverable.
func (e Entry) valid() bool {
	return e.Message != ""
}

// deadLetterSuffix is appended to the queue path to form the dead-letter
// file for the same session.
const deadLetterSuffix = ".dead-letter"

// Store is the queue file for one session, addressed by fs key.
type Store struct {
	path string
}

// NewStore returns the Store for fsKey under the given queue root.
func NewStore(root, fsKey string) *Store {
	return &Store{path: filepath.Join(root, fsKey+".jsonl")}
}

// Path returns the queue file path.
func (s *Store) Path() string { return s.path }

// DeadLetterPath returns the dead-letter file path for this session.
func (s *Store) DeadLetterPath() string { return s.path + deadLetterSuffix }

// Enqueue appends one serialized entry to the queue file, creating the file
// and its parent directory if absent. This is the only controller-side
// write path; the controller never reads or clears the queue. An entry
// without an id gets a generated one for event-log correlation.
func (s *Store) Enqueue(e Entry) error {
	if !e.valid() {
		return fmt.Errorf("queue entry needs a non-empty message")
	}
	if e.Mode == "" {
		e.Mode = ModeFollowUp
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal queue entry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create queue dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open queue file: %w", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append queue entry: %w", err)
	}
	return nil
}

// Deliverer is the agent's input channel. FollowUp queues the message
// behind the current turn; Steer redirects the turn in progress. A non-nil
// error means the runtime temporarily refused delivery and the entry is
// retried on the next drain cycle.
type Deliverer interface {
	FollowUp(message string) error
	Steer(message string) error
}

// DrainStats summarizes one drain cycle.
type DrainStats struct {
	Delivered  int
	Retried    int
	DeadLetter int
}

// Drain runs one consumption cycle: read the whole file, dead-letter
// malformed lines, hand valid entries to the deliverer in file order, and
// atomically narrow the file to the lines that failed handoff. The file is
// rewritten to empty rather than deleted so a concurrent append races into
// the next cycle instead of a missing file. Never truncate-then-read: the
// rewrite only ever narrows the file to a subset of what was read, so an
// append landing mid-drain is reprocessed next cycle rather than lost.
func (s *Store) Drain(d Deliverer) (DrainStats, error) {
	var stats DrainStats

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("read queue file: %w", err)
	}
	if len(data) == 0 {
		return stats, nil
	}

	var retry []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil || !e.valid() {
			if dlErr := s.deadLetter(line); dlErr != nil {
				// Keep the line rather than drop it silently.
				retry = append(retry, line)
				continue
			}
			stats.DeadLetter++
			continue
		}
		if err := s.deliver(d, e); err != nil {
			retry = append(retry, line)
			stats.Retried++
			continue
		}
		stats.Delivered++
	}

	if err := s.rewrite(retry); err != nil {
		return stats, fmt.Errorf("rewrite queue file: %w", err)
	}
	return stats, nil
}

func (s *Store) deliver(d Deliverer, e Entry) error {
	if e.Mode == ModeSteer {
		return d.Steer(e.Message)
	}
	return d.FollowUp(e.Message)
}

// deadLetter appends the raw offending line verbatim. Dead-lettered lines
// are never replayed; they exist only for inspection.
func (s *Store) deadLetter(line string) error {
	f, err := os.OpenFile(s.DeadLetterPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open dead-letter file: %w", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("append dead-letter line: %w", err)
	}
	return nil
}

// rewrite atomically replaces the queue file with the retry lines in their
// original order (empty content when there are none).
func (s *Store) rewrite(lines []string) error {
	var content string
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".queue-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace queue file: %w", err)
	}
	return nil
}
