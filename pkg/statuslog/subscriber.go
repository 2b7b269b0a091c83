package statuslog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrNoEntries means the log is empty or absent: nothing has completed yet.
var ErrNoEntries = errors.New("no status entries")

// ErrTimeout means the wait window elapsed before a new entry appeared. It
// is distinct from ErrNoEntries so callers can tell "nothing has happened"
// from "something happened before I started watching".
var ErrTimeout = errors.New("timed out waiting for status entry")

// pollInterval is the fallback tail interval when no fsnotify watcher is
// available (and the re-check cadence even when one is).
const pollInterval = 150 * time.Millisecond

// Subscriber tails one session's status log. It never touches the agent
// process; blocking works by watching the file grow, so the writer needs no
// awareness of subscribers and any number of them can tail concurrently.
type Subscriber struct {
	path string
}

// NewSubscriber returns a Subscriber for fsKey under the status root.
func NewSubscriber(root, fsKey string) *Subscriber {
	return &Subscriber{path: filepath.Join(root, fsKey+".jsonl")}
}

// NewSubscriberPath returns a Subscriber for an explicit log path.
func NewSubscriberPath(path string) *Subscriber {
	return &Subscriber{path: path}
}

// Last returns the most recent entry without blocking, or ErrNoEntries when
// the log is empty or absent.
func (s *Subscriber) Last() (Entry, error) {
	entries, _, err := s.read()
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, ErrNoEntries
	}
	return entries[len(entries)-1], nil
}

// Next blocks until an entry newer than the current end of the log is
// appended, or the timeout elapses (ErrTimeout). A zero timeout waits until
// the context is cancelled.
func (s *Subscriber) Next(ctx context.Context, timeout time.Duration) (Entry, error) {
	_, baseline, err := s.read()
	if err != nil {
		return Entry{}, err
	}
	return s.waitPast(ctx, baseline, timeout)
}

// LastOrNext returns the most recent entry when one exists and otherwise
// behaves as Next.
func (s *Subscriber) LastOrNext(ctx context.Context, timeout time.Duration) (Entry, error) {
	entries, baseline, err := s.read()
	if err != nil {
		return Entry{}, err
	}
	if len(entries) > 0 {
		return entries[len(entries)-1], nil
	}
	return s.waitPast(ctx, baseline, timeout)
}

// waitPast polls the log until it holds more than baseline entries. An
// fsnotify watcher on the log's directory shortens the wait when available;
// the ticker remains the source of truth so a missing watcher only costs
// latency, never correctness.
func (s *Subscriber) waitPast(ctx context.Context, baseline int, timeout time.Duration) (Entry, error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	wake := s.watch()
	if wake != nil {
		defer wake.Close()
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		entries, _, err := s.read()
		if err != nil {
			return Entry{}, err
		}
		if len(entries) > baseline {
			return entries[len(entries)-1], nil
		}

		select {
		case <-ctx.Done():
			return Entry{}, fmt.Errorf("wait for status entry: %w", ctx.Err())
		case <-deadline:
			return Entry{}, ErrTimeout
		case <-ticker.C:
		case <-wakeEvents(wake):
		case <-wakeErrors(wake):
			// Drained so the watcher goroutine never stalls; the ticker
			// keeps the tail correct either way.
		}
	}
}

// watch returns a directory watcher for the log, or nil when the directory
// does not exist or watcher creation fails (poll-only mode).
func (s *Subscriber) watch() *fsnotify.Watcher {
	dir := filepath.Dir(s.path)
	if _, err := os.Stat(dir); err != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil
	}
	return w
}

// wakeEvents adapts an optional watcher to a select-able channel; nil
// watchers yield a nil channel, which blocks forever in select.
func wakeEvents(w *fsnotify.Watcher) <-chan fsnotify.Event {
	if w == nil {
		return nil
	}
	return w.Events
}

// wakeErrors is the Errors-channel counterpart of wakeEvents.
func wakeErrors(w *fsnotify.Watcher) <-chan error {
	if w == nil {
		return nil
	}
	return w.Errors
}

// read parses the log, skipping lines that do not decode (a partially
// flushed append is retried on the next poll). The second result is the
// count of decoded entries, used as the Next baseline.
func (s *Subscriber) read() ([]Entry, int, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open status log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan status log: %w", err)
	}
	return entries, len(entries), nil
}
