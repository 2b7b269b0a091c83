// Package eventlog records session lifecycle events (created, killed,
// message sent, wait served) in a small SQLite database so `kw logs` can
// answer "what happened to this session" without scraping files. Message
// bodies are deliberately not stored; the queue and status files remain the
// only place message text lives.
package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Event types recorded by the controller.
const (
	TypeSessionCreated = "session_created"
	TypeSessionKilled  = "session_killed"
	TypeMessageSent    = "message_sent"
	TypeWaitServed     = "wait_served"
	TypeMetadataSet    = "metadata_set"
)

// Event is a single lifecycle event.
type Event struct {
	ID        int64
	Type      string
	Session   string // flat session id
	FsKey     string
	Detail    string // small free-text detail (mode, tag count); never message bodies
	CreatedAt time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NOT NULL,
	session TEXT NOT NULL,
	fs_key TEXT NOT NULL DEFAULT '',
	detail TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%S','now'))
);
CREATE INDEX IF NOT EXISTS idx_events_session ON events(session);
`

// Log appends lifecycle events. It is best-effort from the caller's point
// of view: controller commands warn on Record failure rather than abort.
type Log struct {
	db *sql.DB
}

// Open creates or opens the event database at dbPath with WAL enabled.
func Open(dbPath string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create event db dir: %w", err)
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_journal_mode=WAL", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open event db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init event schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Close releases the database connection. Safe to call multiple times.
func (l *Log) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Record inserts one event.
func (l *Log) Record(ctx context.Context, typ, session, fsKey, detail string) error {
	_, err := l.db.ExecContext(ctx,
		"INSERT INTO events (type, session, fs_key, detail) VALUES (?, ?, ?, ?)",
		typ, session, fsKey, detail)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// QueryOpts specifies filter criteria for querying events.
type QueryOpts struct {
	// Session filters events to one flat session id.
	Session string

	// EventType filters to a specific event type.
	EventType string

	// After filters events created at or after this time.
	After *time.Time

	// Limit restricts the number of results (0 = no limit).
	Limit int
}

// Query retrieves events matching the filter, newest first. Returns an
// empty slice when nothing matches.
func (l *Log) Query(ctx context.Context, opts QueryOpts) ([]Event, error) {
	query, args := buildQuery(opts)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var createdAtStr string
		if err := rows.Scan(&e.ID, &e.Type, &e.Session, &e.FsKey, &e.Detail, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if createdAtStr != "" {
			parsed, err := time.Parse("2006-01-02 15:04:05", createdAtStr)
			if err != nil {
				parsed, err = time.Parse(time.RFC3339, createdAtStr)
				if err != nil {
					return nil, fmt.Errorf("parse created_at: %w", err)
				}
			}
			e.CreatedAt = parsed
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// buildQuery constructs the SQL query and arguments from QueryOpts.
func buildQuery(opts QueryOpts) (string, []any) {
	var conditions []string
	var args []any

	query := "SELECT id, type, session, fs_key, detail, created_at FROM events WHERE 1=1"

	if opts.Session != "" {
		conditions = append(conditions, "session = ?")
		args = append(args, opts.Session)
	}
	if opts.EventType != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, opts.EventType)
	}
	if opts.After != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, opts.After.Format("2006-01-02 15:04:05"))
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id DESC"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	return query, args
}
