// Package rolemeta maintains the advisory per-session metadata file: a tag
// set and a free-text description the agent (or the controller) updates as
// its focus shifts. Metadata is advisory, never authoritative — every write
// here is best-effort and the caller decides whether failures matter.
package rolemeta

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Role is the typed view of a session's metadata file.
type Role struct {
	Tags        []string  `json:"tags"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Store reads and writes one session's metadata file. The file is a single
// JSON object; fields this package does not know about are preserved
// verbatim across writes, so other tooling can annotate the same file.
type Store struct {
	path string
}

// NewStore returns a Store for the metadata file at path (supplied per
// session by the lifecycle manager).
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the metadata file path.
func (s *Store) Path() string { return s.path }

// Read returns the typed view of the metadata file. A missing file yields
// a zero Role without error (metadata is created implicitly on first
// update).
func (s *Store) Read() (Role, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Role{}, nil
		}
		return Role{}, fmt.Errorf("read metadata: %w", err)
	}
	var r Role
	if err := json.Unmarshal(data, &r); err != nil {
		return Role{}, fmt.Errorf("parse metadata: %w", err)
	}
	return r, nil
}

// SetTags replaces the stored tag set from a raw comma/semicolon-separated
// list.
func (s *Store) SetTags(raw string) error {
	tags := ParseTagList(raw)
	return s.merge(map[string]any{"tags": tags})
}

// SetDescription replaces the stored free-text description.
func (s *Store) SetDescription(text string) error {
	return s.merge(map[string]any{"description": text})
}

// Apply writes the non-nil fields of an Update in one read-modify-write.
func (s *Store) Apply(u Update) error {
	fields := map[string]any{}
	if u.Tags != nil {
		fields["tags"] = ParseTagList(*u.Tags)
	}
	if u.Note != nil {
		fields["description"] = *u.Note
	}
	if len(fields) == 0 {
		return nil
	}
	return s.merge(fields)
}

// merge reads the current object, shallow-merges the changed fields plus a
// fresh updatedAt, and writes the whole object back. Unknown fields survive
// because the object is held as raw JSON, not decoded into Role.
func (s *Store) merge(fields map[string]any) error {
	obj := map[string]json.RawMessage{}
	if data, err := os.ReadFile(s.path); err == nil && len(data) > 0 {
		if err := json.Unmarshal(data, &obj); err != nil {
			// Unreadable file: start over rather than fail the session.
			obj = map[string]json.RawMessage{}
		}
	}

	fields["updatedAt"] = time.Now().UTC()
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal metadata field %s: %w", k, err)
		}
		obj[k] = raw
	}

	out, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create metadata dir: %w", err)
	}
	if err := os.WriteFile(s.path, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// ParseTagList splits a raw tag list on commas and semicolons, trims each
// tag, and drops empties. The result replaces the stored set.
func ParseTagList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	tags := []string{}
	for _, f := range fields {
		if t := strings.TrimSpace(f); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
