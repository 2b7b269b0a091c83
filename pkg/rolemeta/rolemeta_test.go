package rolemeta

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "meta.json"))
}

func TestSetTagsAndRead(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetTags("arch, api;  infra,,"); err != nil {
		t.Fatalf("SetTags: %v", err)
	}
	r, err := s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []string{"arch", "api", "infra"}
	if !reflect.DeepEqual(r.Tags, want) {
		t.Errorf("Tags = %v, want %v", r.Tags, want)
	}
	if r.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
}

func TestSetDescription(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetDescription("owns contracts"); err != nil {
		t.Fatalf("SetDescription: %v", err)
	}
	r, err := s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if r.Description != "owns contracts" {
		t.Errorf("Description = %q, want %q", r.Description, "owns contracts")
	}
}

func TestMerge_PreservesUnknownFields(t *testing.T) {
	s := newTestStore(t)
	seed := `{"description":"old","owner":"alice","pinned":true}`
	if err := os.WriteFile(s.Path(), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.SetTags("one,two"); err != nil {
		t.Fatalf("SetTags: %v", err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatalf("unmarshal merged file: %v", err)
	}
	if obj["owner"] != "alice" {
		t.Errorf("owner = %v, want alice", obj["owner"])
	}
	if obj["pinned"] != true {
		t.Errorf("pinned = %v, want true", obj["pinned"])
	}
	if obj["description"] != "old" {
		t.Errorf("description = %v, want untouched old value", obj["description"])
	}
}

func TestRead_MissingFile(t *testing.T) {
	s := newTestStore(t)
	r, err := s.Read()
	if err != nil {
		t.Fatalf("Read on missing file: %v", err)
	}
	if len(r.Tags) != 0 || r.Description != "" {
		t.Errorf("Read on missing file = %+v, want zero", r)
	}
}

func TestApply(t *testing.T) {
	s := newTestStore(t)
	tags := "arch,api"
	note := "owns contracts"
	if err := s.Apply(Update{Tags: &tags, Note: &note}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	r, err := s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(r.Tags, []string{"arch", "api"}) {
		t.Errorf("Tags = %v", r.Tags)
	}
	if r.Description != "owns contracts" {
		t.Errorf("Description = %q", r.Description)
	}
}

func TestApply_EmptyUpdateWritesNothing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Apply(Update{}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Error("empty update created the metadata file")
	}
}

func TestParseTagList(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{"a; b ;c", []string{"a", "b", "c"}},
		{" , ; ", []string{}},
		{"", []string{}},
		{"solo", []string{"solo"}},
	}
	for _, tt := range tests {
		if got := ParseTagList(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseTagList(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestScanDirectives(t *testing.T) {
	text := "Status: ok\n/kw-tags arch,api\n/kw-note owns contracts\n"
	u := ScanDirectives(text)
	if u.Tags == nil || *u.Tags != "arch,api" {
		t.Errorf("Tags = %v, want arch,api", u.Tags)
	}
	if u.Note == nil || *u.Note != "owns contracts" {
		t.Errorf("Note = %v, want owns contracts", u.Note)
	}
}

func TestScanDirectives_FirstMatchWins(t *testing.T) {
	u := ScanDirectives("/kw-note first\nprose\n/kw-note second")
	if u.Note == nil || *u.Note != "first" {
		t.Errorf("Note = %v, want first", u.Note)
	}
}

func TestScanDirectives_IgnoresNonDirectives(t *testing.T) {
	tests := []string{
		"plain prose about /kw-tags usage",
		"/kw-tagsarch",
		"/kw-tags",
		"",
	}
	for _, text := range tests {
		if u := ScanDirectives(text); !u.Empty() {
			t.Errorf("ScanDirectives(%q) = %+v, want empty", text, u)
		}
	}
}

func TestEndToEnd_DirectivesToFile(t *testing.T) {
	s := newTestStore(t)
	u := ScanDirectives("Status: ok\n/kw-tags arch,api\n/kw-note owns contracts")
	if err := s.Apply(u); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	r, err := s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(r.Tags, []string{"arch", "api"}) {
		t.Errorf("Tags = %v, want [arch api]", r.Tags)
	}
	if r.Description != "owns contracts" {
		t.Errorf("Description = %q, want %q", r.Description, "owns contracts")
	}
}
