// Package address maps hierarchical session paths (project/worktree/subsession)
// to flat session identifiers and filesystem keys. The flat id names the tmux
// session hosting the agent; the fs key, derived from the session's working
// directory, names its queue and status files.
package address

import (
	"fmt"
	"os"
	"strings"
)

// Separator joins address components in a flat id and replaces path
// separators in an fs key. Components must not contain it.
const Separator = "+"

// InvalidComponentError reports an address component that contains the
// reserved separator or a path separator.
type InvalidComponentError struct {
	Component string
}

func (e *InvalidComponentError) Error() string {
	return fmt.Sprintf("invalid address component %q: must not contain %q or %q", e.Component, Separator, "/")
}

// Address identifies one agent session. Worktree and Subsession are
// optional; an empty Worktree addresses the project's root session and an
// empty Subsession addresses the default session for the worktree.
type Address struct {
	Project    string
	Worktree   string
	Subsession string
}

// New validates each component and returns the assembled Address. A
// subsession requires a worktree: FlatID drops empty components, so a
// positional gap would make the flat id ambiguous.
func New(project, worktree, subsession string) (Address, error) {
	if project == "" {
		return Address{}, fmt.Errorf("address needs a project component")
	}
	if subsession != "" && worktree == "" {
		return Address{}, fmt.Errorf("address %q needs a worktree component before the subsession", project+"//"+subsession)
	}
	for _, c := range []string{project, worktree, subsession} {
		if err := checkComponent(c); err != nil {
			return Address{}, err
		}
	}
	return Address{Project: project, Worktree: worktree, Subsession: subsession}, nil
}

// ParsePath parses a slash-separated session path like "demo/auth/pi".
// One component addresses a project, two a worktree, three a named
// sub-session.
func ParsePath(path string) (Address, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) > 3 {
		return Address{}, fmt.Errorf("session path %q has more than three components", path)
	}
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return New(parts[0], parts[1], parts[2])
}

// Path returns the slash-separated human form of the address.
func (a Address) Path() string {
	return strings.Join(a.components(), "/")
}

// FlatID joins the present components with the reserved separator. It is
// the tmux session name and the inverse of ParseFlatID.
func (a Address) FlatID() string {
	return strings.Join(a.components(), Separator)
}

// ParseFlatID decodes a flat id produced by FlatID. Valid only because
// components are rejected at construction time when they contain the
// separator; this is a documented constraint, not an escaping scheme.
func ParseFlatID(id string) (Address, error) {
	parts := strings.Split(id, Separator)
	if len(parts) > 3 {
		return Address{}, fmt.Errorf("flat id %q has more than three components", id)
	}
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return New(parts[0], parts[1], parts[2])
}

// String implements fmt.Stringer using the human path form.
func (a Address) String() string {
	return a.Path()
}

func (a Address) components() []string {
	parts := []string{a.Project}
	if a.Worktree != "" {
		parts = append(parts, a.Worktree)
	}
	if a.Subsession != "" {
		parts = append(parts, a.Subsession)
	}
	return parts
}

func checkComponent(c string) error {
	if strings.Contains(c, Separator) || strings.ContainsAny(c, `/\`) {
		return &InvalidComponentError{Component: c}
	}
	return nil
}

// FsKey derives the filesystem key for a session from its working
// directory: lowercase the path, replace each path separator with the
// reserved separator, strip a leading separator. Controller and agent both
// derive the key from the same directory, so they agree on queue and
// status file names without out-of-band coordination. Distinct typed
// addresses that resolve to the same working directory collide on purpose.
func FsKey(workingDir string) string {
	key := strings.ToLower(workingDir)
	key = strings.ReplaceAll(key, string(os.PathSeparator), Separator)
	if os.PathSeparator != '/' {
		key = strings.ReplaceAll(key, "/", Separator)
	}
	return strings.TrimPrefix(key, Separator)
}
