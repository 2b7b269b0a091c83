package rolemeta

import "strings"

// Directive prefixes recognized in an agent's final message text. The agent
// self-reports its focus by emitting these lines, so the controller never
// has to parse conversational prose.
const (
	tagsDirective = "/kw-tags"
	noteDirective = "/kw-note"
)

// Update carries the optional field changes extracted from one turn. A nil
// field means the turn did not mention it.
type Update struct {
	Tags *string
	Note *string
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.Tags == nil && u.Note == nil
}

// ScanDirectives extracts /kw-tags and /kw-note directives from message
// text. The first match per field wins; later duplicates in the same turn
// are ignored. Pure function, invoked once per turn on a bounded string.
func ScanDirectives(text string) Update {
	var u Update
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if payload, ok := directivePayload(line, tagsDirective); ok && u.Tags == nil {
			u.Tags = &payload
			continue
		}
		if payload, ok := directivePayload(line, noteDirective); ok && u.Note == nil {
			u.Note = &payload
		}
	}
	return u
}

// directivePayload returns the trimmed payload when line starts with the
// directive followed by whitespace.
func directivePayload(line, directive string) (string, bool) {
	if !strings.HasPrefix(line, directive) {
		return "", false
	}
	rest := line[len(directive):]
	if rest == "" {
		return "", false
	}
	if rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	return strings.TrimSpace(rest), true
}
