// Package host is the agent-side harness. It runs embedded in a long-lived
// interactive agent process and wires together the session's queue
// consumer, status-log writer, and role metadata store. Everything here is
// peripheral bookkeeping from the agent's point of view, so every operation
// degrades silently: a filesystem hiccup logs a warning and the agent's own
// turn loop never notices.
package host

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"kwork/pkg/queue"
	"kwork/pkg/rolemeta"
	"kwork/pkg/statuslog"
)

// Runtime is the agent's own input channel. FollowUp queues a message
// behind the current turn; Steer asks the runtime to interrupt it. A
// returned error means the runtime temporarily refused delivery and the
// message is retried on the next poll cycle.
type Runtime interface {
	FollowUp(message string) error
	Steer(message string) error
}

// Part is one piece of a message's content.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Message is one message of a completed turn.
type Message struct {
	Role    string `json:"role"`
	Content []Part `json:"content"`
}

// Text concatenates the message's text-typed parts.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Content {
		if p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// TextMessage builds a single-part text message, mostly for tests and
// embedding runtimes that deal in plain strings.
func TextMessage(role, text string) Message {
	return Message{Role: role, Content: []Part{{Type: "text", Text: text}}}
}

// Turn is what the embedding runtime reports at the end of each response
// turn.
type Turn struct {
	Messages    []Message
	StopReason  string
	Error       string
	SessionFile string
}

// Host owns the per-session coordination state inside one agent process.
// Construct one at session start, Run it for the session's lifetime, and
// let it fall out of scope at session end; no process-wide state exists, so
// multiple hosts coexist in one test process.
type Host struct {
	cfg      Config
	consumer *queue.Consumer
	status   *statuslog.Writer
	meta     *rolemeta.Store
}

// New builds a Host from the resolved config and the agent runtime.
func New(cfg Config, rt Runtime) *Host {
	store := queue.NewStore(cfg.QueueRoot, cfg.FsKey())
	h := &Host{
		cfg:      cfg,
		consumer: queue.NewConsumer(store, rt, cfg.PollInterval),
		status:   statuslog.NewWriter(cfg.StatusRoot, cfg.FsKey(), cfg.StatusPath),
	}
	if cfg.Role != "" {
		h.meta = rolemeta.NewStore(cfg.metadataPath())
	}
	return h
}

// Run starts the queue consumer and, when the role side-channel is enabled,
// seeds the initial tag set from the environment. It blocks until the
// context is cancelled.
func (h *Host) Run(ctx context.Context) {
	if h.meta != nil && h.cfg.InitialTags != "" {
		guard("seed metadata tags", func() error {
			return h.meta.SetTags(h.cfg.InitialTags)
		})
	}
	h.consumer.Run(ctx)
}

// OnTurnEnd records the completion of one agent turn: it appends a status
// entry echoing the last assistant message and, when the side-channel is
// enabled, applies any /kw-tags or /kw-note directives found in that text.
// Failures are logged and swallowed; a turn is never blocked on
// bookkeeping.
func (h *Host) OnTurnEnd(turn Turn) {
	text := lastAssistantText(turn.Messages)

	guard("append status entry", func() error {
		message, truncated := statuslog.Truncate(text)
		return h.status.Append(statuslog.Entry{
			Timestamp:    time.Now().UTC(),
			Status:       "done",
			Role:         "assistant",
			StopReason:   turn.StopReason,
			ErrorMessage: turn.Error,
			Truncated:    truncated,
			Message:      message,
			Cwd:          h.cfg.Cwd,
			SessionFile:  turn.SessionFile,
		})
	})

	if h.meta == nil {
		return
	}
	if u := rolemeta.ScanDirectives(text); !u.Empty() {
		guard("apply metadata directives", func() error {
			return h.meta.Apply(u)
		})
	}
}

// SetTags is the explicit in-session tag command. No-op without the role
// side-channel.
func (h *Host) SetTags(raw string) {
	if h.meta == nil {
		return
	}
	guard("set metadata tags", func() error { return h.meta.SetTags(raw) })
}

// SetNote is the explicit in-session description command. No-op without
// the role side-channel.
func (h *Host) SetNote(text string) {
	if h.meta == nil {
		return
	}
	guard("set metadata note", func() error { return h.meta.SetDescription(text) })
}

// QueuePath returns the session's queue file path.
func (h *Host) QueuePath() string {
	return queue.NewStore(h.cfg.QueueRoot, h.cfg.FsKey()).Path()
}

// StatusPath returns the session's status log path.
func (h *Host) StatusPath() string { return h.status.Path() }

// lastAssistantText returns the extracted text of the most recent
// assistant message, or "" when the turn holds none.
func lastAssistantText(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "assistant" {
			return messages[i].Text()
		}
	}
	return ""
}

// guard is the fault-isolation boundary for agent-hosted bookkeeping: log
// and continue, never propagate.
func guard(op string, fn func() error) {
	if err := fn(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %s: %v\n", op, err)
	}
}
