package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// CmdRunner abstracts command execution for testability.
type CmdRunner interface {
	Run(name string, args ...string) (string, error)
}

// ExecRunner implements CmdRunner using os/exec.
type ExecRunner struct{}

// Run executes a command and returns its combined output.
func (e *ExecRunner) Run(name string, args ...string) (string, error) {
	cmd := exec.CommandContext(context.Background(), name, args...)
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// defaultReadyTimeout is the default time to wait for the agent to become
// ready. Claude Code with SessionStart hooks can take 30-45s to initialize.
const defaultReadyTimeout = 60 * time.Second

// readyPollInterval is the time between capture-pane readiness checks.
const readyPollInterval = 500 * time.Millisecond

// sendKeysDebounceMs is the delay between pasting text and pressing Enter.
// The agent's Ink TUI needs time to process pasted text before Enter,
// especially in detached sessions where SIGWINCH timing adds latency.
const sendKeysDebounceMs = 2000

// promptIndicator is the character Claude Code uses for its input prompt.
const promptIndicator = "❯"

// TmuxSession hosts one agent session. Name is the session's flat id; the
// agent process runs as the window's initial process with the KW_* role
// environment set and the session's working directory as its cwd.
type TmuxSession struct {
	Name         string
	Runner       CmdRunner
	Sleeper      func(time.Duration) // optional; overrides time.Sleep for testing
	ReadyTimeout time.Duration       // timeout for agent readiness polling; 0 means defaultReadyTimeout
}

// NewTmuxSession creates a TmuxSession with the default ExecRunner.
func NewTmuxSession(flatID string) *TmuxSession {
	return &TmuxSession{Name: flatID, Runner: &ExecRunner{}}
}

// Exists checks whether the named tmux session is running.
func (s *TmuxSession) Exists() bool {
	_, err := s.Runner.Run("tmux", "has-session", "-t", s.Name)
	return err == nil
}

// isHealthy reports whether the agent is still the session's foreground
// process. A shell means the agent crashed back to the prompt.
func (s *TmuxSession) isHealthy() bool {
	out, err := s.Runner.Run("tmux", "display-message", "-p", "-t", s.Name, "#{pane_current_command}")
	if err != nil {
		return false
	}
	return !isShell(strings.TrimSpace(out))
}

// execEnvCmd builds the command that replaces the window's shell with the
// agent, carrying the session's role environment. Using exec eliminates the
// shell phase entirely — the agent IS the initial process, which is also
// how the lifecycle manager keeps exactly one agent per fs key: the session
// name is the flat id and tmux refuses duplicates.
func execEnvCmd(agentCmd string, env map[string]string) string {
	var b strings.Builder
	b.WriteString("exec env")
	for _, k := range envKeyOrder {
		if v, ok := env[k]; ok && v != "" {
			fmt.Fprintf(&b, " %s=%s", k, shellQuote(v))
		}
	}
	b.WriteString(" " + agentCmd)
	return b.String()
}

// envKeyOrder keeps generated commands deterministic for tests.
var envKeyOrder = []string{ //nolint:gochecknoglobals // fixed ordering table
	"KW_ROLE", "KW_SESSION", "KW_PROJECT", "KW_TAGS",
	"KW_METADATA_PATH", "KW_STATUS_PATH", "KW_POLL_MS", "KWORK_HOME",
}

// Create starts a detached session running the agent in workdir. If a
// healthy session already exists it is a no-op; a zombie session (agent
// fell back to a shell) is killed and recreated.
func (s *TmuxSession) Create(workdir, agentCmd string, env map[string]string) error {
	if s.Exists() {
		if s.isHealthy() {
			return nil
		}
		_ = s.Kill()
	}

	if _, err := s.Runner.Run("tmux", "new-session", "-d", "-s", s.Name, "-c", workdir, execEnvCmd(agentCmd, env)); err != nil {
		return fmt.Errorf("tmux new-session: %w", err)
	}
	return nil
}

// isShell returns true if cmd matches a known shell process name.
func isShell(cmd string) bool {
	switch cmd {
	case "zsh", "bash", "sh", "fish":
		return true
	}
	return false
}

// WaitForPrompt polls the pane content until the agent's prompt indicator
// appears, meaning the TUI is rendered and ready for input.
func (s *TmuxSession) WaitForPrompt() error {
	timeout := s.ReadyTimeout
	if timeout == 0 {
		timeout = defaultReadyTimeout
	}
	deadline := time.Now().Add(timeout)

	for {
		out, err := s.Runner.Run("tmux", "capture-pane", "-p", "-t", s.Name)
		if err == nil && strings.Contains(out, promptIndicator) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("agent prompt %q not found in session %s within %v", promptIndicator, s.Name, timeout)
		}
		s.sleep(readyPollInterval)
	}
}

// SendKeys sends text to the agent's pane and presses Enter. Literal mode
// handles special characters; a SIGWINCH wake makes Ink process input in
// detached sessions; Escape exits any vim-mode INSERT state before Enter.
func (s *TmuxSession) SendKeys(text string) error {
	if _, err := s.Runner.Run("tmux", "send-keys", "-t", s.Name, "-l", text); err != nil {
		return fmt.Errorf("tmux send-keys -l to %s: %w", s.Name, err)
	}

	s.wakeIfDetached()
	s.sleep(time.Duration(sendKeysDebounceMs) * time.Millisecond)

	_, _ = s.Runner.Run("tmux", "send-keys", "-t", s.Name, "Escape")
	s.wakeIfDetached()
	s.sleep(100 * time.Millisecond)

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			s.sleep(200 * time.Millisecond)
		}
		if _, err := s.Runner.Run("tmux", "send-keys", "-t", s.Name, "Enter"); err != nil {
			lastErr = err
			continue
		}
		s.wakeIfDetached()
		return nil
	}
	return fmt.Errorf("failed to send Enter to %s after 3 attempts: %w", s.Name, lastErr)
}

// wakeIfDetached sends SIGWINCH to the pane's process when no clients are
// attached, waking the agent's render loop in detached sessions.
func (s *TmuxSession) wakeIfDetached() {
	out, err := s.Runner.Run("tmux", "display-message", "-p", "-t", s.Name, "#{session_attached}")
	if err == nil && strings.TrimSpace(out) != "0" {
		return
	}
	pidStr, err := s.Runner.Run("tmux", "display-message", "-p", "-t", s.Name, "#{pane_pid}")
	if err != nil {
		return
	}
	_, _ = s.Runner.Run("kill", "-WINCH", strings.TrimSpace(pidStr))
}

// Kill destroys the session.
func (s *TmuxSession) Kill() error {
	if _, err := s.Runner.Run("tmux", "kill-session", "-t", s.Name); err != nil {
		return fmt.Errorf("tmux kill-session: %w", err)
	}
	return nil
}

// AttachInteractive attaches with real terminal I/O, bypassing the
// CmdRunner. It blocks until the session is detached or exits.
func (s *TmuxSession) AttachInteractive() error {
	cmd := exec.CommandContext(context.Background(), "tmux", "attach-session", "-t", s.Name) //nolint:gosec // session name derives from a validated address
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("tmux attach-session: %w", err)
	}
	return nil
}

// sleep pauses for the given duration, using the Sleeper when set.
func (s *TmuxSession) sleep(d time.Duration) {
	if s.Sleeper != nil {
		s.Sleeper(d)
		return
	}
	time.Sleep(d)
}

// shellQuote wraps s in single quotes, escaping embedded single quotes.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}
