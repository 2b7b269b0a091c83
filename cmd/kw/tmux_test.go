package main

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

// noopSleep is a no-op sleeper for tests to avoid real delays.
func noopSleep(time.Duration) {}

// fakeCmd records exec calls for testing without real tmux.
type fakeCmd struct {
	calls  [][]string // each call is [name, arg1, arg2, ...]
	output map[string]string
	errs   map[string]error
}

func newFakeCmd() *fakeCmd {
	return &fakeCmd{
		output: make(map[string]string),
		errs:   make(map[string]error),
	}
}

// key builds a lookup key from a command and its args.
func key(name string, args ...string) string {
	return name + " " + strings.Join(args, " ")
}

func (f *fakeCmd) Run(name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	k := key(name, args...)
	if err, ok := f.errs[k]; ok {
		return f.output[k], err
	}
	return f.output[k], nil
}

// findCall returns the first call matching the given tmux subcommand, or nil.
func findCall(calls [][]string, subcmd string) []string {
	for _, call := range calls {
		if len(call) >= 2 && call[0] == "tmux" && call[1] == subcmd {
			return call
		}
	}
	return nil
}

func newTestSession(fake *fakeCmd) *TmuxSession {
	return &TmuxSession{
		Name:         "demo+auth+pi",
		Runner:       fake,
		Sleeper:      noopSleep,
		ReadyTimeout: 50 * time.Millisecond,
	}
}

func TestExists(t *testing.T) {
	fake := newFakeCmd()
	s := newTestSession(fake)
	if !s.Exists() {
		t.Error("Exists = false with passing has-session")
	}

	fake.errs[key("tmux", "has-session", "-t", s.Name)] = fmt.Errorf("no session")
	if s.Exists() {
		t.Error("Exists = true with failing has-session")
	}
}

func TestCreate_StartsDetachedSessionInWorkdir(t *testing.T) {
	fake := newFakeCmd()
	// No session yet.
	fake.errs[key("tmux", "has-session", "-t", "demo+auth+pi")] = fmt.Errorf("no session")
	s := newTestSession(fake)

	env := map[string]string{"KW_ROLE": "pi", "KW_PROJECT": "demo"}
	if err := s.Create("/home/u/projects/demo/auth", "claude", env); err != nil {
		t.Fatalf("Create: %v", err)
	}

	call := findCall(fake.calls, "new-session")
	if call == nil {
		t.Fatal("no new-session call")
	}
	joined := strings.Join(call, " ")
	if !strings.Contains(joined, "-c /home/u/projects/demo/auth") {
		t.Errorf("new-session missing workdir: %v", call)
	}
	last := call[len(call)-1]
	if !strings.HasPrefix(last, "exec env ") {
		t.Errorf("initial command = %q, want exec env prefix", last)
	}
	if !strings.Contains(last, "KW_ROLE='pi'") || !strings.Contains(last, "KW_PROJECT='demo'") {
		t.Errorf("initial command missing role env: %q", last)
	}
	if !strings.HasSuffix(last, " claude") {
		t.Errorf("initial command = %q, want trailing agent command", last)
	}
}

func TestCreate_HealthySessionIsNoop(t *testing.T) {
	fake := newFakeCmd()
	fake.output[key("tmux", "display-message", "-p", "-t", "demo+auth+pi", "#{pane_current_command}")] = "claude"
	s := newTestSession(fake)

	if err := s.Create("/w", "claude", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if findCall(fake.calls, "new-session") != nil {
		t.Error("Create recreated a healthy session")
	}
	if findCall(fake.calls, "kill-session") != nil {
		t.Error("Create killed a healthy session")
	}
}

func TestCreate_ZombieSessionIsRecreated(t *testing.T) {
	fake := newFakeCmd()
	// Session exists but the agent fell back to a shell.
	fake.output[key("tmux", "display-message", "-p", "-t", "demo+auth+pi", "#{pane_current_command}")] = "zsh"
	s := newTestSession(fake)

	if err := s.Create("/w", "claude", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if findCall(fake.calls, "kill-session") == nil {
		t.Error("zombie session not killed")
	}
	if findCall(fake.calls, "new-session") == nil {
		t.Error("zombie session not recreated")
	}
}

func TestWaitForPrompt(t *testing.T) {
	fake := newFakeCmd()
	fake.output[key("tmux", "capture-pane", "-p", "-t", "demo+auth+pi")] = "Welcome\n❯ \nstatus bar"
	s := newTestSession(fake)

	if err := s.WaitForPrompt(); err != nil {
		t.Fatalf("WaitForPrompt: %v", err)
	}
}

func TestWaitForPrompt_Timeout(t *testing.T) {
	fake := newFakeCmd()
	fake.output[key("tmux", "capture-pane", "-p", "-t", "demo+auth+pi")] = "still booting"
	s := newTestSession(fake)

	if err := s.WaitForPrompt(); err == nil {
		t.Error("WaitForPrompt succeeded without a prompt, want timeout error")
	}
}

func TestSendKeys(t *testing.T) {
	fake := newFakeCmd()
	// Detached session: wake path engaged.
	fake.output[key("tmux", "display-message", "-p", "-t", "demo+auth+pi", "#{session_attached}")] = "0"
	fake.output[key("tmux", "display-message", "-p", "-t", "demo+auth+pi", "#{pane_pid}")] = "4242"
	s := newTestSession(fake)

	if err := s.SendKeys("hello agent"); err != nil {
		t.Fatalf("SendKeys: %v", err)
	}

	var sawLiteral, sawEnter, sawWake bool
	for _, call := range fake.calls {
		joined := strings.Join(call, " ")
		if strings.Contains(joined, "send-keys") && strings.Contains(joined, "-l hello agent") {
			sawLiteral = true
		}
		if strings.Contains(joined, "send-keys") && strings.HasSuffix(joined, "Enter") {
			sawEnter = true
		}
		if call[0] == "kill" && call[1] == "-WINCH" && call[2] == "4242" {
			sawWake = true
		}
	}
	if !sawLiteral {
		t.Error("no literal send-keys call")
	}
	if !sawEnter {
		t.Error("no Enter send-keys call")
	}
	if !sawWake {
		t.Error("no SIGWINCH wake for detached session")
	}
}

func TestSendKeys_EnterRetries(t *testing.T) {
	fake := newFakeCmd()
	fake.output[key("tmux", "display-message", "-p", "-t", "demo+auth+pi", "#{session_attached}")] = "1"
	fake.errs[key("tmux", "send-keys", "-t", "demo+auth+pi", "Enter")] = fmt.Errorf("pane busy")
	s := newTestSession(fake)

	if err := s.SendKeys("msg"); err == nil {
		t.Fatal("SendKeys succeeded with Enter always failing, want error")
	}

	enters := 0
	for _, call := range fake.calls {
		if strings.HasSuffix(strings.Join(call, " "), "Enter") {
			enters++
		}
	}
	if enters != 3 {
		t.Errorf("Enter attempts = %d, want 3", enters)
	}
}

func TestExecEnvCmd_SkipsEmptyAndQuotes(t *testing.T) {
	cmd := execEnvCmd("claude", map[string]string{
		"KW_ROLE": "pi",
		"KW_TAGS": "a,b",
		"KW_NOTE": "ignored-unknown-key",
	})
	if strings.Contains(cmd, "KW_NOTE") {
		t.Errorf("unknown env key leaked into %q", cmd)
	}
	if !strings.Contains(cmd, "KW_ROLE='pi' ") {
		t.Errorf("cmd = %q", cmd)
	}
	if !strings.Contains(cmd, "KW_TAGS='a,b'") {
		t.Errorf("cmd = %q", cmd)
	}
}

func TestKill(t *testing.T) {
	fake := newFakeCmd()
	s := newTestSession(fake)
	if err := s.Kill(); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if findCall(fake.calls, "kill-session") == nil {
		t.Error("no kill-session call")
	}
}
