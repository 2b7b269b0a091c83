package main

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"kwork/pkg/address"
	"kwork/pkg/queue"
	"kwork/pkg/statuslog"
)

// tickMsg is sent by Bubble Tea on every tick interval.
// Used to trigger periodic refresh when no fs events arrive.
type tickMsg time.Time

// projectsMsg carries a rescanned project list.
type projectsMsg []Project

// statusMsg carries the selected session's latest status entry.
type statusMsg struct {
	entry statuslog.Entry
	err   error
}

// sentMsg reports the outcome of an enqueue.
type sentMsg struct {
	session string
	err     error
}

// attachDoneMsg reports the end of an interactive tmux attach.
type attachDoneMsg struct{ err error }

// cleanupMsg reports the outcome of a worktree removal.
type cleanupMsg struct {
	target string
	output string
	err    error
}

// tickCmd returns a command that sends a tickMsg after 2 seconds.
func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// loadProjectsCmd rescans the projects root.
func loadProjectsCmd(root string) tea.Cmd {
	return func() tea.Msg {
		projects, _ := loadProjects(root)
		return projectsMsg(projects)
	}
}

// fetchStatusCmd reads the latest status entry for a working directory.
func fetchStatusCmd(statusDir, workdir string) tea.Cmd {
	return func() tea.Msg {
		sub := statuslog.NewSubscriber(statusDir, address.FsKey(workdir))
		entry, err := sub.Last()
		return statusMsg{entry: entry, err: err}
	}
}

// sendMessageCmd enqueues a message for the session owning workdir.
func sendMessageCmd(queueDir, workdir, session, text string, mode queue.Mode) tea.Cmd {
	return func() tea.Msg {
		store := queue.NewStore(queueDir, address.FsKey(workdir))
		err := store.Enqueue(queue.Entry{Message: text, Mode: mode})
		return sentMsg{session: session, err: err}
	}
}

// attachCmd hands the terminal to tmux for the named session.
func attachCmd(flatID string) tea.Cmd {
	c := exec.Command("tmux", "attach-session", "-t", flatID) //nolint:gosec // flat id derives from a validated address
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return attachDoneMsg{err: err}
	})
}

// cleanupCmd removes a git worktree. The dashboard shells out here; worktree
// bookkeeping stays git's problem.
func cleanupCmd(projectDir, worktree, target string) tea.Cmd {
	return func() tea.Msg {
		c := exec.Command("git", "-C", projectDir, "worktree", "remove", worktree) //nolint:gosec // components validated at row build time
		out, err := c.CombinedOutput()
		return cleanupMsg{target: target, output: strings.TrimSpace(string(out)), err: err}
	}
}

// row is one selectable line in the project tree: a project header or one
// of its worktrees.
type row struct {
	project  Project
	worktree string // empty for the project header row
	addr     address.Address
	workdir  string
}

// session returns the human session path the row addresses.
func (r row) session() string { return r.addr.Path() }

// buildRows flattens projects into selectable rows. Rows whose names fail
// address validation are skipped; they cannot be addressed anyway.
func buildRows(projectsDir string, projects []Project) []row {
	var rows []row
	for _, p := range projects {
		addr, err := pmAddress(p)
		if err != nil {
			continue
		}
		rows = append(rows, row{project: p, addr: addr, workdir: workingDir(projectsDir, addr)})
		for _, wt := range p.Worktrees {
			addr, err := worktreeAddress(p, wt)
			if err != nil {
				continue
			}
			rows = append(rows, row{project: p, worktree: wt, addr: addr, workdir: workingDir(projectsDir, addr)})
		}
	}
	return rows
}

// promptMode says what the open text input will do on submit.
type promptMode int

const (
	promptNone promptMode = iota
	promptFollowUp
	promptSteer
)

// Model is the Bubble Tea model for the kwork dashboard.
type Model struct {
	projectsDir string
	queueDir    string
	statusDir   string

	projects []Project
	rows     []row
	cursor   int

	status    statuslog.Entry
	statusErr error

	input      textinput.Model
	inputMode  promptMode
	confirming bool // cleanup y/n pending
	notice     string

	width  int
	height int
}

// newModel creates a Model wired to the resolved directories.
func newModel(projectsDir, queueDir, statusDir string) Model {
	input := textinput.New()
	input.Placeholder = "message to agent"
	input.CharLimit = 0
	input.Width = 60
	return Model{
		projectsDir: projectsDir,
		queueDir:    queueDir,
		statusDir:   statusDir,
		input:       input,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{loadProjectsCmd(m.projectsDir), tickCmd()}
	if watch := watchStatusRoot(m.statusDir); watch != nil {
		cmds = append(cmds, watch)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case projectsMsg:
		m.projects = []Project(msg)
		m.rows = buildRows(m.projectsDir, m.projects)
		if m.cursor >= len(m.rows) {
			m.cursor = max(0, len(m.rows)-1)
		}
		return m, m.refreshStatusCmd()

	case statusMsg:
		m.status = msg.entry
		m.statusErr = msg.err

	case sentMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("send to %s failed: %v", msg.session, msg.err)
		} else {
			m.notice = "queued message for " + msg.session
		}

	case attachDoneMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("attach failed: %v", msg.err)
		} else {
			m.notice = "detached"
		}

	case cleanupMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("cleanup %s failed: %s", msg.target, summarize(msg.output, msg.err))
		} else {
			m.notice = "removed worktree " + msg.target
		}
		return m, loadProjectsCmd(m.projectsDir)

	case fsChangeMsg:
		// Re-arm the watcher alongside the refresh.
		cmds := []tea.Cmd{m.refreshStatusCmd()}
		if watch := watchStatusRoot(m.statusDir); watch != nil {
			cmds = append(cmds, watch)
		}
		return m, tea.Batch(cmds...)

	case tickMsg:
		return m, tea.Batch(loadProjectsCmd(m.projectsDir), m.refreshStatusCmd(), tickCmd())
	}

	return m, nil
}

// summarize collapses command output to its first non-empty line, falling
// back to the error text.
func summarize(output string, err error) string {
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	if err != nil {
		return err.Error()
	}
	return "(none)"
}

// refreshStatusCmd fetches status for the selected row, if any.
func (m Model) refreshStatusCmd() tea.Cmd {
	r, ok := m.selected()
	if !ok {
		return nil
	}
	return fetchStatusCmd(m.statusDir, r.workdir)
}

// selected returns the row under the cursor.
func (m Model) selected() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

// handleKeyPress processes keyboard input and returns updated model with
// optional command.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inputMode != promptNone {
		return m.handlePromptKeys(msg)
	}
	if m.confirming {
		return m.handleConfirmKeys(msg.String())
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return m, m.refreshStatusCmd()
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, m.refreshStatusCmd()
	case "r":
		m.notice = ""
		return m, tea.Batch(loadProjectsCmd(m.projectsDir), m.refreshStatusCmd())
	case "m", "enter":
		return m.openPrompt(promptFollowUp)
	case "s":
		return m.openPrompt(promptSteer)
	case "a":
		if r, ok := m.selected(); ok {
			return m, attachCmd(r.addr.FlatID())
		}
	case "c":
		r, ok := m.selected()
		if !ok || r.worktree == "" {
			m.notice = "select a worktree to clean up"
			return m, nil
		}
		m.confirming = true
		m.notice = fmt.Sprintf("cleanup %s? press y to confirm, n to cancel", r.session())
	}
	return m, nil
}

// openPrompt activates the text input for the selected session.
func (m Model) openPrompt(mode promptMode) (tea.Model, tea.Cmd) {
	if _, ok := m.selected(); !ok {
		m.notice = "no session selected"
		return m, nil
	}
	m.inputMode = mode
	m.input.SetValue("")
	m.input.Focus()
	return m, textinput.Blink
}

// handlePromptKeys routes keys while the text input is open.
func (m Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.inputMode = promptNone
		m.input.Blur()
		return m, nil
	case "enter":
		text := normalizeMessage(m.input.Value())
		mode := m.inputMode
		m.inputMode = promptNone
		m.input.Blur()
		if text == "" {
			m.notice = "empty message dropped"
			return m, nil
		}
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		qm := queue.ModeFollowUp
		if mode == promptSteer {
			qm = queue.ModeSteer
		}
		return m, sendMessageCmd(m.queueDir, r.workdir, r.session(), text, qm)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleConfirmKeys resolves a pending cleanup confirmation.
func (m Model) handleConfirmKeys(key string) (tea.Model, tea.Cmd) {
	m.confirming = false
	if key != "y" {
		m.notice = "cleanup cancelled"
		return m, nil
	}
	r, ok := m.selected()
	if !ok || r.worktree == "" {
		return m, nil
	}
	m.notice = "removing worktree " + r.session() + "..."
	return m, cleanupCmd(r.project.Dir, r.worktree, r.session())
}

// View implements tea.Model.
func (m Model) View() string {
	statusBar := m.renderStatusBar()
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderTree(), m.renderStatusPane())
	bottom := m.renderBottomBar()
	return lipgloss.JoinVertical(lipgloss.Left, statusBar, body, bottom)
}

// renderStatusBar renders the top bar with aggregate counts.
func (m Model) renderStatusBar() string {
	theme := DefaultTheme()
	worktrees := 0
	for _, p := range m.projects {
		worktrees += len(p.Worktrees)
	}
	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Foreground(theme.Primary).Render("kw-dash"),
		lipgloss.NewStyle().Render(" | Projects: "),
		lipgloss.NewStyle().Foreground(theme.Secondary).Render(fmt.Sprintf("%d", len(m.projects))),
		lipgloss.NewStyle().Render(" | Worktrees: "),
		lipgloss.NewStyle().Foreground(theme.Secondary).Render(fmt.Sprintf("%d", worktrees)),
	)
}

// renderTree renders the project/worktree rows with a cursor.
func (m Model) renderTree() string {
	theme := DefaultTheme()
	if len(m.rows) == 0 {
		return lipgloss.NewStyle().Foreground(theme.Muted).Padding(1, 1).Render("no projects under " + m.projectsDir)
	}

	var b strings.Builder
	for i, r := range m.rows {
		label := r.project.Name
		indent := ""
		if r.worktree != "" {
			label = r.worktree
			indent = "  "
		}
		line := indent + label
		if i == m.cursor {
			line = lipgloss.NewStyle().Background(theme.Primary).Foreground(lipgloss.Color("#ffffff")).Bold(true).Render("▸ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().Padding(1, 1).Render(b.String())
}

// renderStatusPane renders the latest status entry of the selected session.
func (m Model) renderStatusPane() string {
	theme := DefaultTheme()
	pane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Muted).
		Padding(0, 1).
		Width(64)

	r, ok := m.selected()
	if !ok {
		return pane.Render("select a session")
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary).Render(r.session())

	if m.statusErr != nil {
		msg := "no status yet"
		if !errors.Is(m.statusErr, statuslog.ErrNoEntries) {
			msg = m.statusErr.Error()
		}
		return pane.Render(header + "\n" + lipgloss.NewStyle().Foreground(theme.Muted).Render(msg))
	}

	statusStyle := lipgloss.NewStyle().Foreground(theme.Success)
	if m.status.Status == "error" {
		statusStyle = lipgloss.NewStyle().Foreground(theme.Error)
	}
	lines := []string{
		header,
		statusStyle.Render(m.status.Status) + lipgloss.NewStyle().Foreground(theme.Muted).Render(" at "+m.status.Timestamp.Format(time.RFC3339)),
		m.status.Message,
	}
	if m.status.ErrorMessage != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.Error).Render(m.status.ErrorMessage))
	}
	return pane.Render(strings.Join(lines, "\n"))
}

// renderBottomBar renders the input prompt, a pending notice, or key help.
func (m Model) renderBottomBar() string {
	theme := DefaultTheme()
	if m.inputMode != promptNone {
		label := "follow-up"
		if m.inputMode == promptSteer {
			label = "steer"
		}
		prompt := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Primary).
			Padding(0, 1).
			Render(label + ": " + m.input.View())
		return prompt
	}
	if m.notice != "" {
		return lipgloss.NewStyle().Foreground(theme.Warning).Padding(0, 1).Render(m.notice)
	}
	help := "j/k navigate · m message · s steer · a attach · c cleanup · r refresh · q quit"
	return lipgloss.NewStyle().Foreground(theme.Muted).Padding(0, 1).Render(help)
}
