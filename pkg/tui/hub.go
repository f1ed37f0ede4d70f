// Package tui renders the agent hub as an interactive terminal program.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-marketinsight/pkg/agent"
	"github.com/goliatone/go-marketinsight/pkg/analytics"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	goalStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("244"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	statusStyles = map[agent.Status]lipgloss.Style{
		agent.StatusPending:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		agent.StatusExecuting: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		agent.StatusCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		agent.StatusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	}

	logStyles = map[agent.LogKind]lipgloss.Style{
		agent.LogAnalysis: lipgloss.NewStyle().Foreground(lipgloss.Color("111")),
		agent.LogSuccess:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		agent.LogAlert:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		agent.LogAction:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
	}
)

// maxLogLines caps the activity pane.
const maxLogLines = 8

// Hub is the workflow surface the terminal hub drives. *agent.Workflow satisfies it.
type Hub interface {
	State() agent.State
	Approve(id string) (bool, error)
	Reason(snapshot analytics.Snapshot) bool
}

var _ Hub = (*agent.Workflow)(nil)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Approve key.Binding
	Reason  key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Approve: key.NewBinding(key.WithKeys("a", "enter"), key.WithHelp("a/enter", "approve")),
	Reason:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "deep reasoning")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

// Options configures a hub Model.
type Options struct {
	Hub Hub
	// Changes wakes the model after each workflow transition.
	Changes <-chan agent.Change
	// Snapshot supplies the data handed to deep reasoning.
	Snapshot func() analytics.Snapshot
	// Markdown renders the strategy text. Defaults to RenderMarkdown.
	Markdown func(md string, width int) string
}

type changeMsg struct {
	change agent.Change
}

type feedClosedMsg struct{}

// Model is the bubbletea model of the agent hub.
type Model struct {
	opts     Options
	state    agent.State
	cursor   int
	spinner  spinner.Model
	width    int
	status   string
	err      error
	quitting bool
}

// NewModel builds a hub model over opts.Hub.
func NewModel(opts Options) Model {
	if opts.Snapshot == nil {
		opts.Snapshot = analytics.DefaultSnapshot
	}
	if opts.Markdown == nil {
		opts.Markdown = RenderMarkdown
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	return Model{
		opts:    opts,
		state:   opts.Hub.State(),
		spinner: s,
		width:   80,
	}
}

// Run starts the hub program and blocks until the user quits.
func Run(opts Options) error {
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForChange())
}

func (m Model) waitForChange() tea.Cmd {
	if m.opts.Changes == nil {
		return nil
	}
	changes := m.opts.Changes
	return func() tea.Msg {
		change, ok := <-changes
		if !ok {
			return feedClosedMsg{}
		}
		return changeMsg{change: change}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case changeMsg:
		m.state = m.opts.Hub.State()
		m.status = msg.change.Log.Message
		return m, m.waitForChange()
	case feedClosedMsg:
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.state.Interventions)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Approve):
		if m.cursor >= len(m.state.Interventions) {
			return m, nil
		}
		id := m.state.Interventions[m.cursor].ID
		started, err := m.opts.Hub.Approve(id)
		m.err = err
		switch {
		case err != nil:
			m.status = ""
		case !started:
			m.status = fmt.Sprintf("Intervention %s is not pending.", id)
		}
		m.state = m.opts.Hub.State()
	case key.Matches(msg, keys.Reason):
		if !m.opts.Hub.Reason(m.opts.Snapshot()) {
			m.status = "Deep reasoning is already running."
		}
		m.state = m.opts.Hub.State()
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("MarketInsight Agent Hub"))
	b.WriteString("\n")
	b.WriteString(goalStyle.Render("Goal: " + m.state.Goal))
	b.WriteString("\n\n")

	for i, item := range m.state.Interventions {
		cursor := "  "
		title := item.Title
		if i == m.cursor {
			cursor = "> "
			title = selectedStyle.Render(title)
		}
		status := statusStyles[item.Status].Render(string(item.Status))
		if item.Status == agent.StatusExecuting {
			status = m.spinner.View() + " " + status
		}
		fmt.Fprintf(&b, "%s%s [%s] %s · %s impact\n", cursor, title, status, item.Channel, item.Impact)
	}

	b.WriteString("\nActivity\n")
	logs := m.state.Logs
	if len(logs) > maxLogLines {
		logs = logs[len(logs)-maxLogLines:]
	}
	for _, entry := range logs {
		line := fmt.Sprintf("%s %s", entry.Timestamp.Format("15:04:05"), entry.Message)
		b.WriteString(logStyles[entry.Kind].Render(line))
		b.WriteString("\n")
	}

	if m.state.Thinking {
		b.WriteString("\n" + m.spinner.View() + " Reasoning...\n")
	} else if m.state.Strategy != nil {
		b.WriteString("\nStrategy\n")
		b.WriteString(m.opts.Markdown(m.state.Strategy.Text, m.width))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	b.WriteString("\n" + helpStyle.Render(helpLine()))
	return b.String()
}

func helpLine() string {
	bindings := []key.Binding{keys.Up, keys.Down, keys.Approve, keys.Reason, keys.Quit}
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
