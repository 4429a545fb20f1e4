package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/pflag"

	"agent-council/internal/council"
)

func runWatch(args []string) int {
	fs := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	intervalMs := fs.Int("interval-ms", 500, "refresh interval in ms")
	if err := fs.Parse(args); err != nil {
		return fail("watch", err)
	}
	jobDir, err := jobDirArg(fs.Args())
	if err != nil {
		return fail("watch", err)
	}
	if !isTerminal(os.Stdout) {
		return fail("watch", fmt.Errorf("stdout is not a terminal; use wait or status --json"))
	}
	if _, err := council.ComputeStatus(jobDir); err != nil {
		return fail("watch", err)
	}

	interval := max(time.Duration(*intervalMs)*time.Millisecond, council.MinWaitInterval)
	final, err := tea.NewProgram(newWatchModel(jobDir, interval)).Run()
	if err != nil {
		return fail("watch", err)
	}
	if m, ok := final.(watchModel); ok {
		if m.err != nil {
			return fail("watch", m.err)
		}
		if m.payload != nil {
			fmt.Print(renderChecklist(m.payload, true))
		}
	}
	return 0
}

type statusMsg struct {
	payload *council.StatusPayload
	err     error
}

func pollStatus(jobDir string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		payload, err := council.ComputeStatus(jobDir)
		return statusMsg{payload: payload, err: err}
	})
}

type watchModel struct {
	jobDir   string
	interval time.Duration
	spinner  spinner.Model
	payload  *council.StatusPayload
	err      error
	width    int
	done     bool
	quitting bool
}

func newWatchModel(jobDir string, interval time.Duration) watchModel {
	return watchModel{
		jobDir:   jobDir,
		interval: interval,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(statusActiveStyle)),
		width:    80,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, pollStatus(m.jobDir, 0))
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c", "q", "esc"))) {
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case statusMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.payload = msg.payload
		if m.payload.OverallState == council.StateDone {
			m.done = true
			return m, tea.Quit
		}
		return m, pollStatus(m.jobDir, m.interval)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m watchModel) View() string {
	if m.quitting || m.done || m.err != nil {
		return ""
	}
	var b strings.Builder
	if m.payload == nil {
		b.WriteString(m.spinner.View() + " " + labelStyle.Render("Loading "+m.jobDir) + "\n")
		return b.String()
	}

	c := m.payload.Counts
	title := "Agent Council"
	if m.payload.ID != "" {
		title += " " + m.payload.ID
	}
	b.WriteString(m.spinner.View() + " " + titleStyle.Render(m.truncate(title)) + "\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("%d/%d done  running %d  queued %d", c.TerminalCount(), c.Total, c.Running, c.Queued)) + "\n\n")
	for _, member := range m.payload.Members {
		line := fmt.Sprintf("%s %-20s %s", renderStateIcon(member.State), member.Member, stateStyle(member.State).Render(string(member.State)))
		if member.Message != nil {
			line += " " + pathStyle.Render(*member.Message)
		}
		b.WriteString(m.truncate(line) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("q: quit (members keep running)") + "\n")
	return b.String()
}

func (m watchModel) truncate(line string) string {
	if m.width <= 0 {
		return line
	}
	return ansi.Truncate(line, m.width, "…")
}
