// Package tui renders run progress as a bubbletea program.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/integrail/chatbot-verify/pkg/verify"
)

const maxMessages = 10

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF88")).Background(lipgloss.Color("#444444"))
	passedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failedStyle  = lipgloss.NewStyle().Background(lipgloss.Color("330000")).Foreground(lipgloss.Color("#FF3333"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

type (
	runStartedMsg   verify.RunInfo
	stepStartedMsg  struct{ index int }
	stepFinishedMsg verify.StepResult
	runFinishedMsg  struct{ report *verify.Report }
	logMsg          string
)

// Model shows the step list of one run. ctrl+c cancels the run through cancel.
type Model struct {
	info     verify.RunInfo
	steps    []verify.StepResult
	messages []string
	viewport viewport.Model
	loader   spinner.Model
	report   *verify.Report
	cancel   context.CancelFunc
}

func NewModel(cancel context.CancelFunc) *Model {
	return &Model{
		viewport: viewport.New(120, maxMessages),
		loader: spinner.New(
			spinner.WithStyle(runningStyle),
			spinner.WithSpinner(spinner.Dot),
		),
		cancel: cancel,
	}
}

// Report returns the finished run, or nil while running.
func (m *Model) Report() *verify.Report {
	return m.report
}

func (m *Model) Init() tea.Cmd {
	return m.loader.Tick
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.loader, cmd = m.loader.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if m.cancel != nil {
				m.cancel()
			}
			m.addMessage(failedStyle.Render("cancelled"))
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
	case runStartedMsg:
		m.info = verify.RunInfo(msg)
		m.steps = lo.Map(msg.Steps, func(name string, i int) verify.StepResult {
			return verify.StepResult{Index: i, Name: name, Status: verify.StatusPending}
		})
	case stepStartedMsg:
		if msg.index < len(m.steps) {
			m.steps[msg.index].Status = verify.StatusRunning
		}
	case stepFinishedMsg:
		if msg.Index < len(m.steps) {
			m.steps[msg.Index] = verify.StepResult(msg)
		}
	case logMsg:
		m.addMessage(string(msg))
	case runFinishedMsg:
		m.report = msg.report
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) addMessage(msg string) {
	m.messages = append(m.messages, msg)
	if len(m.messages) > maxMessages {
		m.messages = m.messages[1:]
	}
	m.viewport.SetContent(strings.Join(m.messages, "\n"))
	m.viewport.GotoBottom()
}

func (m *Model) glyph(s verify.StepResult) string {
	switch s.Status {
	case verify.StatusRunning:
		return m.loader.View()
	case verify.StatusPassed:
		return passedStyle.Render("✓")
	case verify.StatusFailed:
		return failedStyle.Render("✗")
	case verify.StatusSkipped:
		return skippedStyle.Render("-")
	}
	return skippedStyle.Render("·")
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Run: %s; driver: %s; url: %s", m.info.RunID, m.info.Driver, m.info.URL)))
	b.WriteString("\n\n")
	for _, s := range m.steps {
		line := fmt.Sprintf("%s %2d. %s", m.glyph(s), s.Index+1, s.Name)
		if s.Duration > 0 {
			line += skippedStyle.Render(fmt.Sprintf(" (%s)", s.Duration.Round(time.Millisecond)))
		}
		if s.Error != "" {
			line += "\n      " + failedStyle.Render(s.Error)
		}
		b.WriteString(line + "\n")
	}
	if len(m.messages) > 0 {
		b.WriteString("\n" + messageStyle.Render("Browser:") + "\n" + m.viewport.View() + "\n")
	}
	return b.String() + "\n"
}
