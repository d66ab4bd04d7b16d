package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/gomega"

	"github.com/integrail/chatbot-verify/pkg/verify"
)

func TestModelTracksSteps(t *testing.T) {
	RegisterTestingT(t)

	m := NewModel(nil)
	m.Update(runStartedMsg{RunID: "run-1", Driver: "rod", URL: verify.DefaultURL, Steps: []string{"navigate", "toggle-visible", "screenshot"}})
	m.Update(stepStartedMsg{index: 0})
	m.Update(stepFinishedMsg{Index: 0, Name: "navigate", Status: verify.StatusPassed, Duration: 1500 * time.Millisecond})
	m.Update(stepFinishedMsg{Index: 1, Name: "toggle-visible", Status: verify.StatusFailed, Error: "timed out after 5s"})
	m.Update(stepFinishedMsg{Index: 2, Name: "screenshot", Status: verify.StatusSkipped})
	m.Update(logMsg("Executing click(\"#chatbot-toggle\")..."))

	view := m.View()
	Expect(view).To(ContainSubstring("Run: run-1; driver: rod"))
	Expect(view).To(ContainSubstring("1. navigate"))
	Expect(view).To(ContainSubstring("(1.5s)"))
	Expect(view).To(ContainSubstring("✗"))
	Expect(view).To(ContainSubstring("timed out after 5s"))
	Expect(view).To(ContainSubstring("3. screenshot"))
	Expect(view).To(ContainSubstring("#chatbot-toggle"))
}

func TestModelQuitsWhenRunFinishes(t *testing.T) {
	RegisterTestingT(t)

	m := NewModel(nil)
	report := &verify.Report{RunID: "run-1", Passed: true}
	_, cmd := m.Update(runFinishedMsg{report: report})
	Expect(cmd).ToNot(BeNil())
	Expect(cmd()).To(Equal(tea.Quit()))
	Expect(m.Report()).To(BeIdenticalTo(report))
}

func TestModelCancelsOnInterrupt(t *testing.T) {
	RegisterTestingT(t)

	cancelled := false
	m := NewModel(func() { cancelled = true })
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	Expect(cancelled).To(BeTrue())
	Expect(m.View()).To(ContainSubstring("cancelled"))
}

func TestModelKeepsLastMessages(t *testing.T) {
	RegisterTestingT(t)

	m := NewModel(nil)
	for i := 0; i < maxMessages+5; i++ {
		m.Update(logMsg(strings.Repeat("x", i+1)))
	}
	Expect(m.messages).To(HaveLen(maxMessages))
	Expect(m.messages[0]).To(Equal(strings.Repeat("x", 6)))
}

func TestReporterDrivesProgram(t *testing.T) {
	RegisterTestingT(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out bytes.Buffer
	r := Start(ctx, cancel, nil, &out)
	r.RunStarted(verify.RunInfo{RunID: "run-1", Driver: "rod", Steps: []string{"navigate"}})
	r.StepStarted(0, "navigate")
	r.Report("navigated")
	r.StepFinished(verify.StepResult{Index: 0, Name: "navigate", Status: verify.StatusPassed})
	report := &verify.Report{RunID: "run-1", Passed: true}
	r.RunFinished(report)

	got, err := r.Wait()
	Expect(err).To(BeNil())
	Expect(got).To(BeIdenticalTo(report))
}
