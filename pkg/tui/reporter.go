package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/integrail/chatbot-verify/pkg/verify"
)

// Reporter forwards run progress into a running bubbletea program.
type Reporter struct {
	program *tea.Program
	done    chan struct{}
	model   *Model
	err     error
}

// Start runs the progress view on out until the run finishes or ctx is done.
// cancel is invoked when the user interrupts the view.
func Start(ctx context.Context, cancel context.CancelFunc, in io.Reader, out io.Writer) *Reporter {
	model := NewModel(cancel)
	r := &Reporter{
		program: tea.NewProgram(model, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out)),
		done:    make(chan struct{}),
		model:   model,
	}
	go func() {
		defer close(r.done)
		if _, err := r.program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			r.err = errors.Wrapf(err, "progress view failed")
		}
	}()
	return r
}

// Wait blocks until the view exits and returns the finished report, if any.
func (r *Reporter) Wait() (*verify.Report, error) {
	<-r.done
	return r.model.Report(), r.err
}

func (r *Reporter) Report(msg string) {
	r.program.Send(logMsg(msg))
}

func (r *Reporter) RunStarted(info verify.RunInfo) {
	r.program.Send(runStartedMsg(info))
}

func (r *Reporter) StepStarted(index int, _ string) {
	r.program.Send(stepStartedMsg{index: index})
}

func (r *Reporter) StepFinished(result verify.StepResult) {
	r.program.Send(stepFinishedMsg(result))
}

func (r *Reporter) RunFinished(report *verify.Report) {
	r.program.Send(runFinishedMsg{report: report})
}
