package verify

import (
	"log/slog"

	"github.com/integrail/chatbot-verify/pkg/client"
)

// RunInfo describes a run as it starts.
type RunInfo struct {
	RunID  string
	Driver string
	URL    string
	Steps  []string
}

// Reporter receives progress. Report carries free-form messages, the rest
// follow the step lifecycle.
type Reporter interface {
	client.Reporter
	RunStarted(info RunInfo)
	StepStarted(index int, name string)
	StepFinished(result StepResult)
	RunFinished(report *Report)
}

type logReporter struct {
	log *slog.Logger
}

func NewLogReporter(log *slog.Logger) Reporter {
	return &logReporter{log: log}
}

func (r *logReporter) Report(msg string) {
	r.log.Info(msg)
}

func (r *logReporter) RunStarted(info RunInfo) {
	r.log.Info("verification started", "run", info.RunID, "driver", info.Driver, "url", info.URL, "steps", len(info.Steps))
}

func (r *logReporter) StepStarted(index int, name string) {
	r.log.Debug("step started", "index", index, "step", name)
}

func (r *logReporter) StepFinished(res StepResult) {
	switch res.Status {
	case StatusFailed:
		r.log.Error("step failed", "index", res.Index, "step", res.Name, "duration", res.Duration, "error", res.Error)
	case StatusSkipped:
		r.log.Debug("step skipped", "index", res.Index, "step", res.Name)
	default:
		r.log.Info("step passed", "index", res.Index, "step", res.Name, "duration", res.Duration)
	}
}

func (r *logReporter) RunFinished(report *Report) {
	if report.Passed {
		r.log.Info("verification passed", "run", report.RunID, "duration", report.Duration, "screenshot", report.Screenshot)
		return
	}
	r.log.Error("verification failed", "run", report.RunID, "duration", report.Duration, "error", report.Error)
}
