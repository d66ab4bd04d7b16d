package verify

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/integrail/chatbot-verify/pkg/browser"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

type StepResult struct {
	Index    int           `json:"index" yaml:"index"`
	Name     string        `json:"name" yaml:"name"`
	Status   Status        `json:"status" yaml:"status"`
	Duration time.Duration `json:"-" yaml:"-"`
	Seconds  float64       `json:"seconds" yaml:"seconds"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
}

type Report struct {
	RunID             string        `json:"runID" yaml:"runID"`
	Driver            string        `json:"driver" yaml:"driver"`
	URL               string        `json:"url" yaml:"url"`
	StartedAt         time.Time     `json:"startedAt" yaml:"startedAt"`
	Duration          time.Duration `json:"-" yaml:"-"`
	Seconds           float64       `json:"seconds" yaml:"seconds"`
	Steps             []StepResult  `json:"steps" yaml:"steps"`
	Screenshot        string        `json:"screenshot,omitempty" yaml:"screenshot,omitempty"`
	FailureScreenshot string        `json:"failureScreenshot,omitempty" yaml:"failureScreenshot,omitempty"`
	Passed            bool          `json:"passed" yaml:"passed"`
	Error             string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// FailedStep returns the step that stopped the run, if any.
func (r *Report) FailedStep() (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			return s, true
		}
	}
	return StepResult{}, false
}

func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to marshal report")
	}
	return errors.Wrapf(browser.WriteFile(path, append(data, '\n')), "failed to write report")
}
