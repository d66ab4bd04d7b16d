package verify

import (
	"sync"
)

// recordingReporter keeps every callback for assertions.
type recordingReporter struct {
	mu       sync.Mutex
	messages []string
	info     RunInfo
	started  []string
	finished []StepResult
	report   *Report
}

func (r *recordingReporter) Report(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recordingReporter) RunStarted(info RunInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.info = info
}

func (r *recordingReporter) StepStarted(_ int, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, name)
}

func (r *recordingReporter) StepFinished(res StepResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, res)
}

func (r *recordingReporter) RunFinished(report *Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report = report
}
