package verify

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/integrail/chatbot-verify/pkg/logging"
)

func TestLogReporter(t *testing.T) {
	RegisterTestingT(t)

	var buf bytes.Buffer
	r := NewLogReporter(logging.NewWithWriter(&buf, slog.LevelInfo))

	r.RunStarted(RunInfo{RunID: "run-1", Driver: "rod", URL: DefaultURL, Steps: []string{"navigate"}})
	r.StepFinished(StepResult{Index: 0, Name: "navigate", Status: StatusPassed, Duration: time.Second})
	r.StepFinished(StepResult{Index: 1, Name: "toggle-visible", Status: StatusFailed, Error: "timed out"})
	r.StepFinished(StepResult{Index: 2, Name: "screenshot", Status: StatusSkipped})
	r.RunFinished(&Report{RunID: "run-1", Error: "step 2 failed"})

	out := buf.String()
	Expect(out).To(ContainSubstring("verification started"))
	Expect(out).To(ContainSubstring("step passed"))
	Expect(out).To(ContainSubstring("step failed"))
	Expect(out).To(ContainSubstring("err=\"timed out\""))
	Expect(out).ToNot(ContainSubstring("step skipped"))
	Expect(out).To(ContainSubstring("verification failed"))
}
