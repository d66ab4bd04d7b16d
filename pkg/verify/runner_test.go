package verify

import (
	"context"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/integrail/chatbot-verify/pkg/browser"
	"github.com/integrail/chatbot-verify/pkg/browser/mocks"
	"github.com/integrail/chatbot-verify/pkg/logging"
)

func step(name string, err error) Step {
	return Step{Name: name, Run: func(context.Context, browser.Session) error { return err }}
}

func newMockDriver(t *testing.T) (*mocks.Driver, *mocks.Session) {
	session := mocks.NewSession(t)
	driver := mocks.NewDriver(t)
	driver.On("Name").Return("mock")
	driver.On("Open", mock.Anything).Return(session, nil)
	return driver, session
}

func TestRunnerFailFast(t *testing.T) {
	RegisterTestingT(t)

	driver, session := newMockDriver(t)
	session.On("Close").Return(nil).Once()

	failure := browser.Assertion(browser.Query("#chatbot-window"), "to be visible", errors.New("timed out after 5s"))
	reporter := &recordingReporter{}
	r := NewRunner(driver, DefaultConfig(),
		WithLogger(logging.NewNop()),
		WithReporter(reporter),
		WithSteps([]Step{step("first", nil), step("second", failure), step("third", nil)}),
	)

	report, err := r.Run(context.Background())
	Expect(err).To(MatchError(browser.ErrAssertion))
	Expect(ExitCode(err)).To(Equal(ExitAssertion))

	var stepErr *StepError
	Expect(errors.As(err, &stepErr)).To(BeTrue())
	Expect(stepErr.Index).To(Equal(1))
	Expect(stepErr.Name).To(Equal("second"))
	Expect(err.Error()).To(HavePrefix("step 2 (second) failed: assertion failed: expected #chatbot-window to be visible"))

	Expect(report.Passed).To(BeFalse())
	Expect(report.RunID).To(HaveLen(36))
	Expect(report.Screenshot).To(BeEmpty())
	Expect(report.Steps[0].Status).To(Equal(StatusPassed))
	Expect(report.Steps[1].Status).To(Equal(StatusFailed))
	Expect(report.Steps[1].Error).To(ContainSubstring("timed out after 5s"))
	Expect(report.Steps[2].Status).To(Equal(StatusSkipped))
	failed, ok := report.FailedStep()
	Expect(ok).To(BeTrue())
	Expect(failed.Name).To(Equal("second"))

	Expect(reporter.started).To(Equal([]string{"first", "second"}))
	Expect(reporter.finished).To(HaveLen(3))
	Expect(reporter.report).To(BeIdenticalTo(report))
	Expect(reporter.info.Steps).To(Equal([]string{"first", "second", "third"}))
	Expect(reporter.info.Driver).To(Equal("mock"))
}

func TestRunnerNavigationError(t *testing.T) {
	RegisterTestingT(t)

	driver, session := newMockDriver(t)
	session.On("Close").Return(nil)

	r := NewRunner(driver, DefaultConfig(), WithLogger(logging.NewNop()))
	session.On("Goto", mock.Anything, DefaultURL).Return(browser.Navigation(DefaultURL, errors.New("net::ERR_CONNECTION_REFUSED")))

	report, err := r.Run(context.Background())
	Expect(err).To(MatchError(browser.ErrNavigation))
	Expect(ExitCode(err)).To(Equal(ExitNavigation))
	Expect(report.Steps[0].Status).To(Equal(StatusFailed))
	for _, s := range report.Steps[1:] {
		Expect(s.Status).To(Equal(StatusSkipped))
	}
	session.AssertNotCalled(t, "ExpectVisible", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunnerFailureScreenshot(t *testing.T) {
	RegisterTestingT(t)

	driver, session := newMockDriver(t)
	session.On("Close").Return(nil)
	session.On("Screenshot", mock.Anything, "out/failure.png", true).Return(nil).Once()

	cfg := DefaultConfig()
	cfg.FailureScreenshot = "out/failure.png"
	r := NewRunner(driver, cfg,
		WithLogger(logging.NewNop()),
		WithSteps([]Step{step("broken", browser.Assertion(browser.Query("a"), "to be visible", nil))}),
	)

	report, err := r.Run(context.Background())
	Expect(err).ToNot(BeNil())
	Expect(report.FailureScreenshot).To(Equal("out/failure.png"))
}

func TestRunnerFailureScreenshotIsBestEffort(t *testing.T) {
	RegisterTestingT(t)

	driver, session := newMockDriver(t)
	session.On("Close").Return(nil)
	session.On("Screenshot", mock.Anything, "out/failure.png", true).Return(errors.New("page crashed"))

	cfg := DefaultConfig()
	cfg.FailureScreenshot = "out/failure.png"
	failure := browser.Assertion(browser.Query("a"), "to be visible", nil)
	r := NewRunner(driver, cfg, WithLogger(logging.NewNop()), WithSteps([]Step{step("broken", failure)}))

	report, err := r.Run(context.Background())
	Expect(err).To(MatchError(browser.ErrAssertion))
	Expect(report.FailureScreenshot).To(BeEmpty())
}

func TestRunnerOpenFailure(t *testing.T) {
	RegisterTestingT(t)

	driver := mocks.NewDriver(t)
	driver.On("Name").Return("mock")
	driver.On("Open", mock.Anything).Return(nil, errors.New("executable not found"))

	r := NewRunner(driver, DefaultConfig(), WithLogger(logging.NewNop()), WithSteps([]Step{step("a", nil), step("b", nil)}))
	report, err := r.Run(context.Background())
	Expect(err).To(MatchError(ContainSubstring("failed to open mock browser: executable not found")))
	Expect(ExitCode(err)).To(Equal(ExitSetup))
	Expect(report.Steps[0].Status).To(Equal(StatusSkipped))
	Expect(report.Steps[1].Status).To(Equal(StatusSkipped))
}

func TestRunnerCloseFailure(t *testing.T) {
	RegisterTestingT(t)

	driver, session := newMockDriver(t)
	session.On("Close").Return(errors.New("browser already gone"))

	r := NewRunner(driver, DefaultConfig(), WithLogger(logging.NewNop()), WithSteps([]Step{step("a", nil)}))
	report, err := r.Run(context.Background())
	Expect(err).To(MatchError(ContainSubstring("failed to close browser session")))
	Expect(report.Passed).To(BeFalse())
	Expect(report.Steps[0].Status).To(Equal(StatusPassed))
}

func TestRunnerCancelled(t *testing.T) {
	RegisterTestingT(t)

	driver, session := newMockDriver(t)
	session.On("Close").Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(driver, DefaultConfig(), WithLogger(logging.NewNop()), WithSteps([]Step{step("a", nil)}))
	report, err := r.Run(ctx)
	Expect(err).To(MatchError(context.Canceled))
	Expect(report.Steps[0].Status).To(Equal(StatusFailed))
}

func TestRunnerSpans(t *testing.T) {
	RegisterTestingT(t)

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	driver, session := newMockDriver(t)
	session.On("Close").Return(nil)

	r := NewRunner(driver, DefaultConfig(),
		WithLogger(logging.NewNop()),
		WithTracer(provider.Tracer("test")),
		WithSteps([]Step{step("ok", nil), step("bad", errors.New("boom")), step("never", nil)}),
	)
	_, err := r.Run(context.Background())
	Expect(err).ToNot(BeNil())

	spans := recorder.Ended()
	Expect(spans).To(HaveLen(3))

	byName := map[string]sdktrace.ReadOnlySpan{}
	for _, s := range spans {
		byName[s.Name()] = s
	}
	root := byName[SpanRun]
	Expect(root).ToNot(BeNil())
	Expect(root.Status().Code).To(Equal(codes.Error))
	Expect(byName["ok"].Parent().SpanID()).To(Equal(root.SpanContext().SpanID()))
	Expect(byName["bad"].Status().Code).To(Equal(codes.Error))
	Expect(byName["bad"].Events()).ToNot(BeEmpty())
	Expect(byName).ToNot(HaveKey("never"))
}

func TestExitCode(t *testing.T) {
	RegisterTestingT(t)

	Expect(ExitCode(nil)).To(Equal(ExitOK))
	Expect(ExitCode(&StepError{Err: browser.Navigation("u", nil)})).To(Equal(ExitNavigation))
	Expect(ExitCode(errors.Wrapf(browser.Assertion(browser.Query("a"), "x", nil), "wrapped"))).To(Equal(ExitAssertion))
	Expect(ExitCode(errors.New("config"))).To(Equal(ExitSetup))
}
