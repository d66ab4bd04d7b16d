// Package verify runs the chatbot search scenario against a browser session
// and reports what happened.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/integrail/chatbot-verify/pkg/browser"
)

// SuccessMessage is printed once a run passes.
const SuccessMessage = "Verification script for the smart chatbot ran successfully and a screenshot was taken."

// failureScreenshotTimeout bounds the best-effort capture after a failed step.
const failureScreenshotTimeout = 10 * time.Second

// StepError wraps the failure of one scenario step.
type StepError struct {
	Index int
	Name  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index+1, e.Name, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

type Runner struct {
	driver   browser.Driver
	cfg      Config
	steps    []Step
	log      *slog.Logger
	reporter Reporter
	tracer   trace.Tracer
	now      func() time.Time
}

type Option func(r *Runner)

func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

func WithReporter(reporter Reporter) Option {
	return func(r *Runner) {
		r.reporter = reporter
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(r *Runner) {
		r.tracer = tracer
	}
}

// WithSteps replaces the scenario built from the config.
func WithSteps(steps []Step) Option {
	return func(r *Runner) {
		r.steps = steps
	}
}

func NewRunner(driver browser.Driver, cfg Config, opts ...Option) *Runner {
	r := &Runner{
		driver: driver,
		cfg:    cfg,
		steps:  Scenario(cfg),
		log:    slog.Default(),
		tracer: defaultTracer(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.reporter == nil {
		r.reporter = NewLogReporter(r.log)
	}
	return r
}

// Run opens one session, executes the steps in order and always closes the
// session. The report is returned even when err is not nil.
func (r *Runner) Run(ctx context.Context) (report *Report, err error) {
	report = &Report{
		RunID:     uuid.NewString(),
		Driver:    r.driver.Name(),
		URL:       r.cfg.URL,
		StartedAt: r.now(),
		Steps: lo.Map(r.steps, func(s Step, i int) StepResult {
			return StepResult{Index: i, Name: s.Name, Status: StatusPending}
		}),
	}

	ctx, span := r.tracer.Start(ctx, SpanRun, trace.WithAttributes(
		AttrRunID.String(report.RunID),
		AttrDriver.String(report.Driver),
		AttrURL.String(report.URL),
	))
	defer func() {
		report.Duration = r.now().Sub(report.StartedAt)
		report.Seconds = report.Duration.Seconds()
		report.Passed = err == nil
		if err != nil {
			report.Error = err.Error()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		r.reporter.RunFinished(report)
	}()

	r.reporter.RunStarted(RunInfo{
		RunID:  report.RunID,
		Driver: report.Driver,
		URL:    report.URL,
		Steps:  lo.Map(r.steps, func(s Step, _ int) string { return s.Name }),
	})

	session, err := r.driver.Open(ctx)
	if err != nil {
		r.skipFrom(report, 0)
		return report, errors.Wrapf(err, "failed to open %s browser", r.driver.Name())
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			r.log.Warn("failed to close browser session", "err", cerr)
			if err == nil {
				err = errors.Wrapf(cerr, "failed to close browser session")
			}
		}
	}()

	for i, step := range r.steps {
		if err := r.runStep(ctx, session, report, i, step); err != nil {
			r.skipFrom(report, i+1)
			if r.cfg.FailureScreenshot != "" {
				r.captureFailure(ctx, session, report)
			}
			return report, err
		}
	}
	report.Screenshot = r.cfg.Screenshot
	return report, nil
}

func (r *Runner) runStep(ctx context.Context, session browser.Session, report *Report, i int, step Step) error {
	ctx, span := r.tracer.Start(ctx, step.Name, trace.WithAttributes(
		AttrStep.String(step.Name),
		AttrIndex.Int(i),
	))
	defer span.End()

	res := &report.Steps[i]
	res.Status = StatusRunning
	r.reporter.StepStarted(i, step.Name)

	start := r.now()
	err := ctx.Err()
	if err == nil {
		err = step.Run(ctx, session)
	}
	res.Duration = r.now().Sub(start)
	res.Seconds = res.Duration.Seconds()

	if err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.reporter.StepFinished(*res)
		return &StepError{Index: i, Name: step.Name, Err: err}
	}
	res.Status = StatusPassed
	r.reporter.StepFinished(*res)
	return nil
}

func (r *Runner) skipFrom(report *Report, from int) {
	for i := from; i < len(report.Steps); i++ {
		report.Steps[i].Status = StatusSkipped
		r.reporter.StepFinished(report.Steps[i])
	}
}

func (r *Runner) captureFailure(ctx context.Context, session browser.Session, report *Report) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureScreenshotTimeout)
	defer cancel()
	if err := session.Screenshot(ctx, r.cfg.FailureScreenshot, true); err != nil {
		r.log.Warn("failed to capture failure screenshot", "path", r.cfg.FailureScreenshot, "err", err)
		return
	}
	report.FailureScreenshot = r.cfg.FailureScreenshot
	r.reporter.Report("failure screenshot saved to " + r.cfg.FailureScreenshot)
}

// Process exit codes for a finished run.
const (
	ExitOK         = 0
	ExitAssertion  = 1
	ExitNavigation = 2
	ExitSetup      = 3
)

// ExitCode classifies err from Run or from the setup leading to it.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, browser.ErrNavigation):
		return ExitNavigation
	case errors.Is(err, browser.ErrAssertion):
		return ExitAssertion
	}
	return ExitSetup
}
