package browsertest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/onsi/gomega"

	"github.com/integrail/chatbot-verify/pkg/browser"
	"github.com/integrail/chatbot-verify/pkg/logging"
	"github.com/integrail/chatbot-verify/pkg/verify"
)

// ScenarioCase is one site variant and the step the verification run must
// stop at. An empty FailedStep means the run passes.
type ScenarioCase struct {
	Name       string
	Options    []Option
	Configure  func(cfg *verify.Config)
	FailedStep string
}

func ScenarioCases() []ScenarioCase {
	return []ScenarioCase{
		{Name: "default site passes"},
		{
			Name:      "answer at index 0 without greeting",
			Options:   []Option{WithoutGreeting()},
			Configure: func(cfg *verify.Config) { cfg.ResponseIndex = 0 },
		},
		{
			Name:       "widget opens too late",
			Options:    []Option{WithOpenDelay(3 * time.Second)},
			Configure:  func(cfg *verify.Config) { cfg.WidgetTimeout = time.Second },
			FailedStep: "widget-visible",
		},
		{
			Name:       "input disabled",
			Options:    []Option{WithDisabledInput()},
			FailedStep: "fill-query",
		},
		{
			Name:       "answer too late",
			Options:    []Option{WithReplyDelay(3 * time.Second)},
			Configure:  func(cfg *verify.Config) { cfg.ResponseTimeout = time.Second },
			FailedStep: "response-visible",
		},
		{
			Name:       "no greeting shifts the answer",
			Options:    []Option{WithoutGreeting()},
			FailedStep: "response-visible",
		},
		{
			Name:       "wrong topic id",
			Options:    []Option{WithTopicID("mobile-testing")},
			FailedStep: "response-link",
		},
		{
			Name:       "section index missing",
			Options:    []Option{WithoutSectionIndex()},
			FailedStep: "response-link",
		},
	}
}

// ScenarioConformance runs the full verification scenario through d against
// every ScenarioCases variant of the site. It skips when d cannot start a
// browser on this machine.
func ScenarioConformance(t *testing.T, d browser.Driver) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	s, err := d.Open(ctx)
	cancel()
	if err != nil {
		t.Skipf("%s browser not available: %v", d.Name(), err)
	}
	_ = s.Close()

	for _, tc := range ScenarioCases() {
		t.Run(tc.Name, func(t *testing.T) {
			runScenarioCase(t, d, tc)
		})
	}
}

func runScenarioCase(t *testing.T, d browser.Driver, tc ScenarioCase) {
	g := gomega.NewWithT(t)

	srv := NewServer(tc.Options...)
	defer srv.Close()

	dir := t.TempDir()
	cfg := verify.DefaultConfig()
	cfg.URL = IndexURL(srv)
	cfg.Driver = d.Name()
	cfg.Screenshot = filepath.Join(dir, "verification.png")
	cfg.FailureScreenshot = filepath.Join(dir, "failure.png")
	cfg.Timeout = time.Second
	cfg.WidgetTimeout = 2 * time.Second
	cfg.ResponseTimeout = 2 * time.Second
	if tc.Configure != nil {
		tc.Configure(&cfg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()
	report, err := verify.NewRunner(d, cfg, verify.WithLogger(logging.NewNop())).Run(ctx)
	g.Expect(report).NotTo(gomega.BeNil())
	g.Expect(report.Steps).To(gomega.HaveLen(len(verify.Scenario(cfg))))

	if tc.FailedStep == "" {
		g.Expect(err).To(gomega.BeNil())
		for _, step := range report.Steps {
			g.Expect(step.Status).To(gomega.Equal(verify.StatusPassed), "step %s", step.Name)
		}
		info, err := os.Stat(cfg.Screenshot)
		g.Expect(err).To(gomega.BeNil())
		g.Expect(info.Size()).To(gomega.BeNumerically(">", 0))
		return
	}

	g.Expect(verify.ExitCode(err)).To(gomega.Equal(verify.ExitAssertion), "got %v", err)
	failed, ok := report.FailedStep()
	g.Expect(ok).To(gomega.BeTrue())
	g.Expect(failed.Name).To(gomega.Equal(tc.FailedStep))
	for _, step := range report.Steps[:failed.Index] {
		g.Expect(step.Status).To(gomega.Equal(verify.StatusPassed), "step %s", step.Name)
	}
	for _, step := range report.Steps[failed.Index+1:] {
		g.Expect(step.Status).To(gomega.Equal(verify.StatusSkipped), "step %s", step.Name)
	}
	_, err = os.Stat(cfg.Screenshot)
	g.Expect(os.IsNotExist(err)).To(gomega.BeTrue())
}
