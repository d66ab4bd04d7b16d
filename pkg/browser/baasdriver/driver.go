// Package baasdriver runs sessions on a remote browser-as-a-service endpoint.
package baasdriver

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/integrail/chatbot-verify/pkg/browser"
	"github.com/integrail/chatbot-verify/pkg/client"
)

const Name = "baas"

// probeTimeout bounds each remote check issued while polling.
const probeTimeout = 100 * time.Millisecond

type newProgramFunc func(ctx context.Context, cfg client.Config, reporter client.Reporter, opts ...client.Option) (client.Program, error)

type Driver struct {
	cfg        client.Config
	opts       browser.Options
	log        *slog.Logger
	newProgram newProgramFunc
}

func New(cfg client.Config, opts browser.Options, log *slog.Logger) *Driver {
	cfg.LocalDebug = cfg.LocalDebug || !opts.Headless
	cfg.Width = lo.Ternary(cfg.Width > 0, cfg.Width, opts.Width)
	cfg.Height = lo.Ternary(cfg.Height > 0, cfg.Height, opts.Height)
	return &Driver{cfg: cfg, opts: opts, log: log, newProgram: client.NewProgram}
}

func (d *Driver) Name() string {
	return Name
}

func (d *Driver) Open(ctx context.Context) (browser.Session, error) {
	if d.cfg.Url == "" {
		return nil, errors.New("baas url is not configured")
	}
	p, err := d.newProgram(ctx, d.cfg, &logReporter{log: d.log}, client.WithLogger(d.log))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open baas session")
	}
	return &session{program: p, navTimeout: d.opts.NavigationTimeout, log: d.log}, nil
}

type logReporter struct {
	log *slog.Logger
}

func (r *logReporter) Report(msg string) {
	r.log.Debug(msg)
}

type session struct {
	program    client.Program
	navTimeout time.Duration
	log        *slog.Logger
}

// selector renders loc for the remote program. Plain CSS goes as is, chains
// with nth steps are sent as a JS expression.
func selector(loc browser.Locator, opts ...client.CallOption) (string, []client.CallOption) {
	if css, ok := loc.CSS(); ok {
		return css, opts
	}
	return loc.JSExpr(), append(opts, client.WithJSPath())
}

func timeoutOpt(d time.Duration) client.CallOption {
	return client.WithTimeout(browser.TimeoutOr(d).String())
}

func (s *session) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return browser.Navigation(url, err)
	}
	status, err := s.program.NavigateStatus(url, timeoutOpt(s.navTimeout))
	if err != nil {
		return browser.Navigation(url, err)
	}
	s.log.Debug("navigated", "url", url, "status", status)
	return nil
}

func (s *session) Click(ctx context.Context, loc browser.Locator) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sel, opts := selector(loc, timeoutOpt(0))
	return errors.Wrapf(s.program.Click(sel, opts...), "failed to click %s", loc)
}

func (s *session) Fill(ctx context.Context, loc browser.Locator, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sel, opts := selector(loc, timeoutOpt(0))
	return errors.Wrapf(s.program.SetValue(sel, value, opts...), "failed to fill %s", loc)
}

func (s *session) Text(ctx context.Context, loc browser.Locator) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sel, opts := selector(loc, timeoutOpt(0))
	text, err := s.program.Text(sel, opts...)
	return text, errors.Wrapf(err, "failed to read text of %s", loc)
}

func (s *session) ExpectVisible(ctx context.Context, loc browser.Locator, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return browser.Assertion(loc, "to be visible", err)
	}
	sel, opts := selector(loc, timeoutOpt(timeout))
	if err := s.program.WaitVisible(sel, opts...); err != nil {
		return browser.Assertion(loc, "to be visible", err)
	}
	return nil
}

func (s *session) ExpectEditable(ctx context.Context, loc browser.Locator, timeout time.Duration) error {
	sel, opts := selector(loc, timeoutOpt(probeTimeout))
	err := browser.Poll(ctx, timeout, func(context.Context) (bool, error) {
		editable, err := s.program.IsEditable(sel, opts...)
		if err != nil {
			return false, err
		}
		if !editable {
			return false, errors.New("element is disabled or read-only")
		}
		return true, nil
	})
	if err != nil {
		return browser.Assertion(loc, "to be editable", err)
	}
	return nil
}

func (s *session) ExpectText(ctx context.Context, loc browser.Locator, substr string, timeout time.Duration) error {
	sel, opts := selector(loc, timeoutOpt(probeTimeout))
	err := browser.Poll(ctx, timeout, func(context.Context) (bool, error) {
		text, err := s.program.Text(sel, opts...)
		if err != nil {
			return false, err
		}
		if !strings.Contains(text, substr) {
			return false, errors.Errorf("text was %q", text)
		}
		return true, nil
	})
	if err != nil {
		return browser.Assertion(loc, "to contain text "+strconv.Quote(substr), err)
	}
	return nil
}

func (s *session) ExpectAttribute(ctx context.Context, loc browser.Locator, name string, value *string, timeout time.Duration) error {
	sel, opts := selector(loc, timeoutOpt(probeTimeout))
	err := browser.Poll(ctx, timeout, func(context.Context) (bool, error) {
		got, err := s.program.GetAttribute(sel, name, opts...)
		if err != nil {
			return false, err
		}
		return browser.AttributeMatches(got, value)
	})
	if err != nil {
		return browser.Assertion(loc, browser.ExpectAttributeDesc(name, value), err)
	}
	return nil
}

func (s *session) Screenshot(ctx context.Context, path string, fullPage bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := lo.Ternary(fullPage, []client.CallOption{client.WithFullPage()}, nil)
	return errors.Wrapf(s.program.SaveScreenshot("verification", path, opts...), "failed to capture screenshot")
}

func (s *session) Close() error {
	return s.program.Stop()
}
