// Package roddriver runs sessions on Chrome through go-rod.
package roddriver

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/pkg/errors"

	"github.com/integrail/chatbot-verify/pkg/browser"
)

const Name = "rod"

type Driver struct {
	opts browser.Options
}

func New(opts browser.Options) *Driver {
	return &Driver{opts: opts}
}

func (d *Driver) Name() string {
	return Name
}

func (d *Driver) Open(ctx context.Context) (browser.Session, error) {
	// Leakless extraction fails on locked-down temp dirs.
	l := launcher.New().Headless(d.opts.Headless).Leakless(false)
	if d.opts.ExecPath != "" {
		l = l.Bin(d.opts.ExecPath)
	}
	u, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to launch browser")
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, errors.Wrapf(err, "failed to connect to browser")
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, errors.Wrapf(err, "failed to open page")
	}
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             d.opts.Width,
		Height:            d.opts.Height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, errors.Wrapf(err, "failed to set viewport")
	}

	return &session{
		launcher:   l,
		browser:    b,
		page:       page,
		navTimeout: d.opts.NavigationTimeout,
	}, nil
}

type session struct {
	launcher   *launcher.Launcher
	browser    *rod.Browser
	page       *rod.Page
	navTimeout time.Duration
}

// element waits up to timeout for loc to resolve. The element shares the
// returned context, so callers must cancel it once done.
func (s *session) element(ctx context.Context, loc browser.Locator, timeout time.Duration) (*rod.Element, context.CancelFunc, error) {
	ctx, cancel := context.WithTimeout(ctx, browser.TimeoutOr(timeout))
	el, err := s.page.Context(ctx).ElementByJS(rod.Eval(loc.JSFunc()))
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return el, cancel, nil
}

// probe resolves loc once without waiting.
func (s *session) probe(ctx context.Context, loc browser.Locator) (*rod.Element, error) {
	return s.page.Context(ctx).Sleeper(rod.NotFoundSleeper).ElementByJS(rod.Eval(loc.JSFunc()))
}

func (s *session) Goto(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, browser.TimeoutOr(s.navTimeout))
	defer cancel()
	page := s.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return browser.Navigation(url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return browser.Navigation(url, err)
	}
	return nil
}

func (s *session) Click(ctx context.Context, loc browser.Locator) error {
	el, cancel, err := s.element(ctx, loc, 0)
	if err != nil {
		return errors.Wrapf(err, "failed to find %s", loc)
	}
	defer cancel()
	return errors.Wrapf(el.Click(proto.InputMouseButtonLeft, 1), "failed to click %s", loc)
}

func (s *session) Fill(ctx context.Context, loc browser.Locator, value string) error {
	el, cancel, err := s.element(ctx, loc, 0)
	if err != nil {
		return errors.Wrapf(err, "failed to find %s", loc)
	}
	defer cancel()
	if err := el.SelectAllText(); err != nil {
		return errors.Wrapf(err, "failed to clear %s", loc)
	}
	return errors.Wrapf(el.Input(value), "failed to fill %s", loc)
}

func (s *session) Text(ctx context.Context, loc browser.Locator) (string, error) {
	el, cancel, err := s.element(ctx, loc, 0)
	if err != nil {
		return "", errors.Wrapf(err, "failed to find %s", loc)
	}
	defer cancel()
	return textContent(el)
}

func textContent(el *rod.Element) (string, error) {
	res, err := el.Eval(`() => this.textContent`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (s *session) ExpectVisible(ctx context.Context, loc browser.Locator, timeout time.Duration) error {
	el, cancel, err := s.element(ctx, loc, timeout)
	if err != nil {
		return browser.Assertion(loc, "to be visible", err)
	}
	defer cancel()
	if err := el.WaitVisible(); err != nil {
		return browser.Assertion(loc, "to be visible", err)
	}
	return nil
}

func (s *session) ExpectEditable(ctx context.Context, loc browser.Locator, timeout time.Duration) error {
	err := browser.Poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		el, err := s.probe(ctx, loc)
		if err != nil {
			return false, err
		}
		res, err := el.Eval(`() => !this.disabled && !this.readOnly`)
		if err != nil {
			return false, err
		}
		if !res.Value.Bool() {
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
	err := browser.Poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		el, err := s.probe(ctx, loc)
		if err != nil {
			return false, err
		}
		text, err := textContent(el)
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
	err := browser.Poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		el, err := s.probe(ctx, loc)
		if err != nil {
			return false, err
		}
		got, err := el.Attribute(name)
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
	data, err := s.page.Context(ctx).Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to capture screenshot")
	}
	return browser.WriteFile(path, data)
}

func (s *session) Close() error {
	pageErr := s.page.Close()
	browserErr := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	if browserErr != nil {
		return errors.Wrapf(browserErr, "failed to close browser")
	}
	return errors.Wrapf(pageErr, "failed to close page")
}
