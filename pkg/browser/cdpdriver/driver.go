// Package cdpdriver runs sessions on Chrome through chromedp.
package cdpdriver

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"

	"github.com/integrail/chatbot-verify/pkg/browser"
)

const Name = "chromedp"

type Driver struct {
	opts browser.Options
}

func New(opts browser.Options) *Driver {
	return &Driver{opts: opts}
}

func (d *Driver) Name() string {
	return Name
}

func (d *Driver) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", d.opts.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(d.opts.Width, d.opts.Height),
	)
	if d.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(d.opts.ExecPath))
	}
	return opts
}

func (d *Driver) Open(ctx context.Context) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// The browser outlives individual calls; Close tears it down.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), d.allocatorOptions()...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &session{
		tab:         tabCtx,
		cancelTab:   tabCancel,
		cancelAlloc: allocCancel,
		navTimeout:  d.opts.NavigationTimeout,
	}
	// The first Run allocates the browser and must not carry a timeout.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, errors.Wrapf(err, "failed to launch browser")
	}
	return s, nil
}

type session struct {
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	navTimeout  time.Duration
}

// run executes actions on the tab, bounded by timeout and by ctx.
func (s *session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.tab, browser.TimeoutOr(timeout))
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (s *session) Goto(ctx context.Context, url string) error {
	if err := s.run(ctx, s.navTimeout, chromedp.Navigate(url)); err != nil {
		return browser.Navigation(url, err)
	}
	return nil
}

func (s *session) Click(ctx context.Context, loc browser.Locator) error {
	err := s.run(ctx, 0, chromedp.Click(loc.JSExpr(), chromedp.ByJSPath))
	return errors.Wrapf(err, "failed to click %s", loc)
}

func (s *session) Fill(ctx context.Context, loc browser.Locator, value string) error {
	sel := loc.JSExpr()
	err := s.run(ctx, 0,
		chromedp.Clear(sel, chromedp.ByJSPath),
		chromedp.SendKeys(sel, value, chromedp.ByJSPath),
	)
	return errors.Wrapf(err, "failed to fill %s", loc)
}

func (s *session) Text(ctx context.Context, loc browser.Locator) (string, error) {
	var text string
	if err := s.run(ctx, 0, chromedp.TextContent(loc.JSExpr(), &text, chromedp.ByJSPath)); err != nil {
		return "", errors.Wrapf(err, "failed to read text of %s", loc)
	}
	return text, nil
}

func (s *session) ExpectVisible(ctx context.Context, loc browser.Locator, timeout time.Duration) error {
	if err := s.run(ctx, timeout, chromedp.WaitVisible(loc.JSExpr(), chromedp.ByJSPath)); err != nil {
		return browser.Assertion(loc, "to be visible", err)
	}
	return nil
}

// eval evaluates fn against the element loc resolves to, or null when absent.
func (s *session) eval(ctx context.Context, loc browser.Locator, fn string, res any) error {
	expr := fmt.Sprintf("((el) => el === null ? null : (%s)(el))(%s)", fn, loc.JSExpr())
	return s.run(ctx, 0, chromedp.Evaluate(expr, res))
}

func (s *session) ExpectEditable(ctx context.Context, loc browser.Locator, timeout time.Duration) error {
	err := browser.Poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		var editable *bool
		if err := s.eval(ctx, loc, "(el) => !el.disabled && !el.readOnly", &editable); err != nil {
			return false, err
		}
		switch {
		case editable == nil:
			return false, errors.New("element not found")
		case !*editable:
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
		var text *string
		if err := s.eval(ctx, loc, "(el) => el.textContent", &text); err != nil {
			return false, err
		}
		switch {
		case text == nil:
			return false, errors.New("element not found")
		case !strings.Contains(*text, substr):
			return false, errors.Errorf("text was %q", *text)
		}
		return true, nil
	})
	if err != nil {
		return browser.Assertion(loc, "to contain text "+strconv.Quote(substr), err)
	}
	return nil
}

func (s *session) ExpectAttribute(ctx context.Context, loc browser.Locator, name string, value *string, timeout time.Duration) error {
	fn := fmt.Sprintf("(el) => ({ value: el.getAttribute(%s) })", strconv.Quote(name))
	err := browser.Poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		var got *struct {
			Value *string `json:"value"`
		}
		if err := s.eval(ctx, loc, fn, &got); err != nil {
			return false, err
		}
		if got == nil {
			return false, errors.New("element not found")
		}
		return browser.AttributeMatches(got.Value, value)
	})
	if err != nil {
		return browser.Assertion(loc, browser.ExpectAttributeDesc(name, value), err)
	}
	return nil
}

func (s *session) Screenshot(ctx context.Context, path string, fullPage bool) error {
	var data []byte
	action := chromedp.CaptureScreenshot(&data)
	if fullPage {
		action = chromedp.FullScreenshot(&data, 100)
	}
	if err := s.run(ctx, 0, action); err != nil {
		return errors.Wrapf(err, "failed to capture screenshot")
	}
	return browser.WriteFile(path, data)
}

func (s *session) Close() error {
	err := chromedp.Cancel(s.tab)
	s.cancelTab()
	s.cancelAlloc()
	return errors.Wrapf(err, "failed to close browser")
}
