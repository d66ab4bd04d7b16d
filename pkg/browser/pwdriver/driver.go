// Package pwdriver runs sessions on Playwright (chromium, firefox or webkit).
package pwdriver

import (
	"context"
	"regexp"
	"strconv"
	"time"

	pw "github.com/playwright-community/playwright-go"
	"github.com/pkg/errors"

	"github.com/integrail/chatbot-verify/pkg/browser"
)

const Name = "playwright"

var anyValue = regexp.MustCompile(".*")

type Driver struct {
	opts browser.Options
}

func New(opts browser.Options) *Driver {
	return &Driver{opts: opts}
}

func (d *Driver) Name() string {
	return Name
}

// Install downloads the Playwright driver and the configured browser.
func Install(browsers ...string) error {
	if len(browsers) == 0 {
		browsers = []string{"chromium"}
	}
	return pw.Install(&pw.RunOptions{Browsers: browsers})
}

func (d *Driver) Open(ctx context.Context) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	runner, err := pw.Run()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to start playwright (run the install command first)")
	}

	launchOpts := pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(d.opts.Headless),
	}
	if d.opts.ExecPath != "" {
		launchOpts.ExecutablePath = pw.String(d.opts.ExecPath)
	}
	b, err := browserType(runner, d.opts.Browser).Launch(launchOpts)
	if err != nil {
		_ = runner.Stop()
		return nil, errors.Wrapf(err, "failed to launch %s", d.opts.Browser)
	}

	page, err := b.NewPage(pw.BrowserNewPageOptions{
		Viewport: &pw.Size{Width: d.opts.Width, Height: d.opts.Height},
	})
	if err != nil {
		_ = b.Close()
		_ = runner.Stop()
		return nil, errors.Wrapf(err, "failed to open page")
	}

	return &session{
		runner:     runner,
		browser:    b,
		page:       page,
		expect:     pw.NewPlaywrightAssertions(),
		navTimeout: d.opts.NavigationTimeout,
	}, nil
}

func browserType(runner *pw.Playwright, name string) pw.BrowserType {
	switch name {
	case "firefox":
		return runner.Firefox
	case "webkit":
		return runner.WebKit
	default:
		return runner.Chromium
	}
}

type session struct {
	runner     *pw.Playwright
	browser    pw.Browser
	page       pw.Page
	expect     pw.PlaywrightAssertions
	navTimeout time.Duration
}

func ms(d time.Duration) *float64 {
	return pw.Float(float64(browser.TimeoutOr(d).Milliseconds()))
}

// locate builds a fresh Playwright locator chain; Playwright resolves it lazily.
func (s *session) locate(loc browser.Locator) pw.Locator {
	var l pw.Locator
	for i, seg := range loc.Segments() {
		switch {
		case seg.IsNth:
			l = l.Nth(seg.Nth)
		case i == 0:
			l = s.page.Locator(seg.CSS)
		default:
			l = l.Locator(seg.CSS)
		}
	}
	return l
}

func (s *session) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.page.Goto(url, pw.PageGotoOptions{Timeout: ms(s.navTimeout)}); err != nil {
		return browser.Navigation(url, err)
	}
	return nil
}

func (s *session) Click(ctx context.Context, loc browser.Locator) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Wrapf(s.locate(loc).Click(pw.LocatorClickOptions{Timeout: ms(0)}), "failed to click %s", loc)
}

func (s *session) Fill(ctx context.Context, loc browser.Locator, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Wrapf(s.locate(loc).Fill(value, pw.LocatorFillOptions{Timeout: ms(0)}), "failed to fill %s", loc)
}

func (s *session) Text(ctx context.Context, loc browser.Locator) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := s.locate(loc).TextContent(pw.LocatorTextContentOptions{Timeout: ms(0)})
	if err != nil {
		return "", errors.Wrapf(err, "failed to read text of %s", loc)
	}
	return text, nil
}

func (s *session) ExpectVisible(ctx context.Context, loc browser.Locator, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.expect.Locator(s.locate(loc)).ToBeVisible(pw.LocatorAssertionsToBeVisibleOptions{Timeout: ms(timeout)})
	if err != nil {
		return browser.Assertion(loc, "to be visible", err)
	}
	return nil
}

func (s *session) ExpectEditable(ctx context.Context, loc browser.Locator, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.expect.Locator(s.locate(loc)).ToBeEditable(pw.LocatorAssertionsToBeEditableOptions{Timeout: ms(timeout)})
	if err != nil {
		return browser.Assertion(loc, "to be editable", err)
	}
	return nil
}

func (s *session) ExpectText(ctx context.Context, loc browser.Locator, substr string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.expect.Locator(s.locate(loc)).ToContainText(substr, pw.LocatorAssertionsToContainTextOptions{Timeout: ms(timeout)})
	if err != nil {
		return browser.Assertion(loc, "to contain text "+strconv.Quote(substr), err)
	}
	return nil
}

func (s *session) ExpectAttribute(ctx context.Context, loc browser.Locator, name string, value *string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var expected interface{} = anyValue
	if value != nil {
		expected = *value
	}
	err := s.expect.Locator(s.locate(loc)).ToHaveAttribute(name, expected, pw.LocatorAssertionsToHaveAttributeOptions{Timeout: ms(timeout)})
	if err != nil {
		return browser.Assertion(loc, browser.ExpectAttributeDesc(name, value), err)
	}
	return nil
}

func (s *session) Screenshot(ctx context.Context, path string, fullPage bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Playwright creates missing parent directories itself.
	_, err := s.page.Screenshot(pw.PageScreenshotOptions{
		Path:     pw.String(path),
		FullPage: pw.Bool(fullPage),
	})
	return errors.Wrapf(err, "failed to save screenshot to %s", path)
}

func (s *session) Close() error {
	browserErr := s.browser.Close()
	runnerErr := s.runner.Stop()
	if browserErr != nil {
		return errors.Wrapf(browserErr, "failed to close browser")
	}
	return errors.Wrapf(runnerErr, "failed to stop playwright")
}
