package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/savioxavier/termlink"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/integrail/chatbot-verify/pkg/client/dto"
)

// Program drives one remote browser session. Every call is rendered as a
// single program line, e.g. click("#chatbot-send", {"timeout":"5s"}).
type Program interface {
	Error() error
	SessionID() string
	Navigate(url string, opts ...CallOption) error
	NavigateStatus(url string, opts ...CallOption) (int, error)
	Click(selector string, opts ...CallOption) error
	SetValue(selector, value string, opts ...CallOption) error
	WaitVisible(selector string, opts ...CallOption) error
	IsEditable(selector string, opts ...CallOption) (bool, error)
	Text(selector string, opts ...CallOption) (string, error)
	GetAttribute(selector, name string, opts ...CallOption) (*string, error)
	TakeScreenshot(name string, opts ...CallOption) ([]byte, error)
	SaveScreenshot(name string, fileName string, opts ...CallOption) error
	Stop() error
}

type Reporter interface {
	Report(msg string)
}

type Config struct {
	UseProxy       bool                `json:"useProxy" yaml:"useProxy"`
	LocalDebug     bool                `json:"localDebug" yaml:"localDebug"`
	Url            string              `json:"url" yaml:"url"`
	ApiKey         string              `json:"apiKey" yaml:"apiKey"`
	Timeout        string              `json:"timeout" yaml:"timeout"`
	MessageTimeout string              `json:"messageTimeout" yaml:"messageTimeout"`
	Width          int                 `json:"width,omitempty" yaml:"width,omitempty"`
	Height         int                 `json:"height,omitempty" yaml:"height,omitempty"`
	Cookies        []dto.BrowserCookie `json:"cookies,omitempty" yaml:"cookies,omitempty"`
}

type Option func(p *program)

func WithLogger(log *slog.Logger) Option {
	return func(p *program) {
		p.log = log
	}
}

func WithSecrets(secrets map[string]string) Option {
	return func(p *program) {
		p.secrets = secrets
	}
}

type callOptions map[string]any

// CallOption adds a key to the trailing options object of a program call.
type CallOption func(o callOptions)

func WithTimeout(timeout string) CallOption {
	return func(o callOptions) {
		delete(o, "noTimeout")
		o["timeout"] = timeout
	}
}

func WithoutTimeout() CallOption {
	return func(o callOptions) {
		delete(o, "timeout")
		o["noTimeout"] = true
	}
}

func WithIncludeInvisible() CallOption {
	return func(o callOptions) {
		o["includeInvisible"] = true
	}
}

// WithSelector scopes the call to elements inside the given parent selector.
func WithSelector(selector string) CallOption {
	return func(o callOptions) {
		o["selector"] = selector
	}
}

// WithJSPath makes the selector argument a JavaScript expression returning the element.
func WithJSPath() CallOption {
	return func(o callOptions) {
		o["jsPath"] = true
	}
}

func WithFullPage() CallOption {
	return func(o callOptions) {
		o["fullPage"] = true
	}
}

func NewProgram(ctx context.Context, cfg Config, reporter Reporter, opts ...Option) (Program, error) {
	ctx, cancel := context.WithCancel(ctx)

	p := &program{
		ctx:            ctx,
		cancel:         cancel,
		reporter:       reporter,
		log:            slog.Default(),
		messageTimeout: lo.Ternary(cfg.MessageTimeout != "", cfg.MessageTimeout, "60s"),
		done:           make(chan struct{}),
	}

	for _, opt := range opts {
		opt(p)
	}
	p.client = NewClient(cfg.Url, cfg.ApiKey, time.Second*30, p.log)

	started := make(chan error, 1)
	go func() {
		defer close(p.done)
		defer cancel()
		res, wait, err := p.client.RunAsync(ctx, dto.Config{
			Browser: dto.BrowserOpts{
				Headful:          cfg.LocalDebug,
				ReturnScreenshot: lo.ToPtr(true),
				Timeout:          cfg.Timeout,
				Cookies:          cfg.Cookies,
				Width:            lo.EmptyableToPtr(cfg.Width),
				Height:           lo.EmptyableToPtr(cfg.Height),
			},
			UseRandomProxy: lo.ToPtr(cfg.UseProxy),
		})
		if err == nil && res.Error != "" {
			err = errors.Errorf("%s", res.Error)
		}
		if err != nil {
			started <- err
			return
		}
		p.sessionID = res.SessionID
		started <- nil
		wait()
		p.exitWithError(errors.Errorf("session %s ended", res.SessionID))
	}()

	reporter.Report("Waiting for sessionID...")
	select {
	case err := <-started:
		if err != nil {
			return nil, errors.Wrapf(err, "failed to start browser session")
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	reporter.Report("Got sessionID: " + p.sessionID)

	return p, nil
}

type program struct {
	client         Client
	ctx            context.Context
	cancel         func()
	sessionID      string
	reporter       Reporter
	log            *slog.Logger
	secrets        map[string]string
	messageTimeout string
	done           chan struct{}

	mu      sync.Mutex
	err     error
	stopped bool
}

func (p *program) Error() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *program) SessionID() string {
	return p.sessionID
}

func (p *program) exitWithError(err error) {
	p.mu.Lock()
	if p.err == nil && !p.stopped {
		p.err = err
	}
	p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *program) functionCallN(name string, args ...any) string {
	opts := callOptions{}
	params := make([]string, 0, len(args)+1)
	for _, arg := range args {
		switch a := arg.(type) {
		case CallOption:
			a(opts)
		default:
			params = append(params, jsonValue(a))
		}
	}
	if len(opts) > 0 {
		params = append(params, jsonValue(map[string]any(opts)))
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(params, ", "))
}

func (p *program) functionCall0(name string, opts ...CallOption) string {
	return p.functionCallN(name, lo.ToAnySlice(opts)...)
}

func (p *program) functionCall1(name string, arg string, opts ...CallOption) string {
	return p.functionCallN(name, append([]any{arg}, lo.ToAnySlice(opts)...)...)
}

func (p *program) functionCall2(name string, arg1, arg2 string, opts ...CallOption) string {
	return p.functionCallN(name, append([]any{arg1, arg2}, lo.ToAnySlice(opts)...)...)
}

func jsonValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func (p *program) runProgram(prog string) (*dto.BrowserMessageOut, error) {
	if err := p.Error(); err != nil {
		return nil, err
	}
	p.reporter.Report(fmt.Sprintf("Executing %s...", prog))
	res, err := p.client.Message(p.ctx, dto.BrowserMessageIn{
		SessionID: p.sessionID,
		Program:   prog,
		Secrets:   p.secrets,
		Timeout:   p.messageTimeout,
	})
	p.log.Debug("baas program result", "program", prog, "value", lo.FromPtr(res).Value, "error", lo.FromPtr(res).Error)
	if err != nil {
		return nil, err
	}
	if res.Error != "" {
		return nil, errors.Errorf("%s", res.Error)
	}
	return res, nil
}

func (p *program) Click(selector string, opts ...CallOption) error {
	_, err := p.runProgram(p.functionCall1("click", selector, opts...))
	return err
}

func (p *program) SetValue(selector, value string, opts ...CallOption) error {
	_, err := p.runProgram(p.functionCall2("setValue", selector, value, opts...))
	return err
}

func (p *program) WaitVisible(selector string, opts ...CallOption) error {
	_, err := p.runProgram(p.functionCall1("waitVisible", selector, opts...))
	return err
}

func (p *program) IsEditable(selector string, opts ...CallOption) (bool, error) {
	res, err := p.runProgram(p.functionCall1("isEditable", selector, opts...))
	if err != nil {
		return false, err
	}
	editable, ok := res.Value.(bool)
	if !ok {
		return false, errors.Errorf("isEditable returned %T instead of bool", res.Value)
	}
	return editable, nil
}

func (p *program) Text(selector string, opts ...CallOption) (string, error) {
	res, err := p.runProgram(p.functionCall1("text", selector, opts...))
	if err != nil {
		return "", err
	}
	if res.Value == nil {
		return "", nil
	}
	text, ok := res.Value.(string)
	if !ok {
		return "", errors.Errorf("text returned %T instead of string", res.Value)
	}
	return text, nil
}

// GetAttribute returns nil when the element has no such attribute.
func (p *program) GetAttribute(selector, name string, opts ...CallOption) (*string, error) {
	res, err := p.runProgram(p.functionCall2("getAttribute", selector, name, opts...))
	if err != nil {
		return nil, err
	}
	if res.Value == nil {
		return nil, nil
	}
	value, ok := res.Value.(string)
	if !ok {
		return nil, errors.Errorf("getAttribute returned %T instead of string", res.Value)
	}
	return &value, nil
}

func (p *program) Navigate(url string, opts ...CallOption) error {
	_, err := p.runProgram(p.functionCall1("navigate", url, opts...))
	return err
}

func (p *program) NavigateStatus(url string, opts ...CallOption) (int, error) {
	res, err := p.runProgram(p.functionCall1("navigateStatus", url, opts...))
	if err != nil {
		return 0, err
	}
	status, ok := res.Value.(float64)
	if !ok {
		return 0, errors.Errorf("Failed to convert status code to int %v", res.Value)
	}
	return int(status), nil
}

func (p *program) TakeScreenshot(name string, opts ...CallOption) ([]byte, error) {
	res, err := p.runProgram(p.functionCall1("takeScreenshot", name, opts...))
	if err != nil {
		return nil, err
	}
	if len(res.Screenshots[name]) == 0 {
		return nil, errors.Errorf("screenshot with name %s wasn't returned", name)
	}
	return res.Screenshots[name], nil
}

func (p *program) SaveScreenshot(name string, fileName string, opts ...CallOption) error {
	screenshot, err := p.TakeScreenshot(name, opts...)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(fileName); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create %s", dir)
		}
	}
	if err := os.WriteFile(fileName, screenshot, 0o644); err != nil {
		p.reporter.Report(fmt.Sprintf("failed to save %q to %s: %q", name, fileName, err.Error()))
		return errors.Wrapf(err, "failed to save %q to %s", name, fileName)
	}
	abs, _ := filepath.Abs(fileName)
	p.reporter.Report(fmt.Sprintf("%q saved to ", name) +
		termlink.ColorLink(fileName, fmt.Sprintf("file://%s", abs), "italic green"))
	return nil
}

const stopTimeout = 30 * time.Second

// Stop asks the service to end the session and waits for the stream to close.
func (p *program) Stop() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.mu.Unlock()

	var err error
	if p.ctx.Err() == nil {
		// The service closes the start stream on stop, which cancels p.ctx
		// before the reply to this message arrives.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(p.ctx), stopTimeout)
		defer cancel()
		_, err = p.client.Message(ctx, dto.BrowserMessageIn{
			SessionID:   p.sessionID,
			Program:     p.functionCall0("stop"),
			Timeout:     p.messageTimeout,
			StopSession: lo.ToPtr(true),
		})
	}
	p.cancel()

	select {
	case <-p.done:
	case <-time.After(5 * time.Second):
		return errors.Errorf("session %s did not terminate", p.sessionID)
	}
	return errors.Wrapf(err, "failed to stop session %s", p.sessionID)
}
