package browser

import (
	"context"
	"time"

	"github.com/samber/lo"
)

// DefaultTimeout applies to any expectation or action called with a zero timeout.
const DefaultTimeout = 5 * time.Second

const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

//go:generate ../../bin/mockery --name Driver --output ./mocks --outpkg mocks
//go:generate ../../bin/mockery --name Session --output ./mocks --outpkg mocks

// Driver starts browser sessions.
type Driver interface {
	Name() string
	Open(ctx context.Context) (Session, error)
}

// Session owns one browser and one page until Close.
type Session interface {
	Goto(ctx context.Context, url string) error
	Click(ctx context.Context, loc Locator) error
	Fill(ctx context.Context, loc Locator, value string) error
	Text(ctx context.Context, loc Locator) (string, error)
	ExpectVisible(ctx context.Context, loc Locator, timeout time.Duration) error
	ExpectEditable(ctx context.Context, loc Locator, timeout time.Duration) error
	ExpectText(ctx context.Context, loc Locator, substr string, timeout time.Duration) error
	// ExpectAttribute checks name equals *value, or only its presence when value is nil.
	ExpectAttribute(ctx context.Context, loc Locator, name string, value *string, timeout time.Duration) error
	Screenshot(ctx context.Context, path string, fullPage bool) error
	Close() error
}

// Options configures local browser drivers.
type Options struct {
	Headless          bool          `json:"headless" yaml:"headless"`
	Browser           string        `json:"browser" yaml:"browser"` // chromium, firefox or webkit (playwright only)
	ExecPath          string        `json:"execPath,omitempty" yaml:"execPath,omitempty"`
	Width             int           `json:"width" yaml:"width"`
	Height            int           `json:"height" yaml:"height"`
	NavigationTimeout time.Duration `json:"navigationTimeout" yaml:"navigationTimeout"`
}

func DefaultOptions() Options {
	return Options{
		Headless:          true,
		Browser:           "chromium",
		Width:             DefaultWidth,
		Height:            DefaultHeight,
		NavigationTimeout: 30 * time.Second,
	}
}

// TimeoutOr returns d, or DefaultTimeout when d is not positive.
func TimeoutOr(d time.Duration) time.Duration {
	return lo.Ternary(d > 0, d, DefaultTimeout)
}

// ExpectAttributeDesc describes an attribute expectation for error messages.
func ExpectAttributeDesc(name string, value *string) string {
	if value == nil {
		return "to have attribute " + name
	}
	return "to have attribute " + name + "=" + jsString(*value)
}
