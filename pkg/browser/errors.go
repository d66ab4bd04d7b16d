package browser

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNavigation = errors.New("navigation failed")
	ErrAssertion  = errors.New("assertion failed")
)

// Error classifies a driver failure. errors.Is matches both Kind and the cause.
type Error struct {
	Kind    error
	Subject string
	Expect  string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Expect != "" {
		msg = fmt.Sprintf("%s: expected %s %s", msg, e.Subject, e.Expect)
	} else if e.Subject != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Subject)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Navigation reports that url could not be loaded.
func Navigation(url string, err error) error {
	return &Error{Kind: ErrNavigation, Subject: url, Err: err}
}

// Assertion reports that loc did not satisfy expect ("to be visible", ...).
func Assertion(loc Locator, expect string, err error) error {
	return &Error{Kind: ErrAssertion, Subject: loc.String(), Expect: expect, Err: err}
}
