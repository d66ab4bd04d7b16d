// Package drivers maps driver names to browser.Driver implementations.
package drivers

import (
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/integrail/chatbot-verify/pkg/browser"
	"github.com/integrail/chatbot-verify/pkg/browser/baasdriver"
	"github.com/integrail/chatbot-verify/pkg/browser/cdpdriver"
	"github.com/integrail/chatbot-verify/pkg/browser/pwdriver"
	"github.com/integrail/chatbot-verify/pkg/browser/roddriver"
	"github.com/integrail/chatbot-verify/pkg/client"
)

// Default is used when no driver is configured.
const Default = pwdriver.Name

// Names lists the supported drivers, default first.
var Names = []string{pwdriver.Name, roddriver.Name, cdpdriver.Name, baasdriver.Name}

func Known(name string) bool {
	return lo.Contains(Names, name)
}

func New(name string, opts browser.Options, baas client.Config, log *slog.Logger) (browser.Driver, error) {
	switch lo.Ternary(name == "", Default, name) {
	case pwdriver.Name:
		return pwdriver.New(opts), nil
	case roddriver.Name:
		return roddriver.New(opts), nil
	case cdpdriver.Name:
		return cdpdriver.New(opts), nil
	case baasdriver.Name:
		return baasdriver.New(baas, opts, log), nil
	}
	return nil, errors.Errorf("unknown driver %q (expected one of %s)", name, strings.Join(Names, ", "))
}
