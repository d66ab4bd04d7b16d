package drivers_test

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/integrail/chatbot-verify/pkg/browser"
	"github.com/integrail/chatbot-verify/pkg/browser/drivers"
	"github.com/integrail/chatbot-verify/pkg/client"
	"github.com/integrail/chatbot-verify/pkg/logging"
)

func TestNew(t *testing.T) {
	RegisterTestingT(t)

	for _, name := range drivers.Names {
		d, err := drivers.New(name, browser.DefaultOptions(), client.Config{}, logging.NewNop())
		Expect(err).To(BeNil())
		Expect(d.Name()).To(Equal(name))
		Expect(drivers.Known(name)).To(BeTrue())
	}

	d, err := drivers.New("", browser.DefaultOptions(), client.Config{}, logging.NewNop())
	Expect(err).To(BeNil())
	Expect(d.Name()).To(Equal(drivers.Default))
}

func TestNewUnknown(t *testing.T) {
	RegisterTestingT(t)

	_, err := drivers.New("selenium", browser.DefaultOptions(), client.Config{}, logging.NewNop())
	Expect(err).To(MatchError(ContainSubstring(`unknown driver "selenium"`)))
	Expect(drivers.Known("selenium")).To(BeFalse())
}
