package verify

import (
	"context"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/samber/lo"
	"github.com/stretchr/testify/mock"

	"github.com/integrail/chatbot-verify/pkg/browser"
	"github.com/integrail/chatbot-verify/pkg/browser/mocks"
	"github.com/integrail/chatbot-verify/pkg/logging"
)

func TestScenarioCallsSessionInOrder(t *testing.T) {
	RegisterTestingT(t)

	cfg := DefaultConfig()
	session := mocks.NewSession(t)
	driver := mocks.NewDriver(t)
	driver.On("Name").Return("mock")
	driver.On("Open", mock.Anything).Return(session, nil)

	toggle := browser.Query("#chatbot-toggle")
	response := browser.Query(".chatbot-message.bot").Nth(1)
	link := response.Locator("a.chatbot-link")
	input := browser.Query("#chatbot-input")

	mock.InOrder(
		session.On("Goto", mock.Anything, DefaultURL).Return(nil),
		session.On("ExpectVisible", mock.Anything, toggle, cfg.Timeout).Return(nil),
		session.On("Click", mock.Anything, toggle).Return(nil),
		session.On("ExpectVisible", mock.Anything, browser.Query("#chatbot-window"), cfg.WidgetTimeout).Return(nil),
		session.On("ExpectEditable", mock.Anything, input, cfg.Timeout).Return(nil),
		session.On("Fill", mock.Anything, input, "how to test on mobile?").Return(nil),
		session.On("Click", mock.Anything, browser.Query("#chatbot-send")).Return(nil),
		session.On("ExpectVisible", mock.Anything, response, cfg.ResponseTimeout).Return(nil),
		session.On("ExpectText", mock.Anything, response.Locator("strong"), "Web & Mobile Manual Testing", cfg.Timeout).Return(nil),
		session.On("ExpectVisible", mock.Anything, response.Locator(".search-snippet.content"), cfg.Timeout).Return(nil),
		session.On("ExpectVisible", mock.Anything, link, cfg.Timeout).Return(nil),
		session.On("ExpectAttribute", mock.Anything, link, "data-topic-id", lo.ToPtr("web-mobile-manual-testing"), cfg.Timeout).Return(nil),
		session.On("ExpectAttribute", mock.Anything, link, "data-section-index", (*string)(nil), cfg.Timeout).Return(nil),
		session.On("Screenshot", mock.Anything, "screenshots/verification.png", true).Return(nil),
		session.On("Close").Return(nil),
	)

	report, err := NewRunner(driver, cfg, WithLogger(logging.NewNop())).Run(context.Background())
	Expect(err).To(BeNil())
	Expect(report.Passed).To(BeTrue())
	Expect(report.Screenshot).To(Equal("screenshots/verification.png"))
	Expect(report.Steps).To(HaveLen(10))
	for _, s := range report.Steps {
		Expect(s.Status).To(Equal(StatusPassed), s.Name)
	}
}

func TestScenarioUsesResponseIndex(t *testing.T) {
	RegisterTestingT(t)

	cfg := DefaultConfig()
	cfg.ResponseIndex = 3
	cfg.Selectors.BotMessage = ".reply"

	steps := Scenario(cfg)
	step, found := lo.Find(steps, func(s Step) bool { return s.Name == "response-visible" })
	Expect(found).To(BeTrue())

	session := mocks.NewSession(t)
	session.On("ExpectVisible", mock.Anything, browser.Query(".reply").Nth(3), cfg.ResponseTimeout).Return(nil)
	Expect(step.Run(context.Background(), session)).To(Succeed())
}

func TestScenarioStepNames(t *testing.T) {
	RegisterTestingT(t)

	names := lo.Map(Scenario(DefaultConfig()), func(s Step, _ int) string { return s.Name })
	Expect(names).To(Equal([]string{
		"navigate",
		"toggle-visible",
		"open-widget",
		"widget-visible",
		"fill-query",
		"send-query",
		"response-visible",
		"response-content",
		"response-link",
		"screenshot",
	}))
}
