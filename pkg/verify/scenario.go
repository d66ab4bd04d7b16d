package verify

import (
	"context"

	"github.com/samber/lo"

	"github.com/integrail/chatbot-verify/pkg/browser"
)

// Step is one named action of the scenario. Steps run in order and the first
// failure stops the run.
type Step struct {
	Name string
	Run  func(ctx context.Context, s browser.Session) error
}

// Scenario builds the chatbot search check from cfg: open the widget, ask
// the query, inspect the answer and take a screenshot.
func Scenario(cfg Config) []Step {
	sel := cfg.Selectors
	toggle := browser.Query(sel.Toggle)
	window := browser.Query(sel.Window)
	input := browser.Query(sel.Input)
	send := browser.Query(sel.Send)
	response := browser.Query(sel.BotMessage).Nth(cfg.ResponseIndex)
	link := response.Locator(sel.Link)

	return []Step{
		{
			Name: "navigate",
			Run: func(ctx context.Context, s browser.Session) error {
				return s.Goto(ctx, cfg.URL)
			},
		},
		{
			Name: "toggle-visible",
			Run: func(ctx context.Context, s browser.Session) error {
				return s.ExpectVisible(ctx, toggle, cfg.Timeout)
			},
		},
		{
			Name: "open-widget",
			Run: func(ctx context.Context, s browser.Session) error {
				return s.Click(ctx, toggle)
			},
		},
		{
			Name: "widget-visible",
			Run: func(ctx context.Context, s browser.Session) error {
				return s.ExpectVisible(ctx, window, cfg.WidgetTimeout)
			},
		},
		{
			Name: "fill-query",
			Run: func(ctx context.Context, s browser.Session) error {
				if err := s.ExpectEditable(ctx, input, cfg.Timeout); err != nil {
					return err
				}
				return s.Fill(ctx, input, cfg.Query)
			},
		},
		{
			Name: "send-query",
			Run: func(ctx context.Context, s browser.Session) error {
				return s.Click(ctx, send)
			},
		},
		{
			Name: "response-visible",
			Run: func(ctx context.Context, s browser.Session) error {
				return s.ExpectVisible(ctx, response, cfg.ResponseTimeout)
			},
		},
		{
			Name: "response-content",
			Run: func(ctx context.Context, s browser.Session) error {
				if err := s.ExpectText(ctx, response.Locator(sel.Title), cfg.Expect.Title, cfg.Timeout); err != nil {
					return err
				}
				return s.ExpectVisible(ctx, response.Locator(sel.Snippet), cfg.Timeout)
			},
		},
		{
			Name: "response-link",
			Run: func(ctx context.Context, s browser.Session) error {
				if err := s.ExpectVisible(ctx, link, cfg.Timeout); err != nil {
					return err
				}
				if err := s.ExpectAttribute(ctx, link, cfg.Expect.TopicAttribute, lo.ToPtr(cfg.Expect.TopicID), cfg.Timeout); err != nil {
					return err
				}
				return s.ExpectAttribute(ctx, link, cfg.Expect.SectionAttribute, nil, cfg.Timeout)
			},
		},
		{
			Name: "screenshot",
			Run: func(ctx context.Context, s browser.Session) error {
				return s.Screenshot(ctx, cfg.Screenshot, true)
			},
		},
	}
}
