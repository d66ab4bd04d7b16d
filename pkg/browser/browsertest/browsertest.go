// Package browsertest serves a chatbot page honouring the DOM contract the
// verification scenario relies on, for driver and runner tests.
package browsertest

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"
)

//go:embed site/index.html
var indexHTML string

// Site tunes the fixture page behaviour.
type Site struct {
	Greeting         bool   `json:"greeting"`
	OpenDelayMs      int64  `json:"openDelayMs"`
	ReplyDelayMs     int64  `json:"replyDelayMs"`
	TopicID          string `json:"topicId,omitempty"`
	OmitSectionIndex bool   `json:"omitSectionIndex"`
	DisableInput     bool   `json:"disableInput"`
}

type Option func(s *Site)

// WithoutGreeting drops the initial bot message, so the answer lands at index 0.
func WithoutGreeting() Option {
	return func(s *Site) {
		s.Greeting = false
	}
}

func WithOpenDelay(d time.Duration) Option {
	return func(s *Site) {
		s.OpenDelayMs = d.Milliseconds()
	}
}

func WithReplyDelay(d time.Duration) Option {
	return func(s *Site) {
		s.ReplyDelayMs = d.Milliseconds()
	}
}

// WithTopicID forces the data-topic-id rendered on the answer link.
func WithTopicID(id string) Option {
	return func(s *Site) {
		s.TopicID = id
	}
}

func WithoutSectionIndex() Option {
	return func(s *Site) {
		s.OmitSectionIndex = true
	}
}

func WithDisabledInput() Option {
	return func(s *Site) {
		s.DisableInput = true
	}
}

// NewSite returns the default fixture: greeting on, widget opens after 50ms,
// answers after 100ms.
func NewSite(opts ...Option) Site {
	s := Site{
		Greeting:     true,
		OpenDelayMs:  50,
		ReplyDelayMs: 100,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// HTML renders the page with the site configuration embedded.
func (s Site) HTML() string {
	cfg, _ := json.Marshal(s)
	return strings.Replace(indexHTML, "{{CONFIG}}", string(cfg), 1)
}

// Handler serves the page at / and /index.html.
func (s Site) Handler() http.Handler {
	page := []byte(s.HTML())
	mux := http.NewServeMux()
	serve := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && r.URL.Path != "/index.html" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}
	mux.HandleFunc("/", serve)
	return mux
}

// NewServer starts an httptest server for the site; callers Close it.
func NewServer(opts ...Option) *httptest.Server {
	return httptest.NewServer(NewSite(opts...).Handler())
}

// IndexURL is the page URL of a server started by NewServer.
func IndexURL(srv *httptest.Server) string {
	return srv.URL + "/index.html"
}
