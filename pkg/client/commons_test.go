package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/integrail/chatbot-verify/pkg/client/dto"
	"github.com/integrail/chatbot-verify/pkg/logging"
)

const testAPIKey = "test-key"

type testReporter struct {
	mu       sync.Mutex
	messages []string
}

func (r *testReporter) Report(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *testReporter) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

// fakeBaas serves the async start/message endpoints. Replies are produced by
// the reply func keyed on the program line.
type fakeBaas struct {
	srv   *httptest.Server
	reply func(program string) dto.BrowserMessageOut

	mu       sync.Mutex
	config   dto.Config
	programs []string
	stopped  chan struct{}
	stopOnce sync.Once
}

func newFakeBaas(t *testing.T, reply func(program string) dto.BrowserMessageOut) *fakeBaas {
	f := &fakeBaas{reply: reply, stopped: make(chan struct{})}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/async/start", f.start)
	mux.HandleFunc("/api/async/message", f.message)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	t.Cleanup(f.stop)
	return f
}

func (f *fakeBaas) stop() {
	f.stopOnce.Do(func() { close(f.stopped) })
}

func (f *fakeBaas) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != "Bearer "+testAPIKey {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func (f *fakeBaas) start(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(w, r) {
		return
	}
	var cfg dto.Config
	_ = json.NewDecoder(r.Body).Decode(&cfg)
	f.mu.Lock()
	f.config = cfg
	f.mu.Unlock()

	_ = json.NewEncoder(w).Encode(dto.BrowserMessageOut{SessionID: "session-1"})
	w.(http.Flusher).Flush()

	select {
	case <-f.stopped:
		_ = json.NewEncoder(w).Encode(dto.BrowserMessageOut{SessionID: "session-1", Value: "stopped"})
	case <-r.Context().Done():
	}
}

func (f *fakeBaas) message(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(w, r) {
		return
	}
	var in dto.BrowserMessageIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.programs = append(f.programs, in.Program)
	f.mu.Unlock()

	out := dto.BrowserMessageOut{}
	if in.StopSession != nil && *in.StopSession {
		f.stop()
	} else if f.reply != nil {
		out = f.reply(in.Program)
	}
	out.SessionID = in.SessionID
	out.RequestID = in.RequestID

	// an unrelated event precedes the reply
	enc := json.NewEncoder(w)
	_ = enc.Encode(dto.BrowserMessageOut{SessionID: in.SessionID, RequestID: "other"})
	_ = enc.Encode(out)
}

func (f *fakeBaas) Programs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.programs...)
}

func (f *fakeBaas) Config() dto.Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.config
}

func newTestProgram(t *testing.T, f *fakeBaas, cfg Config) (Program, *testReporter) {
	RegisterTestingT(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	cfg.Url = f.srv.URL
	cfg.ApiKey = testAPIKey
	reporter := &testReporter{}
	p, err := NewProgram(ctx, cfg, reporter, WithLogger(logging.NewNop()))
	Expect(err).To(BeNil())
	t.Cleanup(func() { _ = p.Stop() })
	return p, reporter
}
