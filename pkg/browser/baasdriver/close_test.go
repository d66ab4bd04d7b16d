package baasdriver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/integrail/chatbot-verify/pkg/browser"
	"github.com/integrail/chatbot-verify/pkg/client"
	"github.com/integrail/chatbot-verify/pkg/client/dto"
	"github.com/integrail/chatbot-verify/pkg/logging"
)

// newStreamingBaas serves a session whose start stream ends as soon as the
// stop message arrives, the way the service does.
func newStreamingBaas(t *testing.T) *httptest.Server {
	stopped := make(chan struct{})
	var once sync.Once

	mux := http.NewServeMux()
	mux.HandleFunc("/api/async/start", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(dto.BrowserMessageOut{SessionID: "session-1"})
		w.(http.Flusher).Flush()
		select {
		case <-stopped:
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/api/async/message", func(w http.ResponseWriter, r *http.Request) {
		var in dto.BrowserMessageIn
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.StopSession != nil && *in.StopSession {
			once.Do(func() { close(stopped) })
			// let the stream close before the reply goes out
			time.Sleep(50 * time.Millisecond)
		}
		_ = json.NewEncoder(w).Encode(dto.BrowserMessageOut{SessionID: in.SessionID, RequestID: in.RequestID, Value: 200})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Cleanup(func() { once.Do(func() { close(stopped) }) })
	return srv
}

func TestCloseRealProgram(t *testing.T) {
	RegisterTestingT(t)

	srv := newStreamingBaas(t)
	d := New(client.Config{Url: srv.URL, ApiKey: "key"}, browser.DefaultOptions(), logging.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := d.Open(ctx)
	Expect(err).To(BeNil())

	Expect(s.Goto(ctx, "http://site.test")).To(Succeed())
	Expect(s.Close()).To(Succeed())
}
