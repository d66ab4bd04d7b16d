package verify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func sampleReport(passed bool) *Report {
	return &Report{
		RunID:     "run-1",
		Driver:    "rod",
		StartedAt: time.Unix(1700000000, 0),
		Duration:  3 * time.Second,
		Passed:    passed,
		Steps: []StepResult{
			{Index: 0, Name: "navigate", Status: StatusPassed, Duration: time.Second},
			{Index: 1, Name: "toggle-visible", Status: statusIf(passed, StatusPassed, StatusFailed), Duration: 2 * time.Second},
			{Index: 2, Name: "screenshot", Status: statusIf(passed, StatusPassed, StatusSkipped)},
		},
	}
}

func statusIf(cond bool, a, b Status) Status {
	if cond {
		return a
	}
	return b
}

func TestMetricsObserve(t *testing.T) {
	RegisterTestingT(t)

	m := NewMetrics()
	m.Observe(sampleReport(true))
	Expect(testutil.ToFloat64(m.success)).To(Equal(1.0))
	Expect(testutil.ToFloat64(m.duration)).To(Equal(3.0))
	Expect(testutil.ToFloat64(m.lastRun)).To(Equal(1700000000.0))
	Expect(testutil.ToFloat64(m.stepDuration.WithLabelValues("toggle-visible"))).To(Equal(2.0))
	Expect(testutil.CollectAndCount(m.stepDuration)).To(Equal(3))

	m.Observe(sampleReport(false))
	Expect(testutil.ToFloat64(m.success)).To(Equal(0.0))
	Expect(testutil.CollectAndCount(m.stepDuration)).To(Equal(2))

	expected := `
# HELP chatbot_verify_success 1 when the last verification passed, 0 otherwise
# TYPE chatbot_verify_success gauge
chatbot_verify_success 0
`
	Expect(testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "chatbot_verify_success")).To(Succeed())
}

func TestMetricsPush(t *testing.T) {
	RegisterTestingT(t)

	var (
		mu   sync.Mutex
		path string
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		path, body = r.URL.Path, string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMetrics()
	m.Observe(sampleReport(true))
	Expect(m.Push(context.Background(), srv.URL, "rod")).To(Succeed())

	mu.Lock()
	defer mu.Unlock()
	Expect(path).To(Equal("/metrics/job/chatbot_verify/driver/rod"))
	Expect(body).ToNot(BeEmpty())
}

func TestMetricsPushFailure(t *testing.T) {
	RegisterTestingT(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewMetrics().Push(context.Background(), srv.URL, "rod")
	Expect(err).To(MatchError(ContainSubstring("failed to push metrics")))
}
