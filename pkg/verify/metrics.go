package verify

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const metricsJob = "chatbot_verify"

// Metrics holds the gauges pushed after a run.
type Metrics struct {
	registry     *prometheus.Registry
	success      prometheus.Gauge
	duration     prometheus.Gauge
	stepDuration *prometheus.GaugeVec
	lastRun      prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		success: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chatbot_verify_success",
			Help: "1 when the last verification passed, 0 otherwise",
		}),
		duration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chatbot_verify_run_duration_seconds",
			Help: "Wall time of the last verification run",
		}),
		stepDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "chatbot_verify_step_duration_seconds",
			Help: "Wall time of each executed step in the last run",
		}, []string{"step"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chatbot_verify_last_run_timestamp_seconds",
			Help: "Unix time the last verification run started",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records report. Skipped steps are left out.
func (m *Metrics) Observe(report *Report) {
	if report.Passed {
		m.success.Set(1)
	} else {
		m.success.Set(0)
	}
	m.duration.Set(report.Duration.Seconds())
	m.lastRun.Set(float64(report.StartedAt.UnixNano()) / 1e9)
	m.stepDuration.Reset()
	for _, s := range report.Steps {
		if s.Status == StatusSkipped || s.Status == StatusPending {
			continue
		}
		m.stepDuration.WithLabelValues(s.Name).Set(s.Duration.Seconds())
	}
}

// Push replaces the metrics of this driver's group on the Pushgateway at url.
func (m *Metrics) Push(ctx context.Context, url, driver string) error {
	err := push.New(url, metricsJob).
		Gatherer(m.registry).
		Grouping("driver", driver).
		PushContext(ctx)
	return errors.Wrapf(err, "failed to push metrics to %s", url)
}
