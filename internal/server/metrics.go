package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/michaelbrown/conceptloop/internal/runner"
)

// Metrics records verification activity for the /metrics endpoint.
type Metrics struct {
	registry *prometheus.Registry

	Runs     *prometheus.CounterVec
	Cases    *prometheus.CounterVec
	Duration prometheus.Histogram
}

// NewMetrics registers the collectors on a private registry so several
// servers can coexist in one process.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "conceptloop_runs_total",
			Help: "Verification runs by overall outcome",
		}, []string{"all_passed"}),
		Cases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "conceptloop_cases_total",
			Help: "Test case results by error kind (empty when the case produced a value)",
		}, []string{"passed", "kind"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "conceptloop_run_duration_seconds",
			Help:    "Wall time of a verification run",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	m.registry.MustRegister(m.Runs, m.Cases, m.Duration)
	return m
}

// Observe records a finished report.
func (m *Metrics) Observe(rep *runner.Report) {
	m.Runs.WithLabelValues(strconv.FormatBool(rep.AllPassed)).Inc()
	for _, res := range rep.Results {
		m.Cases.WithLabelValues(strconv.FormatBool(res.Passed), string(res.ErrorKind)).Inc()
	}
	m.Duration.Observe(rep.Duration.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
