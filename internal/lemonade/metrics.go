package lemonade

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for the panel's outbound requests.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	fallbacksTotal  prometheus.Counter
	probeFailures   *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *Metrics
)

// NewMetrics creates the metrics collector. Registration is process-wide,
// so repeated calls return the same instance.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInst = &Metrics{
			requestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lemonade_panel_requests_total",
					Help: "Total number of requests issued to the Lemonade server",
				},
				[]string{"endpoint", "status"},
			),
			requestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "lemonade_panel_request_duration_seconds",
					Help:    "Request duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"endpoint"},
			),
			fallbacksTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "lemonade_panel_fallback_attempts_total",
					Help: "Total number of times a request moved on to a fallback host candidate",
				},
			),
			probeFailures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lemonade_panel_overview_probe_failures_total",
					Help: "Total number of failed probes during overview fan-outs",
				},
				[]string{"endpoint"},
			),
		}
	})
	return metricsInst
}

// RecordRequest records a completed request attempt chain.
func (m *Metrics) RecordRequest(endpoint, status string, duration time.Duration) {
	if m == nil {
		return
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.requestsTotal.WithLabelValues(endpoint, status).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordFallback records a move to the next host candidate.
func (m *Metrics) RecordFallback() {
	if m == nil {
		return
	}
	m.fallbacksTotal.Inc()
}

// RecordProbeFailure records a failed slot in an overview fan-out.
func (m *Metrics) RecordProbeFailure(endpoint string) {
	if m == nil {
		return
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	m.probeFailures.WithLabelValues(endpoint).Inc()
}
