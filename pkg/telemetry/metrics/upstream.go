package metrics

import (
	"time"

	"relay-hq/gemini/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics tracks calls from the relay to the Gemini API.
//
// Metrics:
//   - gemini_relay_upstream_requests_total: calls by model and status class
//   - gemini_relay_upstream_latency_seconds: call latency histogram
//   - gemini_relay_upstream_errors_total: failed calls by error type
type UpstreamMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// NewUpstreamMetrics creates and registers upstream metrics with the provided registry.
func NewUpstreamMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_requests_total",
				Help:      "Total number of generateContent calls by status class",
			},
			[]string{"model", "status_class"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_latency_seconds",
				Help:      "generateContent call latency in seconds",
				Buckets:   durationBuckets,
			},
			[]string{"model"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_errors_total",
				Help:      "Total number of failed generateContent calls by error type",
			},
			[]string{"model", "error_type"},
		),
	}

	registry.MustRegister(
		um.requests,
		um.latency,
		um.errors,
	)

	return um
}

// RecordCall records one upstream call.
func (um *UpstreamMetrics) RecordCall(model string, status int, latency time.Duration) {
	um.requests.WithLabelValues(model, StatusClass(status)).Inc()
	um.latency.WithLabelValues(model).Observe(latency.Seconds())
}

// RecordError records a failed upstream call.
func (um *UpstreamMetrics) RecordError(model, errorType string) {
	um.errors.WithLabelValues(model, errorType).Inc()
}

// StatusClass buckets an HTTP status into "2xx", "4xx", ... Zero becomes "none".
func StatusClass(status int) string {
	switch {
	case status <= 0:
		return "none"
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
