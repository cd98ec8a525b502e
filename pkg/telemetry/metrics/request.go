package metrics

import (
	"strconv"
	"time"

	"relay-hq/gemini/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RelayMetrics tracks requests handled by the relay endpoint.
//
// Metrics:
//   - gemini_relay_requests_total: request count by outcome and status code
//   - gemini_relay_request_duration_seconds: handler duration by outcome
//   - gemini_relay_prompt_size_bytes: size of accepted prompts
type RelayMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	promptSize      prometheus.Histogram
}

// NewRelayMetrics creates and registers relay metrics with the provided registry.
func NewRelayMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *RelayMetrics {
	rm := &RelayMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of relay requests by outcome and response status",
			},
			[]string{"outcome", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of relay requests in seconds",
				Buckets:   durationBuckets,
			},
			[]string{"outcome"},
		),

		promptSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "prompt_size_bytes",
				Help:      "Size of accepted prompts in bytes",
				Buckets:   prometheus.ExponentialBuckets(64, 4, 8), // 64B to 1MB
			},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.promptSize,
	)

	return rm
}

// RecordRequest records one completed relay request.
func (rm *RelayMetrics) RecordRequest(outcome string, status int, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(outcome, strconv.Itoa(status)).Inc()
	rm.requestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordPromptSize records the size of an accepted prompt.
func (rm *RelayMetrics) RecordPromptSize(bytes int) {
	rm.promptSize.Observe(float64(bytes))
}
