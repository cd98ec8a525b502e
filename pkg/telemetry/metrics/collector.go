package metrics

import (
	"time"

	"relay-hq/gemini/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Request outcomes recorded by the relay handler. Each maps to exactly one
// response status so dashboards can be built on either label.
const (
	OutcomeSuccess          = "success"
	OutcomePreflight        = "preflight"
	OutcomeMethodNotAllowed = "method_not_allowed"
	OutcomeBadRequest       = "bad_request"
	OutcomeConfigError      = "config_error"
	OutcomeUpstreamError    = "upstream_error"
	OutcomeServerError      = "server_error"
)

// Upstream error types.
const (
	ErrorTypeTransport = "transport"
	ErrorTypeTimeout   = "timeout"
	ErrorTypeCanceled  = "canceled"
	ErrorTypeStatus    = "status"
)

// durationBuckets covers a fast rejection through a long generation.
var durationBuckets = []float64{0.005, 0.05, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// Collector owns the relay's Prometheus registry and metric families.
//
// All methods are safe to call on a nil *Collector, in which case they do
// nothing. Handlers therefore never need to check whether metrics are enabled.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	relayMetrics    *RelayMetrics
	upstreamMetrics *UpstreamMetrics
	evidenceMetrics *EvidenceMetrics
}

// NewCollector creates a new metrics collector. If registry is nil a fresh
// registry with Go runtime and process collectors is created.
//
// Example:
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}

	return &Collector{
		config:          cfg,
		registry:        registry,
		relayMetrics:    NewRelayMetrics(cfg, registry),
		upstreamMetrics: NewUpstreamMetrics(cfg, registry),
		evidenceMetrics: NewEvidenceMetrics(cfg, registry),
	}
}

// RecordRequest records a completed relay request.
//
// Parameters:
//   - outcome: one of the Outcome* constants
//   - status: HTTP status written to the client
//   - duration: time spent in the handler
func (c *Collector) RecordRequest(outcome string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.relayMetrics.RecordRequest(outcome, status, duration)
}

// RecordPromptSize records the byte length of an accepted prompt.
func (c *Collector) RecordPromptSize(bytes int) {
	if c == nil {
		return
	}
	c.relayMetrics.RecordPromptSize(bytes)
}

// RecordUpstreamCall records one call to the generateContent endpoint.
// A status of 0 means no HTTP response was received.
func (c *Collector) RecordUpstreamCall(model string, status int, latency time.Duration) {
	if c == nil {
		return
	}
	c.upstreamMetrics.RecordCall(model, status, latency)
}

// RecordUpstreamError records a failed upstream call by error type.
func (c *Collector) RecordUpstreamError(model, errorType string) {
	if c == nil {
		return
	}
	c.upstreamMetrics.RecordError(model, errorType)
}

// RecordEvidenceWrite records the result of one evidence write.
func (c *Collector) RecordEvidenceWrite(result string, duration time.Duration) {
	if c == nil {
		return
	}
	c.evidenceMetrics.RecordWrite(result, duration)
}

// RecordEvidencePruned records evidence removed by retention.
func (c *Collector) RecordEvidencePruned(count int64) {
	if c == nil {
		return
	}
	c.evidenceMetrics.RecordPruned(count)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}
