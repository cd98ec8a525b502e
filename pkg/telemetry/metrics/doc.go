// Package metrics exposes Prometheus metrics for the Gemini relay.
//
// The Collector registers two families of metrics on its own registry:
//
//   - relay metrics: one sample per client request, labelled by outcome
//     (success, bad_request, upstream_error, ...) and response status
//   - upstream metrics: one sample per generateContent call, labelled by
//     model and status class, plus an error counter by error type
//
// A nil *Collector is valid and records nothing, which is how metrics are
// disabled.
//
// Usage:
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	mux.Handle("/metrics", collector.Handler())
//
//	collector.RecordRequest(metrics.OutcomeSuccess, http.StatusOK, elapsed)
package metrics
