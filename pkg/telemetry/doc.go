// Package telemetry groups the relay's observability packages.
//
// # Components
//
//   - logging: structured slog logging that redacts credentials
//   - metrics: Prometheus request, upstream and evidence metrics
//   - tracing: OpenTelemetry spans exported over OTLP/gRPC
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json", RedactSecrets: true})
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	tracer, err := tracing.New(cfg.Telemetry.Tracing, version)
//
// The metrics collector and tracer are nil-safe, so components take them as
// optional dependencies.
//
// # Credential Protection
//
// The logging handler masks values under sensitive keys and any string
// that looks like a Google API key before a record is written. Request
// handlers additionally redact the resolved key from error details.
package telemetry
