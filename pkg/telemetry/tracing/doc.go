// Package tracing provides OpenTelemetry tracing for the relay.
//
// Two spans are created per relayed prompt:
//
//	gemini.relay              (server)  one per inbound request
//	└── gemini.generateContent (client) the upstream call
//
// The server span continues any W3C trace context the caller sent
// (traceparent/tracestate) and the client span propagates it to Gemini.
// The upstream URL is recorded with the key query parameter masked; the
// credential never appears in a span.
//
// # Configuration
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: "otel-collector:4317"
//	    insecure: true
//	    sampler: "ratio"     # always, never, ratio
//	    sample_ratio: 0.1
//
// Spans are exported in batches over OTLP/gRPC. With tracing disabled, or
// with a nil *Tracer, every operation is a no-op.
package tracing
