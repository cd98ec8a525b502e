package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/propagation"
)

// Extract returns ctx carrying the W3C trace context found in headers,
// so the relay's span continues the caller's trace:
//
//	traceparent: 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//
// A disabled or nil Tracer returns ctx unchanged.
func (t *Tracer) Extract(ctx context.Context, headers http.Header) context.Context {
	if t == nil || t.propagator == nil {
		return ctx
	}
	return t.propagator.Extract(ctx, propagation.HeaderCarrier(headers))
}

// Inject writes the trace context of ctx into outbound request headers.
// A disabled or nil Tracer writes nothing.
func (t *Tracer) Inject(ctx context.Context, headers http.Header) {
	if t == nil || t.propagator == nil {
		return
	}
	t.propagator.Inject(ctx, propagation.HeaderCarrier(headers))
}
