package middleware

import (
	"net/http"

	"relay-hq/gemini/pkg/telemetry/tracing"

	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader carries the trace ID of a sampled request back to the caller.
const TraceIDHeader = "X-Trace-ID"

// TracingMiddleware starts a server span per request, continuing any W3C
// trace context the caller sent. It runs inside RequestIDMiddleware so the
// span carries the request ID. A nil tracer produces no-op spans.
func TracingMiddleware(tracer *tracing.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := tracer.Extract(r.Context(), r.Header)
			ctx, span := tracer.Start(ctx, tracing.SpanRelay, trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			tracing.SetRequestAttributes(span, r.Method, GetRequestID(r))
			if id := tracing.TraceID(ctx); id != "" && span.SpanContext().IsSampled() {
				w.Header().Set(TraceIDHeader, id)
			}

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			tracing.SetHTTPStatus(span, rw.Status(), http.StatusInternalServerError)
		})
	}
}
