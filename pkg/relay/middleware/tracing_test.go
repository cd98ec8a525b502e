package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"relay-hq/gemini/pkg/config"
	"relay-hq/gemini/pkg/telemetry/tracing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newRecordingTracer(t *testing.T) (*tracing.Tracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := tracing.NewWithExporter(config.TracingConfig{
		Enabled:     true,
		ServiceName: "test",
		Sampler:     tracing.SamplerAlways,
	}, "test", exporter)
	if err != nil {
		t.Fatalf("NewWithExporter() error = %v", err)
	}
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })
	return tracer, exporter
}

func TestTracingMiddleware(t *testing.T) {
	tracer, exporter := newRecordingTracer(t)

	var inner trace.SpanContext
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = trace.SpanContextFromContext(r.Context())
		w.WriteHeader(http.StatusBadGateway)
	}), RequestIDMiddleware, TracingMiddleware(tracer))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	span := spans[0]

	if span.Name != tracing.SpanRelay || span.SpanKind != trace.SpanKindServer {
		t.Errorf("span = %q kind %v", span.Name, span.SpanKind)
	}
	if got := span.SpanContext.TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace ID = %s, want the caller's", got)
	}
	if inner.SpanID() != span.SpanContext.SpanID() {
		t.Error("handler context should carry the server span")
	}
	if rec.Header().Get(TraceIDHeader) != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("%s = %q", TraceIDHeader, rec.Header().Get(TraceIDHeader))
	}
	if span.Status.Code != codes.Error {
		t.Errorf("status = %v, want error for 502", span.Status.Code)
	}

	found := false
	for _, kv := range span.Attributes {
		if string(kv.Key) == tracing.AttrRequestID && kv.Value.AsString() == "req-42" {
			found = true
		}
	}
	if !found {
		t.Errorf("request ID attribute missing: %v", span.Attributes)
	}
}

func TestTracingMiddleware_NilTracer(t *testing.T) {
	h := TracingMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get(TraceIDHeader) != "" {
		t.Error("nil tracer should not set a trace ID header")
	}
}

func TestStandard_PreflightHasNoSpan(t *testing.T) {
	tracer, exporter := newRecordingTracer(t)

	h := Standard(http.NotFoundHandler(), "", tracer)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if n := len(exporter.GetSpans()); n != 0 {
		t.Errorf("preflight produced %d spans", n)
	}
}
