package logging

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestContextFields(t *testing.T) {
	ctx := context.Background()
	if fields := extractContextFields(ctx); len(fields) != 0 {
		t.Errorf("expected no fields, got %v", fields)
	}

	ctx = WithRequestID(ctx, "req-1")
	if GetRequestID(ctx) != "req-1" {
		t.Errorf("GetRequestID() = %q", GetRequestID(ctx))
	}
	if GetModel(ctx) != "" {
		t.Errorf("GetModel() = %q, want empty", GetModel(ctx))
	}

	ctx = WithModel(ctx, "m")
	if GetRequestID(ctx) != "req-1" {
		t.Errorf("WithModel dropped the request ID")
	}
	fields := extractContextFields(ctx)
	if len(fields) != 4 || fields[0] != "request_id" || fields[2] != "model" {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestContextFields_TraceID(t *testing.T) {
	traceID := trace.TraceID{0x0a, 0x0b, 0x0c, 1}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     trace.SpanID{1},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	fields := extractContextFields(ctx)
	if len(fields) != 2 || fields[0] != "trace_id" || fields[1] != traceID.String() {
		t.Errorf("unexpected fields: %v", fields)
	}

	unsampled := trace.ContextWithSpanContext(context.Background(), sc.WithTraceFlags(0))
	if fields := extractContextFields(unsampled); len(fields) != 0 {
		t.Errorf("unsampled span should not add a trace ID: %v", fields)
	}
}
