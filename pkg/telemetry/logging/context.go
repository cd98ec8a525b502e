package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type fieldsKey struct{}

// requestFields are the per-request values every context-aware log line carries.
type requestFields struct {
	requestID string
	model     string
}

func fieldsFrom(ctx context.Context) requestFields {
	f, _ := ctx.Value(fieldsKey{}).(requestFields)
	return f
}

// WithRequestID attaches the relay request ID to ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	f := fieldsFrom(ctx)
	f.requestID = requestID
	return context.WithValue(ctx, fieldsKey{}, f)
}

// GetRequestID returns the request ID attached by WithRequestID, or "".
func GetRequestID(ctx context.Context) string {
	return fieldsFrom(ctx).requestID
}

// WithModel attaches the upstream model the request is relayed to.
func WithModel(ctx context.Context, model string) context.Context {
	f := fieldsFrom(ctx)
	f.model = model
	return context.WithValue(ctx, fieldsKey{}, f)
}

func GetModel(ctx context.Context) string {
	return fieldsFrom(ctx).model
}

// extractContextFields returns key/value pairs for the request ID, the
// model and, when a sampled span is active, the trace ID.
func extractContextFields(ctx context.Context) []any {
	f := fieldsFrom(ctx)

	var fields []any
	if f.requestID != "" {
		fields = append(fields, "request_id", f.requestID)
	}
	if f.model != "" {
		fields = append(fields, "model", f.model)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() && sc.IsSampled() {
		fields = append(fields, "trace_id", sc.TraceID().String())
	}
	return fields
}
