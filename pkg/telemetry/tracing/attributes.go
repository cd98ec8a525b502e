package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanRelay           = "gemini.relay"
	SpanGenerateContent = "gemini.generateContent"
)

// Attribute keys. HTTP keys follow the OpenTelemetry semantic conventions;
// relay-specific keys use the "gemini." namespace.
const (
	AttrHTTPMethod = "http.request.method"
	AttrHTTPStatus = "http.response.status_code"
	AttrURL        = "url.full"
	AttrErrorType  = "error.type"

	AttrModel       = "gemini.model"
	AttrRequestID   = "gemini.request_id"
	AttrOutcome     = "gemini.relay.outcome"
	AttrPromptBytes = "gemini.prompt.bytes"
)

// SetRequestAttributes records the inbound request on a server span.
func SetRequestAttributes(span trace.Span, method, requestID string) {
	attrs := []attribute.KeyValue{attribute.String(AttrHTTPMethod, method)}
	if requestID != "" {
		attrs = append(attrs, attribute.String(AttrRequestID, requestID))
	}
	span.SetAttributes(attrs...)
}

// SetUpstreamAttributes records the model and the credential-free URL on a
// client span.
func SetUpstreamAttributes(span trace.Span, model, redactedURL string) {
	span.SetAttributes(
		attribute.String(AttrModel, model),
		attribute.String(AttrURL, redactedURL),
	)
}

// SetHTTPStatus records a response status. Statuses at or above errorFrom
// mark the span as failed: 500 for server spans, 400 for client spans.
func SetHTTPStatus(span trace.Span, status, errorFrom int) {
	span.SetAttributes(attribute.Int(AttrHTTPStatus, status))
	if status >= errorFrom {
		span.SetStatus(codes.Error, "")
	}
}

// SetOutcome records how the relay resolved a request.
func SetOutcome(span trace.Span, outcome string, promptBytes int) {
	span.SetAttributes(attribute.String(AttrOutcome, outcome))
	if promptBytes > 0 {
		span.SetAttributes(attribute.Int(AttrPromptBytes, promptBytes))
	}
}

// SetError marks the span as failed and records err. err's message must
// already be free of credentials.
func SetError(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}
	span.SetAttributes(attribute.String(AttrErrorType, errorType))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
