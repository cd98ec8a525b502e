package upstream

import (
	"fmt"

	"relay-hq/gemini/pkg/telemetry/metrics"
)

// TransportError is returned when no HTTP response was received from the
// API: DNS failure, refused connection, TLS error, timeout or cancellation.
//
// URL has the key query parameter masked, so Error() is safe to return to
// clients and write to logs.
type TransportError struct {
	// Op is the operation that failed (usually "POST")
	Op string

	// URL is the redacted endpoint URL
	URL string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.URL, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Kind returns the metrics error type of the failure: timeout, canceled
// or transport.
func (e *TransportError) Kind() string {
	return classify(e.Cause)
}

// Timeout reports whether the call failed because a deadline was exceeded.
func (e *TransportError) Timeout() bool {
	return e.Kind() == metrics.ErrorTypeTimeout
}
