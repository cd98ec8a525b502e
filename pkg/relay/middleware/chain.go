package middleware

import (
	"net/http"

	"relay-hq/gemini/pkg/telemetry/tracing"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so that the first one listed is outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// Standard wraps h in the relay's middleware stack, outermost first:
// recovery, request logging, request ID, CORS, tracing. tracer may be nil.
func Standard(h http.Handler, allowedOrigin string, tracer *tracing.Tracer) http.Handler {
	return Chain(h,
		RecoveryMiddleware,
		LoggingMiddleware,
		RequestIDMiddleware,
		CORSMiddleware(allowedOrigin),
		TracingMiddleware(tracer),
	)
}
