// Package middleware provides the HTTP middleware stack in front of the
// relay handler.
//
// Standard assembles the stack used by both the standalone server and the
// serverless entry point:
//
//	RecoveryMiddleware -> LoggingMiddleware -> RequestIDMiddleware -> CORSMiddleware -> TracingMiddleware -> handler
//
// CORSMiddleware sets Access-Control-Allow-Origin (configured, default "*"),
// Access-Control-Allow-Methods "POST, OPTIONS" and
// Access-Control-Allow-Headers "Content-Type, Authorization" on every
// response, including errors, and answers OPTIONS with 204. Preflights
// therefore never reach TracingMiddleware and produce no span.
package middleware
