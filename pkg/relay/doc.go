// Package relay assembles the Gemini relay from configuration.
//
// New wires the secret manager, the upstream client, the metrics collector,
// the tracer, the optional evidence recorder and the generate handler, and
// wraps the handler in the standard middleware stack. Both the standalone server (pkg/server) and the
// serverless entry point (api) serve Relay.Handler.
//
// Subpackages:
//   - types: the response envelope
//   - handlers: the generate handler
//   - middleware: recovery, logging, request ID, CORS and tracing
package relay
