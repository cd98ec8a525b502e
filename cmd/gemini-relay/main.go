// gemini-relay is a single-endpoint proxy that forwards a text prompt to
// the Gemini generateContent API using a server-held API key, so the key
// never reaches the browser.
//
// Usage:
//
//	# Start the relay with environment configuration only
//	GEMINI_API_KEY=... gemini-relay run
//
//	# Start with a configuration file
//	gemini-relay run --config /etc/gemini-relay/config.yaml
//
//	# Check a configuration file without starting
//	gemini-relay validate --config config.yaml
//
//	# Show version information
//	gemini-relay version
//
// Clients POST {"prompt": "..."} to "/" and receive
// {"ok": true, "result": "...", "raw": {...}}.
package main

func main() {
	Execute()
}
