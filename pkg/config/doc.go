// Package config provides configuration management for the Gemini relay.
//
// Configuration is assembled once at startup from, in order of precedence
// (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from an optional YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// The resulting Config is never mutated afterwards. There is no reload.
//
// # Environment Variable Overrides
//
// ALLOWED_ORIGIN sets the CORS origin, matching what serverless platforms
// expose. Everything else uses the GEMINI_RELAY_ prefix:
//
//   - GEMINI_RELAY_LISTEN_ADDRESS overrides server.listen_address
//   - GEMINI_RELAY_UPSTREAM_BASE_URL overrides upstream.base_url
//   - GEMINI_RELAY_LOG_LEVEL overrides telemetry.logging.level
//   - GEMINI_RELAY_TRACING_ENABLED overrides telemetry.tracing.enabled
//   - GEMINI_RELAY_EVIDENCE_ENABLED overrides evidence.enabled
//   - GEMINI_RELAY_EVIDENCE_SQLITE_PATH overrides evidence.sqlite.path
//
// The Gemini credential itself is not part of Config. It is resolved per
// request by pkg/security/secrets from GEMINI_API_KEY or a secrets directory.
//
// # Example Configuration
//
//	server:
//	  listen_address: "0.0.0.0:8443"
//	  tls:
//	    enabled: true
//	    cert_file: "/etc/gemini-relay/tls.crt"
//	    key_file: "/etc/gemini-relay/tls.key"
//
//	cors:
//	  allowed_origin: "https://app.example.com"
//
//	upstream:
//	  timeout: "45s"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//	  tracing:
//	    enabled: true
//	    endpoint: "otel-collector:4317"
//	    insecure: true
//	    sampler: "ratio"
//	    sample_ratio: 0.1
//
//	evidence:
//	  enabled: true
//	  sqlite:
//	    path: "/var/lib/gemini-relay/evidence.db"
//	  retention:
//	    days: 30
//	    prune_schedule: "0 3 * * *"
package config
