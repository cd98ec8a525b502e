package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	configPath := writeConfig(t, `
server:
  listen_address: "0.0.0.0:8080"
  read_timeout: "60s"

cors:
  allowed_origin: "https://app.example.com"

upstream:
  base_url: "http://127.0.0.1:9999"
  timeout: "45s"

telemetry:
  logging:
    level: "debug"
    format: "text"
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:8080" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:8080", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout %v, got %v", 60*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.CORS.AllowedOrigin != "https://app.example.com" {
		t.Errorf("expected allowed origin %q, got %q", "https://app.example.com", cfg.CORS.AllowedOrigin)
	}
	if cfg.Upstream.BaseURL != "http://127.0.0.1:9999" {
		t.Errorf("expected base URL %q, got %q", "http://127.0.0.1:9999", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Timeout != 45*time.Second {
		t.Errorf("expected upstream timeout %v, got %v", 45*time.Second, cfg.Upstream.Timeout)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics to be disabled")
	}
	// Untouched sections keep their defaults.
	if !cfg.Telemetry.Logging.RedactSecrets {
		t.Error("expected secret redaction to default to true")
	}
	if cfg.Secrets.CacheTTL != DefaultSecretsCacheTTL {
		t.Errorf("expected cache TTL %v, got %v", DefaultSecretsCacheTTL, cfg.Secrets.CacheTTL)
	}
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("failed to load empty config: %v", err)
	}
	if cfg.CORS.AllowedOrigin != "*" {
		t.Errorf("expected default origin *, got %q", cfg.CORS.AllowedOrigin)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics enabled by default")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
	if !strings.Contains(err.Error(), "no such file or directory") {
		t.Errorf("expected file not found error, got: %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	configPath := writeConfig(t, `
server:
  listen_address: "0.0.0.0:8080"
  invalid yaml here: [
`)

	if _, err := LoadConfig(configPath); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadConfig_UnknownField(t *testing.T) {
	configPath := writeConfig(t, `
server:
  listen_adress: "0.0.0.0:8080"
`)

	if _, err := LoadConfig(configPath); err == nil {
		t.Error("expected error for misspelled field")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	configPath := writeConfig(t, `
upstream:
  base_url: "ftp://example.com"

telemetry:
  logging:
    level: "invalid"
`)

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError in error chain, got %T: %v", err, err)
	}
	if len(validationErr.Errors) != 2 {
		t.Errorf("expected 2 field errors, got %d: %v", len(validationErr.Errors), validationErr.Errors)
	}
}

func TestLoadConfigWithEnvOverrides_BasicOverrides(t *testing.T) {
	configPath := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8080"
cors:
  allowed_origin: "https://file.example.com"
`)

	t.Setenv("GEMINI_RELAY_LISTEN_ADDRESS", "0.0.0.0:9090")
	t.Setenv("GEMINI_RELAY_UPSTREAM_TIMEOUT", "10s")
	t.Setenv("GEMINI_RELAY_LOG_LEVEL", "WARN")
	t.Setenv("GEMINI_RELAY_METRICS_ENABLED", "false")
	t.Setenv("ALLOWED_ORIGIN", "https://env.example.com")

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:9090", cfg.Server.ListenAddress)
	}
	if cfg.Upstream.Timeout != 10*time.Second {
		t.Errorf("expected upstream timeout %v, got %v", 10*time.Second, cfg.Upstream.Timeout)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected logging level %q, got %q", "warn", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics disabled by env override")
	}
	if cfg.CORS.AllowedOrigin != "https://env.example.com" {
		t.Errorf("expected allowed origin %q, got %q", "https://env.example.com", cfg.CORS.AllowedOrigin)
	}
}

func TestLoadConfigWithEnvOverrides_PrefixedOriginWins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGIN", "https://bare.example.com")
	t.Setenv("GEMINI_RELAY_ALLOWED_ORIGIN", "https://prefixed.example.com")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.CORS.AllowedOrigin != "https://prefixed.example.com" {
		t.Errorf("expected prefixed origin to win, got %q", cfg.CORS.AllowedOrigin)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		value string
		field string
	}{
		{name: "bad duration", env: "GEMINI_RELAY_UPSTREAM_TIMEOUT", value: "soon", field: "upstream.timeout"},
		{name: "bad boolean", env: "GEMINI_RELAY_METRICS_ENABLED", value: "maybe", field: "telemetry.metrics.enabled"},
		{name: "bad tracing flag", env: "GEMINI_RELAY_TRACING_ENABLED", value: "yes please", field: "telemetry.tracing.enabled"},
		{name: "bad base url", env: "GEMINI_RELAY_UPSTREAM_BASE_URL", value: "not a url", field: "upstream.base_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)

			_, err := LoadFromEnv()
			if err == nil {
				t.Fatal("expected error")
			}

			var validationErr ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
			found := false
			for _, fe := range validationErr.Errors {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected field error for %s, got %v", tt.field, validationErr.Errors)
			}
		})
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("ALLOWED_ORIGIN", "")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.CORS.AllowedOrigin != DefaultAllowedOrigin {
		t.Errorf("expected origin %q, got %q", DefaultAllowedOrigin, cfg.CORS.AllowedOrigin)
	}
	if cfg.Upstream.BaseURL != DefaultUpstreamBaseURL {
		t.Errorf("expected base URL %q, got %q", DefaultUpstreamBaseURL, cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Timeout != 0 {
		t.Errorf("expected no upstream timeout by default, got %v", cfg.Upstream.Timeout)
	}
}

func TestLoadFromEnv_Tracing(t *testing.T) {
	t.Setenv("GEMINI_RELAY_TRACING_ENABLED", "true")
	t.Setenv("GEMINI_RELAY_TRACING_ENDPOINT", "otel-collector:4317")
	t.Setenv("GEMINI_RELAY_TRACING_INSECURE", "true")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	tc := cfg.Telemetry.Tracing
	if !tc.Enabled || !tc.Insecure {
		t.Errorf("expected tracing enabled and insecure, got %+v", tc)
	}
	if tc.Endpoint != "otel-collector:4317" {
		t.Errorf("expected endpoint %q, got %q", "otel-collector:4317", tc.Endpoint)
	}
	if tc.ServiceName != DefaultTracingServiceName {
		t.Errorf("expected service name %q, got %q", DefaultTracingServiceName, tc.ServiceName)
	}
}

func TestLoadFromEnv_Evidence(t *testing.T) {
	t.Setenv("GEMINI_RELAY_EVIDENCE_ENABLED", "true")
	t.Setenv("GEMINI_RELAY_EVIDENCE_BACKEND", "memory")
	t.Setenv("GEMINI_RELAY_EVIDENCE_SQLITE_PATH", "/var/lib/relay/evidence.db")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	ec := cfg.Evidence
	if !ec.Enabled || ec.Backend != "memory" {
		t.Errorf("expected memory evidence enabled, got %+v", ec)
	}
	if ec.SQLite.Path != "/var/lib/relay/evidence.db" {
		t.Errorf("unexpected sqlite path %q", ec.SQLite.Path)
	}
	if ec.Recorder.AsyncBuffer != DefaultRecorderAsyncBuffer {
		t.Errorf("expected async buffer %d, got %d", DefaultRecorderAsyncBuffer, ec.Recorder.AsyncBuffer)
	}
}

func TestLoadConfig_EvidenceSection(t *testing.T) {
	path := writeConfig(t, `
evidence:
  enabled: true
  sqlite:
    path: "audit.db"
    driver: "sqlite3"
  retention:
    days: 0
    prune_schedule: ""
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	ec := cfg.Evidence
	if ec.SQLite.Path != "audit.db" || ec.SQLite.Driver != "sqlite3" {
		t.Errorf("unexpected sqlite config %+v", ec.SQLite)
	}
	if !ec.SQLite.WALMode {
		t.Error("expected WAL mode to stay enabled when not mentioned")
	}
	if ec.Retention.Days != 0 || ec.Retention.PruneSchedule != "" {
		t.Errorf("expected retention switched off, got %+v", ec.Retention)
	}
}
