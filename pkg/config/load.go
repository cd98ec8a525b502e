package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for relay-specific environment overrides.
const EnvPrefix = "GEMINI_RELAY_"

// AllowedOriginEnv is the unprefixed variable serverless deployments use to
// set the CORS origin.
const AllowedOriginEnv = "ALLOWED_ORIGIN"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. An empty path skips the file and starts
// from defaults, which is how serverless deployments are configured.
//
// The loading sequence is:
// 1. Load YAML from file (if any) on top of defaults
// 2. Apply environment variable overrides
// 3. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		cfg, err = parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv builds a configuration from defaults and environment variables only.
func LoadFromEnv() (*Config, error) {
	return LoadConfigWithEnvOverrides("")
}

func parse(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed numeric, boolean and duration values are reported rather than ignored.
func applyEnvOverrides(cfg *Config) error {
	var errs []FieldError

	str := func(name string, dst *string) {
		if val, ok := os.LookupEnv(name); ok && val != "" {
			*dst = val
		}
	}
	dur := func(name, field string, dst *time.Duration) {
		if val := os.Getenv(name); val != "" {
			d, err := time.ParseDuration(val)
			if err != nil {
				errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("invalid duration in %s: %q", name, val)})
				return
			}
			*dst = d
		}
	}
	boolean := func(name, field string, dst *bool) {
		if val := os.Getenv(name); val != "" {
			b, err := strconv.ParseBool(val)
			if err != nil {
				errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("invalid boolean in %s: %q", name, val)})
				return
			}
			*dst = b
		}
	}

	// Server overrides
	str(EnvPrefix+"LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	dur(EnvPrefix+"READ_TIMEOUT", "server.read_timeout", &cfg.Server.ReadTimeout)
	dur(EnvPrefix+"WRITE_TIMEOUT", "server.write_timeout", &cfg.Server.WriteTimeout)
	dur(EnvPrefix+"SHUTDOWN_TIMEOUT", "server.shutdown_timeout", &cfg.Server.ShutdownTimeout)
	boolean(EnvPrefix+"TLS_ENABLED", "server.tls.enabled", &cfg.Server.TLS.Enabled)
	str(EnvPrefix+"TLS_CERT_FILE", &cfg.Server.TLS.CertFile)
	str(EnvPrefix+"TLS_KEY_FILE", &cfg.Server.TLS.KeyFile)

	// CORS: the bare variable first, the prefixed one wins when both are set.
	str(AllowedOriginEnv, &cfg.CORS.AllowedOrigin)
	str(EnvPrefix+"ALLOWED_ORIGIN", &cfg.CORS.AllowedOrigin)

	// Upstream overrides
	str(EnvPrefix+"UPSTREAM_BASE_URL", &cfg.Upstream.BaseURL)
	dur(EnvPrefix+"UPSTREAM_TIMEOUT", "upstream.timeout", &cfg.Upstream.Timeout)

	// Secrets overrides
	str(EnvPrefix+"SECRETS_DIR", &cfg.Secrets.Dir)
	boolean(EnvPrefix+"SECRETS_WATCH", "secrets.watch", &cfg.Secrets.Watch)
	dur(EnvPrefix+"SECRETS_CACHE_TTL", "secrets.cache_ttl", &cfg.Secrets.CacheTTL)

	// Telemetry overrides
	if val := os.Getenv(EnvPrefix + "LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = strings.ToLower(val)
	}
	if val := os.Getenv(EnvPrefix + "LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = strings.ToLower(val)
	}
	boolean(EnvPrefix+"METRICS_ENABLED", "telemetry.metrics.enabled", &cfg.Telemetry.Metrics.Enabled)
	str(EnvPrefix+"METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	boolean(EnvPrefix+"TRACING_ENABLED", "telemetry.tracing.enabled", &cfg.Telemetry.Tracing.Enabled)
	str(EnvPrefix+"TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	boolean(EnvPrefix+"TRACING_INSECURE", "telemetry.tracing.insecure", &cfg.Telemetry.Tracing.Insecure)

	// Evidence overrides
	boolean(EnvPrefix+"EVIDENCE_ENABLED", "evidence.enabled", &cfg.Evidence.Enabled)
	str(EnvPrefix+"EVIDENCE_BACKEND", &cfg.Evidence.Backend)
	str(EnvPrefix+"EVIDENCE_SQLITE_PATH", &cfg.Evidence.SQLite.Path)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
