package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		wantFields []string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:       "missing port in listen address",
			mutate:     func(c *Config) { c.Server.ListenAddress = "localhost" },
			wantFields: []string{"server.listen_address"},
		},
		{
			name: "negative timeouts",
			mutate: func(c *Config) {
				c.Server.ReadTimeout = -time.Second
				c.Upstream.Timeout = -time.Second
			},
			wantFields: []string{"server.read_timeout", "upstream.timeout"},
		},
		{
			name:       "origin with newline",
			mutate:     func(c *Config) { c.CORS.AllowedOrigin = "https://a\r\nX-Evil: 1" },
			wantFields: []string{"cors.allowed_origin"},
		},
		{
			name:       "blank origin",
			mutate:     func(c *Config) { c.CORS.AllowedOrigin = "  " },
			wantFields: []string{"cors.allowed_origin"},
		},
		{
			name:       "base URL without host",
			mutate:     func(c *Config) { c.Upstream.BaseURL = "https://" },
			wantFields: []string{"upstream.base_url"},
		},
		{
			name:       "base URL with query",
			mutate:     func(c *Config) { c.Upstream.BaseURL = "https://example.com?key=abc" },
			wantFields: []string{"upstream.base_url"},
		},
		{
			name:       "watch without directory",
			mutate:     func(c *Config) { c.Secrets.Watch = true },
			wantFields: []string{"secrets.watch"},
		},
		{
			name:       "unknown log format",
			mutate:     func(c *Config) { c.Telemetry.Logging.Format = "console" },
			wantFields: []string{"telemetry.logging.format"},
		},
		{
			name:       "metrics path shadows relay",
			mutate:     func(c *Config) { c.Telemetry.Metrics.Path = "/" },
			wantFields: []string{"telemetry.metrics.path"},
		},
		{
			name: "tracing sampler and ratio",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Sampler = "sometimes"
				c.Telemetry.Tracing.SampleRatio = 1.5
			},
			wantFields: []string{"telemetry.tracing.sampler", "telemetry.tracing.sample_ratio"},
		},
		{
			name: "tls enabled without files",
			mutate: func(c *Config) {
				c.Server.TLS.Enabled = true
			},
			wantFields: []string{"server.tls.cert_file", "server.tls.key_file"},
		},
		{
			name:       "tls 1.0",
			mutate:     func(c *Config) { c.Server.TLS.MinVersion = "1.0" },
			wantFields: []string{"server.tls.min_version"},
		},
		{
			name: "tracing enabled without endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Endpoint = ""
			},
			wantFields: []string{"telemetry.tracing.endpoint"},
		},
		{
			name: "evidence backend and driver",
			mutate: func(c *Config) {
				c.Evidence.Backend = "postgres"
				c.Evidence.SQLite.Driver = "libsql"
			},
			wantFields: []string{"evidence.backend", "evidence.sqlite.driver"},
		},
		{
			name:       "evidence prune schedule",
			mutate:     func(c *Config) { c.Evidence.Retention.PruneSchedule = "every day" },
			wantFields: []string{"evidence.retention.prune_schedule"},
		},
		{
			name: "evidence recorder limits",
			mutate: func(c *Config) {
				c.Evidence.Recorder.AsyncBuffer = -1
				c.Evidence.Recorder.WriteTimeout = -time.Second
				c.Evidence.Retention.Days = -1
			},
			wantFields: []string{
				"evidence.recorder.async_buffer",
				"evidence.recorder.write_timeout",
				"evidence.retention.days",
			},
		},
		{
			name: "evidence schedule disabled",
			mutate: func(c *Config) {
				c.Evidence.Enabled = true
				c.Evidence.Retention.PruneSchedule = ""
				c.Evidence.Retention.Days = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}

			got := make(map[string]bool)
			for _, fe := range verr.Errors {
				got[fe.Field] = true
			}
			for _, f := range tt.wantFields {
				if !got[f] {
					t.Errorf("expected error for field %s, got %v", f, verr.Errors)
				}
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if single.Error() != "configuration validation failed: a: bad" {
		t.Errorf("unexpected message: %q", single.Error())
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	msg := multi.Error()
	if !strings.Contains(msg, "2 errors") || !strings.Contains(msg, "  - b: worse") {
		t.Errorf("unexpected message: %q", msg)
	}
}
