package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input Config
		check func(*testing.T, *Config)
	}{
		{
			name:  "empty config gets all defaults",
			input: Config{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.ListenAddress != DefaultListenAddress {
					t.Errorf("expected listen address %q, got %q", DefaultListenAddress, cfg.Server.ListenAddress)
				}
				if cfg.Server.ReadTimeout != DefaultReadTimeout {
					t.Errorf("expected read timeout %v, got %v", DefaultReadTimeout, cfg.Server.ReadTimeout)
				}
				if cfg.Server.WriteTimeout != 0 {
					t.Errorf("expected no write timeout, got %v", cfg.Server.WriteTimeout)
				}
				if cfg.Server.ShutdownTimeout != DefaultShutdownTimeout {
					t.Errorf("expected shutdown timeout %v, got %v", DefaultShutdownTimeout, cfg.Server.ShutdownTimeout)
				}
				if cfg.CORS.AllowedOrigin != DefaultAllowedOrigin {
					t.Errorf("expected allowed origin %q, got %q", DefaultAllowedOrigin, cfg.CORS.AllowedOrigin)
				}
				if cfg.Upstream.BaseURL != DefaultUpstreamBaseURL {
					t.Errorf("expected base URL %q, got %q", DefaultUpstreamBaseURL, cfg.Upstream.BaseURL)
				}
				if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
					t.Errorf("expected logging level %q, got %q", DefaultLoggingLevel, cfg.Telemetry.Logging.Level)
				}
				if cfg.Telemetry.Metrics.Path != DefaultMetricsPath {
					t.Errorf("expected metrics path %q, got %q", DefaultMetricsPath, cfg.Telemetry.Metrics.Path)
				}
			},
		},
		{
			name: "existing values are preserved",
			input: Config{
				Server:   ServerConfig{ListenAddress: "0.0.0.0:9000", ReadTimeout: 5 * time.Second},
				CORS:     CORSConfig{AllowedOrigin: "https://a.example"},
				Upstream: UpstreamConfig{BaseURL: "http://localhost:1234", Timeout: time.Second},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.ListenAddress != "0.0.0.0:9000" {
					t.Errorf("listen address overwritten: %q", cfg.Server.ListenAddress)
				}
				if cfg.Server.ReadTimeout != 5*time.Second {
					t.Errorf("read timeout overwritten: %v", cfg.Server.ReadTimeout)
				}
				if cfg.CORS.AllowedOrigin != "https://a.example" {
					t.Errorf("allowed origin overwritten: %q", cfg.CORS.AllowedOrigin)
				}
				if cfg.Upstream.Timeout != time.Second {
					t.Errorf("upstream timeout overwritten: %v", cfg.Upstream.Timeout)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.input
			ApplyDefaults(&cfg)
			tt.check(t, &cfg)

			// Idempotent
			again := cfg
			ApplyDefaults(&again)
			if again != cfg {
				t.Error("ApplyDefaults is not idempotent")
			}
		})
	}
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics enabled")
	}
	if !cfg.Telemetry.Logging.RedactSecrets {
		t.Error("expected secret redaction enabled")
	}
	if cfg.Secrets.Watch {
		t.Error("expected secrets watch disabled")
	}
	if cfg.Telemetry.Tracing.Enabled {
		t.Error("expected tracing disabled")
	}
	if cfg.Telemetry.Tracing.SampleRatio != DefaultTracingSampleRatio {
		t.Errorf("expected sample ratio %v, got %v", DefaultTracingSampleRatio, cfg.Telemetry.Tracing.SampleRatio)
	}
	if cfg.Evidence.Enabled {
		t.Error("expected evidence disabled")
	}
	if !cfg.Evidence.SQLite.WALMode {
		t.Error("expected WAL mode enabled")
	}
	if cfg.Evidence.Retention.Days != DefaultRetentionDays {
		t.Errorf("expected retention %d days, got %d", DefaultRetentionDays, cfg.Evidence.Retention.Days)
	}
	if cfg.Evidence.Retention.PruneSchedule != DefaultRetentionPruneSchedule {
		t.Errorf("expected prune schedule %q, got %q", DefaultRetentionPruneSchedule, cfg.Evidence.Retention.PruneSchedule)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}
