package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 0
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// TLS defaults
	DefaultTLSMinVersion     = "1.3"
	DefaultTLSReloadInterval = 5 * time.Minute

	// CORS defaults
	DefaultAllowedOrigin = "*"

	// Upstream defaults
	DefaultUpstreamBaseURL = "https://generativelanguage.googleapis.com"
	DefaultUpstreamTimeout = 0

	// Secrets defaults
	DefaultSecretsWatch    = false
	DefaultSecretsCacheTTL = 5 * time.Minute

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultRedactSecrets    = true
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "gemini"
	DefaultMetricsSubsystem = "relay"

	// Tracing defaults
	DefaultTracingEnabled     = false
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingTimeout     = 10 * time.Second
	DefaultTracingServiceName = "gemini-relay"
	DefaultTracingSampler     = "always"
	DefaultTracingSampleRatio = 1.0

	// Evidence defaults
	DefaultEvidenceEnabled        = false
	DefaultEvidenceBackend        = "sqlite"
	DefaultSQLitePath             = "data/evidence.db"
	DefaultSQLiteDriver           = "sqlite"
	DefaultSQLiteMaxOpenConns     = 10
	DefaultSQLiteMaxIdleConns     = 5
	DefaultSQLiteWALMode          = true
	DefaultSQLiteBusyTimeout      = 5 * time.Second
	DefaultRecorderAsyncBuffer    = 1000
	DefaultRecorderWriteTimeout   = 5 * time.Second
	DefaultRetentionDays          = 30
	DefaultRetentionPruneSchedule = "0 3 * * *"
	DefaultRetentionArchivePath   = "data/archives"
)

// NewDefaultConfig returns a Config populated with every default value.
// YAML documents are decoded on top of it so that boolean fields default
// to true when the document does not mention them.
func NewDefaultConfig() *Config {
	cfg := &Config{
		Secrets: SecretsConfig{
			Watch:    DefaultSecretsWatch,
			CacheTTL: DefaultSecretsCacheTTL,
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				RedactSecrets: DefaultRedactSecrets,
			},
			Metrics: MetricsConfig{
				Enabled: DefaultMetricsEnabled,
			},
			Tracing: TracingConfig{
				Enabled:     DefaultTracingEnabled,
				SampleRatio: DefaultTracingSampleRatio,
			},
		},
		Evidence: EvidenceConfig{
			Enabled: DefaultEvidenceEnabled,
			SQLite: SQLiteConfig{
				WALMode: DefaultSQLiteWALMode,
			},
			Retention: RetentionConfig{
				Days:          DefaultRetentionDays,
				PruneSchedule: DefaultRetentionPruneSchedule,
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.TLS.MinVersion == "" {
		cfg.Server.TLS.MinVersion = DefaultTLSMinVersion
	}
	if cfg.Server.TLS.ReloadInterval == 0 {
		cfg.Server.TLS.ReloadInterval = DefaultTLSReloadInterval
	}

	if cfg.CORS.AllowedOrigin == "" {
		cfg.CORS.AllowedOrigin = DefaultAllowedOrigin
	}

	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = DefaultUpstreamBaseURL
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}

	// Tracing defaults
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}

	// Evidence defaults. Retention days and the prune schedule are set by
	// NewDefaultConfig only, so that 0 and "" can switch them off.
	if cfg.Evidence.Backend == "" {
		cfg.Evidence.Backend = DefaultEvidenceBackend
	}
	if cfg.Evidence.SQLite.Path == "" {
		cfg.Evidence.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Evidence.SQLite.Driver == "" {
		cfg.Evidence.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.Evidence.SQLite.MaxOpenConns == 0 {
		cfg.Evidence.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.Evidence.SQLite.MaxIdleConns == 0 {
		cfg.Evidence.SQLite.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if cfg.Evidence.SQLite.BusyTimeout == 0 {
		cfg.Evidence.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Evidence.Recorder.AsyncBuffer == 0 {
		cfg.Evidence.Recorder.AsyncBuffer = DefaultRecorderAsyncBuffer
	}
	if cfg.Evidence.Recorder.WriteTimeout == 0 {
		cfg.Evidence.Recorder.WriteTimeout = DefaultRecorderWriteTimeout
	}
	if cfg.Evidence.Retention.ArchivePath == "" {
		cfg.Evidence.Retention.ArchivePath = DefaultRetentionArchivePath
	}
}
