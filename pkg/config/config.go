package config

import "time"

// Config is the root configuration structure for the Gemini relay.
// It is loaded once at startup and treated as read-only afterwards.
type Config struct {
	// Server contains standalone HTTP server configuration including listen
	// address and connection timeouts. It is ignored by the serverless entry
	// point.
	Server ServerConfig `yaml:"server"`

	// CORS contains the cross-origin settings applied to every relay response.
	CORS CORSConfig `yaml:"cors"`

	// Upstream contains configuration for the Gemini generateContent endpoint.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Secrets controls where the Gemini credential is resolved from.
	Secrets SecretsConfig `yaml:"secrets"`

	// Telemetry contains configuration for logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Evidence controls the audit trail of relayed requests.
	Evidence EvidenceConfig `yaml:"evidence"`
}

// ServerConfig contains configuration for the standalone HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. Zero means no timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Zero means no timeout, which lets a slow upstream call run
	// to completion.
	// Default: 0
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight requests
	// during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// TLS enables HTTPS on the standalone server.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig contains server-side TLS configuration. Certificates are
// reloaded from disk when the files change, so renewals need no restart.
type TLSConfig struct {
	// Enabled serves HTTPS instead of plain HTTP.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile is the path to the PEM-encoded certificate chain.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded private key.
	KeyFile string `yaml:"key_file"`

	// MinVersion is the minimum TLS version to accept ("1.2" or "1.3").
	// Default: "1.3"
	MinVersion string `yaml:"min_version"`

	// ReloadInterval is how often the certificate files are checked for
	// changes.
	// Default: 5m
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
// Allowed methods and headers are fixed by the relay contract and are not
// configurable.
type CORSConfig struct {
	// AllowedOrigin is the value sent in Access-Control-Allow-Origin on every
	// response. The ALLOWED_ORIGIN environment variable overrides it.
	// Default: "*"
	AllowedOrigin string `yaml:"allowed_origin"`
}

// UpstreamConfig contains configuration for the Gemini API client.
type UpstreamConfig struct {
	// BaseURL is the scheme and host of the generative-language API.
	// The API version and model path are appended by the client.
	// Default: "https://generativelanguage.googleapis.com"
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single upstream call. Zero means no timeout beyond
	// the client's own transport defaults.
	// Default: 0
	Timeout time.Duration `yaml:"timeout"`
}

// SecretsConfig controls credential resolution.
type SecretsConfig struct {
	// Dir is an optional directory holding one file per secret. When set,
	// files in it take precedence over environment variables.
	// Example: "/run/secrets"
	Dir string `yaml:"dir"`

	// Watch enables fsnotify-based reloading of files in Dir.
	// Default: false
	Watch bool `yaml:"watch"`

	// CacheTTL is how long a resolved credential is cached before it is
	// looked up again. Zero disables caching.
	// Default: 5m
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets scrubs credentials from log attributes.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether the Prometheus endpoint is exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "gemini"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "relay"
	Subsystem string `yaml:"subsystem"`
}

// TracingConfig contains OpenTelemetry tracing configuration. Spans are
// exported over OTLP/gRPC.
type TracingConfig struct {
	// Enabled turns on span export. When false a no-op tracer is used.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout bounds a single export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "gemini-relay"
	ServiceName string `yaml:"service_name"`

	// Sampler selects the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces kept by the "ratio" sampler.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`
}

// EvidenceConfig contains configuration for the request audit trail. An
// evidence record holds request metadata and content hashes; prompt and
// response text are never stored.
type EvidenceConfig struct {
	// Enabled controls whether evidence is recorded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Recorder contains asynchronous writer configuration.
	Recorder RecorderConfig `yaml:"recorder"`

	// Retention contains retention policy configuration.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the file path for the SQLite database.
	// Default: "data/evidence.db"
	Path string `yaml:"path"`

	// Driver selects the database/sql driver.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RecorderConfig contains evidence recorder configuration.
type RecorderConfig struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds a single storage write, and how long a full
	// buffer may block a request before the record is dropped.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig contains retention policy configuration.
type RetentionConfig struct {
	// Days is the number of days to retain evidence records.
	// 0 means keep evidence forever.
	// Default: 30
	Days int `yaml:"days"`

	// MaxRecords caps the number of stored records; the oldest are pruned
	// first. 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a cron expression for scheduling pruning. Empty
	// disables scheduled pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`

	// ArchiveBeforeDelete writes pruned records to ArchivePath as JSON
	// before deleting them.
	// Default: false
	ArchiveBeforeDelete bool `yaml:"archive_before_delete"`

	// ArchivePath is the directory for archived evidence.
	// Default: "data/archives"
	ArchivePath string `yaml:"archive_path"`
}
