package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"relay-hq/gemini/pkg/config"
	"relay-hq/gemini/pkg/evidence"
	"relay-hq/gemini/pkg/evidence/recorder"
	"relay-hq/gemini/pkg/evidence/retention"
	"relay-hq/gemini/pkg/evidence/storage"
	"relay-hq/gemini/pkg/relay/handlers"
	"relay-hq/gemini/pkg/relay/middleware"
	"relay-hq/gemini/pkg/security/secrets"
	"relay-hq/gemini/pkg/telemetry/logging"
	"relay-hq/gemini/pkg/telemetry/metrics"
	"relay-hq/gemini/pkg/telemetry/tracing"
	"relay-hq/gemini/pkg/upstream"

	"github.com/prometheus/client_golang/prometheus"
)

// Options carries optional dependencies for New. The zero value is usable.
type Options struct {
	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Registry receives the relay metrics. A fresh registry is created
	// when nil and metrics are enabled.
	Registry *prometheus.Registry

	// HTTPClient overrides the upstream HTTP client.
	HTTPClient *http.Client

	// Secrets overrides the secret manager built from configuration.
	Secrets secrets.Resolver

	// Tracer overrides the tracer built from configuration.
	Tracer *tracing.Tracer

	// Version is reported as service.version on exported spans.
	Version string

	// Evidence overrides the evidence storage built from configuration.
	// It is used only when evidence is enabled and is not closed by the
	// relay.
	Evidence evidence.Storage
}

// Relay is an assembled relay: the handler wrapped in the standard
// middleware stack together with the resources it owns.
type Relay struct {
	// Handler serves relay requests, middleware included.
	Handler http.Handler

	// Metrics is nil when metrics are disabled.
	Metrics *metrics.Collector

	// Secrets resolves the Gemini credential.
	Secrets secrets.Resolver

	// Client is the upstream client.
	Client *upstream.Client

	// Tracer creates the relay's spans. It is a no-op when tracing is
	// disabled.
	Tracer *tracing.Tracer

	// Evidence and Recorder are nil when evidence recording is disabled.
	Evidence evidence.Storage
	Recorder *recorder.Recorder

	// Pruner applies the evidence retention policy.
	Pruner *retention.Pruner

	closers []io.Closer
}

// New assembles a Relay from cfg.
func New(cfg *config.Config, opts Options) (*Relay, error) {
	r := &Relay{}

	if cfg.Telemetry.Metrics.Enabled {
		r.Metrics = metrics.NewCollector(cfg.Telemetry.Metrics, opts.Registry)
	}

	r.Secrets = opts.Secrets
	if r.Secrets == nil {
		mgr, err := secrets.NewManagerFromConfig(cfg.Secrets)
		if err != nil {
			return nil, fmt.Errorf("failed to create secret manager: %w", err)
		}
		r.Secrets = mgr
		r.closers = append(r.closers, mgr)
	}

	r.Tracer = opts.Tracer
	if r.Tracer == nil {
		tracer, err := tracing.New(cfg.Telemetry.Tracing, opts.Version)
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("failed to create tracer: %w", err)
		}
		r.Tracer = tracer
		r.closers = append(r.closers, tracer)
	}

	client, err := upstream.NewClient(upstream.ClientConfig{
		BaseURL:    cfg.Upstream.BaseURL,
		Timeout:    cfg.Upstream.Timeout,
		HTTPClient: opts.HTTPClient,
		Metrics:    r.Metrics,
		Tracer:     r.Tracer,
	})
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to create upstream client: %w", err)
	}
	r.Client = client

	hcfg := handlers.Config{
		Client:  client,
		Secrets: r.Secrets,
		Logger:  opts.Logger,
		Metrics: r.Metrics,
	}
	if cfg.Evidence.Enabled {
		if err := r.startEvidence(cfg.Evidence, opts); err != nil {
			_ = r.Close()
			return nil, err
		}
		hcfg.Evidence = r.Recorder
	}

	h, err := handlers.NewGenerateHandler(hcfg)
	if err != nil {
		_ = r.Close()
		return nil, err
	}

	r.Handler = middleware.Standard(h, cfg.CORS.AllowedOrigin, r.Tracer)
	return r, nil
}

// startEvidence opens the evidence store, starts the async recorder and
// schedules retention. Closers are registered so that pruning stops first
// and the store closes after the recorder has drained.
func (r *Relay) startEvidence(cfg config.EvidenceConfig, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var store evidence.Storage
	if opts.Evidence != nil {
		store = opts.Evidence
	} else {
		s, err := storage.New(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to open evidence storage: %w", err)
		}
		store = s
		r.closers = append(r.closers, s)
	}
	r.Evidence = store

	r.Recorder = recorder.New(store, recorder.Config{
		AsyncBuffer:  cfg.Recorder.AsyncBuffer,
		WriteTimeout: cfg.Recorder.WriteTimeout,
		Logger:       logger,
		Metrics:      r.Metrics,
	})
	r.closers = append(r.closers, r.Recorder)

	r.Pruner = retention.NewPruner(store, retention.ConfigFrom(cfg.Retention), logger, r.Metrics)
	if err := r.Pruner.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start evidence retention: %w", err)
	}
	r.closers = append(r.closers, r.Pruner)
	return nil
}

// Close releases resources owned by the relay, such as file watchers,
// the evidence store and the span exporter. Resources close in reverse
// order of acquisition.
func (r *Relay) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		c := r.closers[i]
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// NewLogger builds the relay's redacting logger from cfg. A nil w means
// standard output.
func NewLogger(cfg config.LoggingConfig, w io.Writer) (*logging.Logger, error) {
	return logging.New(logging.Config{
		Level:         cfg.Level,
		Format:        cfg.Format,
		AddSource:     cfg.AddSource,
		RedactSecrets: cfg.RedactSecrets,
		Writer:        w,
	})
}
