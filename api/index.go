// Package handler is the serverless entry point. Platforms that run Go
// functions (Vercel and similar) invoke Handler once per request; the relay
// is assembled from environment variables on first use and reused by warm
// instances.
package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"relay-hq/gemini/pkg/config"
	"relay-hq/gemini/pkg/relay"
	"relay-hq/gemini/pkg/relay/middleware"
	"relay-hq/gemini/pkg/relay/types"
)

var (
	initOnce       sync.Once
	defaultHandler http.Handler
)

// Handler is the entry point for the serverless runtime.
func Handler(w http.ResponseWriter, r *http.Request) {
	initOnce.Do(func() {
		h, err := newHandler()
		if err != nil {
			slog.Error("failed to initialize relay", "error", err)
			h = initFailure(err)
		}
		defaultHandler = h
	})
	defaultHandler.ServeHTTP(w, r)
}

// newHandler builds the relay from the environment. The relay lives for
// the lifetime of the instance, so it is never closed.
func newHandler() (http.Handler, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// No endpoint serves metrics here, and file watchers and cron jobs do
	// not survive between invocations. Evidence pruning is left to the CLI.
	cfg.Telemetry.Metrics.Enabled = false
	cfg.Secrets.Watch = false
	cfg.Evidence.Retention.PruneSchedule = ""

	logger, err := relay.NewLogger(cfg.Telemetry.Logging, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	slog.SetDefault(logger.Slog())

	r, err := relay.New(cfg, relay.Options{Logger: logger.Slog()})
	if err != nil {
		return nil, err
	}
	return r.Handler, nil
}

// initFailure answers every request with a 500 envelope when the relay
// could not be built. CORS headers are still sent so browsers surface the
// error body.
func initFailure(err error) http.Handler {
	origin := os.Getenv(config.EnvPrefix + "ALLOWED_ORIGIN")
	if origin == "" {
		origin = os.Getenv(config.AllowedOriginEnv)
	}
	details := err.Error()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.SetCORSHeaders(w.Header(), origin)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_ = types.WriteEnvelope(w, http.StatusInternalServerError, types.Envelope{Error: types.MsgInternalError, Details: details})
	})
}
