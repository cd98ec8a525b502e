package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"relay-hq/gemini/pkg/config"
	"relay-hq/gemini/pkg/relay"
	"relay-hq/gemini/pkg/relay/middleware"
	relaytls "relay-hq/gemini/pkg/security/tls"
	"relay-hq/gemini/pkg/telemetry/health"
)

// Server is the standalone HTTP server in front of the relay.
type Server struct {
	config     *config.Config
	relay      *relay.Relay
	checker    *health.Checker
	version    health.VersionInfo
	httpServer *http.Server

	listener     net.Listener
	ready        chan struct{}
	readyOnce    sync.Once
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a server for r. The readiness endpoint checks that the
// Gemini credential can be resolved.
func NewServer(cfg *config.Config, r *relay.Relay, version health.VersionInfo) *Server {
	checker := health.New(0)
	checker.RegisterCheck("credential", health.CredentialCheck(r.Secrets))
	if r.Evidence != nil {
		checker.RegisterCheck("evidence", health.StorageCheck(r.Evidence))
	}

	return &Server{
		config:  cfg,
		relay:   r,
		checker: checker,
		version: version,
		ready:   make(chan struct{}),
	}
}

// Start listens on the configured address and serves until ctx is
// canceled or the server fails. Cancellation triggers a graceful shutdown.
// With TLS enabled the certificate is loaded before listening and
// reloaded from disk while ctx is live.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	tlsCfg := s.config.Server.TLS
	var tlsConfig *tls.Config
	if tlsCfg.Enabled {
		reloader := relaytls.NewCertificateReloader(tlsCfg.CertFile, tlsCfg.KeyFile, tlsCfg.ReloadInterval)
		if err := reloader.Start(ctx); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to load TLS certificate: %w", err)
		}
		c, err := relaytls.ServerConfig(tlsCfg, reloader)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		tlsConfig = c
	}

	ln, err := net.Listen("tcp", s.config.Server.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.ListenAddress, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:        s.Handler(),
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
		TLSConfig:      tlsConfig,
		ErrorLog:       slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),

		DisableGeneralOptionsHandler: true,
	}
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting relay server",
			"address", ln.Addr().String(),
			"tls", tlsConfig != nil,
			"metrics_enabled", s.config.Telemetry.Metrics.Enabled,
			"tracing_enabled", s.config.Telemetry.Tracing.Enabled,
		)

		var err error
		if tlsConfig != nil {
			err = s.httpServer.ServeTLS(ln, "", "")
		} else {
			err = s.httpServer.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()
	s.readyOnce.Do(func() { close(s.ready) })

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Ready is closed once the server is listening.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Scheme returns "https" when TLS is enabled and "http" otherwise.
func (s *Server) Scheme() string {
	if s.config.Server.TLS.Enabled {
		return "https"
	}
	return "http"
}

// Addr returns the listening address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully shuts down the server, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		s.mu.RUnlock()
		if !running {
			return
		}

		slog.Info("initiating graceful shutdown", "timeout", s.config.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("relay server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the server's routes. Operational endpoints match their
// exact path; every other request, whatever its path or form, goes to the
// relay so it always carries CORS headers and an envelope.
//
//	/health    liveness
//	/ready     readiness (credential present)
//	/version   build information
//	/metrics   Prometheus, when enabled (path configurable)
//	*          relay (full middleware stack)
func (s *Server) Handler() http.Handler {
	ops := func(h http.Handler) http.Handler {
		return middleware.Chain(h,
			middleware.RecoveryMiddleware,
			middleware.LoggingMiddleware,
			middleware.RequestIDMiddleware,
		)
	}

	routes := map[string]http.Handler{
		"/health":  ops(s.checker.LivenessHandler()),
		"/ready":   ops(s.checker.ReadinessHandler()),
		"/version": ops(health.VersionHandler(s.version)),
	}
	if s.config.Telemetry.Metrics.Enabled && s.relay.Metrics != nil {
		routes[s.config.Telemetry.Metrics.Path] = s.relay.Metrics.Handler()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		s.relay.Handler.ServeHTTP(w, r)
	})
}
