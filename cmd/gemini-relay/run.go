package main

import (
	"fmt"
	"log/slog"
	"time"

	"relay-hq/gemini/pkg/cli"
	"relay-hq/gemini/pkg/config"
	"relay-hq/gemini/pkg/relay"
	"relay-hq/gemini/pkg/security/secrets"
	"relay-hq/gemini/pkg/server"

	"github.com/spf13/cobra"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the relay server",
	Long: `Start the relay server with the specified configuration.

Examples:
  # Start with environment configuration
  GEMINI_API_KEY=... gemini-relay run

  # Start with custom config
  gemini-relay run --config /etc/gemini-relay/config.yaml

  # Override listen address
  gemini-relay run --listen 0.0.0.0:8080

  # Validate config without starting server
  gemini-relay run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to load config: %w", err))
	}

	// Flag overrides apply to a private copy; the loaded configuration
	// stays immutable.
	cfg := *config.GetConfig()
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if err := config.Validate(&cfg); err != nil {
		return cli.NewCommandError("run", err)
	}

	logger, err := relay.NewLogger(cfg.Telemetry.Logging, nil)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	slog.SetDefault(logger.Slog())

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	r, err := relay.New(&cfg, relay.Options{Logger: logger.Slog(), Version: Version})
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer r.Close()

	if _, err := r.Secrets.GetSecret(cmd.Context(), secrets.GeminiAPIKey); err != nil {
		slog.Warn("GEMINI_API_KEY not configured; relay requests will fail until it is set")
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	srv := server.NewServer(&cfg, r, versionInfo())

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(ctx)
	}()

	select {
	case <-srv.Ready():
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintf(out, "Gemini relay %s (model %s)\n", Version, versionInfo().Model)
	fmt.Fprintf(out, "✓ Server listening on %s://%s\n", srv.Scheme(), srv.Addr())
	fmt.Fprintf(out, "✓ Health endpoint: %s://%s/health\n", srv.Scheme(), srv.Addr())
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(out, "✓ Metrics endpoint: %s://%s%s\n", srv.Scheme(), srv.Addr(), cfg.Telemetry.Metrics.Path)
	}
	if cfg.Telemetry.Tracing.Enabled {
		fmt.Fprintf(out, "✓ Exporting traces to %s\n", cfg.Telemetry.Tracing.Endpoint)
	}
	if cfg.Evidence.Enabled {
		fmt.Fprintf(out, "✓ Recording evidence (%s backend)\n", cfg.Evidence.Backend)
		if next := r.Pruner.NextPruning(); next != nil {
			fmt.Fprintf(out, "✓ Next evidence pruning: %s\n", next.Format(time.RFC3339))
		}
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	if err := <-errChan; err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}
