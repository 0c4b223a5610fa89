package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"staffgate/internal/platform/config"
	"staffgate/internal/platform/httpserver"
	"staffgate/internal/platform/logger"
	"staffgate/internal/platform/telemetry"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "staffgate",
		Short:         "Resilient gateway in front of the employee directory API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

type serveFlags struct {
	addr        string
	upstreamURL string
	logLevel    string
	logFormat   string
}

func newServeCmd() *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the employee API",
		Long: `Serve the employee API on STAFFGATE_ADDR, backed by the directory at
UPSTREAM_BASE_URL. Flags override the environment.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			flags.apply(cmd, &cfg)
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (overrides STAFFGATE_ADDR)")
	cmd.Flags().StringVar(&flags.upstreamURL, "upstream-url", "", "directory API base URL (overrides UPSTREAM_BASE_URL)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	cmd.Flags().StringVar(&flags.logFormat, "log-format", "", "text or json (overrides LOG_FORMAT)")
	return cmd
}

func (f serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = f.addr
	}
	if cmd.Flags().Changed("upstream-url") {
		cfg.Upstream.BaseURL = f.upstreamURL
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "staffgate",
		ServiceVersion: version,
		Exporter:       cfg.Telemetry.Exporter,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure:   cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router, err := newRouter(cfg, log, reg)
	if err != nil {
		return err
	}
	srv := httpserver.New(cfg.Server.Addr, router, cfg.Server.RequestTimeout)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting staffgate",
			"addr", cfg.Server.Addr,
			"upstream", cfg.Upstream.BaseURL,
			"version", version,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracing shutdown failed", "error", err)
	}
	log.Info("staffgate stopped")
	return nil
}
