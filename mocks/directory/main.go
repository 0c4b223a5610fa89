// Command directory runs a simulated employee directory that rate limits its
// callers at random, for exercising staffgate locally.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"staffgate/internal/platform/httpserver"
	"staffgate/internal/platform/logger"
)

type options struct {
	addr        string
	seed        int
	minRequests int
	maxRequests int
	minBackoff  time.Duration
	maxBackoff  time.Duration
	logLevel    string
}

func main() {
	if err := newCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "directory",
		Short:         "Simulated employee directory with random rate limiting",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", ":8112", "listen address")
	cmd.Flags().IntVar(&opts.seed, "employees", 50, "number of employees to seed")
	cmd.Flags().IntVar(&opts.minRequests, "min-requests", 5, "fewest requests served before rate limiting")
	cmd.Flags().IntVar(&opts.maxRequests, "max-requests", 10, "most requests served before rate limiting; 0 disables rate limiting")
	cmd.Flags().DurationVar(&opts.minBackoff, "min-backoff", 30*time.Second, "shortest rate limit window")
	cmd.Flags().DurationVar(&opts.maxBackoff, "max-backoff", 90*time.Second, "longest rate limit window")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	return cmd
}

func run(ctx context.Context, opts options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New(opts.logLevel, "text").With("component", "mock-directory")
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	srv := &server{
		store:    newStore(rng, opts.seed),
		throttle: newThrottle(rng, time.Now, opts.minRequests, opts.maxRequests, opts.minBackoff, opts.maxBackoff),
		logger:   log,
	}
	httpSrv := httpserver.New(opts.addr, srv.routes(), 0)

	errCh := make(chan error, 1)
	go func() {
		log.Info("mock directory listening", "addr", opts.addr, "employees", opts.seed)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
