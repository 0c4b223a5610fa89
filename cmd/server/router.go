package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"staffgate/internal/directory/cache"
	"staffgate/internal/directory/handler"
	dirmetrics "staffgate/internal/directory/metrics"
	"staffgate/internal/directory/retry"
	"staffgate/internal/directory/service"
	"staffgate/internal/directory/upstream"
	"staffgate/internal/platform/config"
	platformmetrics "staffgate/internal/platform/metrics"
	"staffgate/pkg/platform/httputil"
)

// newRouter builds the full dependency graph and returns the root handler.
// Metrics are registered with reg and served from it.
func newRouter(cfg config.Config, log *slog.Logger, reg *prometheus.Registry, retryOpts ...retry.Option) (http.Handler, error) {
	policy := retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		Multiplier:  cfg.Retry.Multiplier,
		MaxDelay:    cfg.Retry.MaxDelay,
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("retry policy: %w", err)
	}

	dm := dirmetrics.New(reg)
	client := upstream.New(cfg.Upstream.BaseURL,
		upstream.WithTimeout(cfg.Upstream.Timeout),
		upstream.WithRateLimit(cfg.Upstream.RatePerSec, cfg.Upstream.RateBurst),
		upstream.WithLogger(log),
		upstream.WithMetrics(dm),
	)

	retrier := retry.New(policy, append([]retry.Option{
		retry.WithLogger(log),
		retry.WithMetrics(dm),
	}, retryOpts...)...)

	snapshots := cache.New(
		retry.Wrap(retrier, string(upstream.OpFetchAll), client.FetchAll),
		cache.WithLogger(log),
		cache.WithMetrics(dm),
	)
	directory := service.New(client, snapshots, retrier,
		service.WithLogger(log),
		service.WithMetrics(dm),
	)

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	handler.New(directory, log, platformmetrics.New(reg), cfg.Server.RequestTimeout).Register(r)

	return otelhttp.NewHandler(r, "staffgate"), nil
}
