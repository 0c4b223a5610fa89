package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the directory resilience layer.
// All methods are safe to call on a nil receiver.
type Metrics struct {
	// Upstream calls by operation and classified outcome
	UpstreamCalls   *prometheus.CounterVec
	UpstreamLatency *prometheus.HistogramVec

	// Retry policy
	RetryAttempts  *prometheus.CounterVec
	RetryExhausted *prometheus.CounterVec

	// Snapshot cache
	CacheLookups       *prometheus.CounterVec
	CacheRefreshes     *prometheus.CounterVec
	CacheInvalidations prometheus.Counter
	SnapshotSize       prometheus.Gauge

	// By-id fallback
	FallbackLookups *prometheus.CounterVec
}

// New creates a Metrics instance registered with reg. Pass nil to use the
// default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		UpstreamCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "staffgate_upstream_calls_total",
			Help: "Upstream directory calls by operation and outcome",
		}, []string{"op", "outcome"}),

		UpstreamLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "staffgate_upstream_call_duration_seconds",
			Help:    "Duration of a single upstream directory round trip",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"op"}),

		RetryAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "staffgate_retry_attempts_total",
			Help: "Retries scheduled after a rate-limited upstream call",
		}, []string{"op"}),

		RetryExhausted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "staffgate_retry_exhausted_total",
			Help: "Operations that gave up after repeated rate limiting",
		}, []string{"op"}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "staffgate_cache_lookups_total",
			Help: "Snapshot cache lookups by result (hit, miss)",
		}, []string{"result"}),

		CacheRefreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "staffgate_cache_refreshes_total",
			Help: "Upstream snapshot fetches by result (published, discarded, failed)",
		}, []string{"result"}),

		CacheInvalidations: f.NewCounter(prometheus.CounterOpts{
			Name: "staffgate_cache_invalidations_total",
			Help: "Snapshot invalidations triggered by successful writes",
		}),

		SnapshotSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "staffgate_cache_snapshot_employees",
			Help: "Number of employees in the currently published snapshot",
		}),

		FallbackLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "staffgate_fallback_lookups_total",
			Help: "By-id lookups served from the snapshot after an upstream failure, by result (hit, miss, error)",
		}, []string{"result"}),
	}
}

// ObserveUpstreamCall records one upstream round trip.
func (m *Metrics) ObserveUpstreamCall(op, outcome string, d time.Duration) {
	if m != nil {
		m.UpstreamCalls.WithLabelValues(op, outcome).Inc()
		m.UpstreamLatency.WithLabelValues(op).Observe(d.Seconds())
	}
}

// IncrementRetry records a scheduled retry.
func (m *Metrics) IncrementRetry(op string) {
	if m != nil {
		m.RetryAttempts.WithLabelValues(op).Inc()
	}
}

// IncrementRetryExhausted records an operation that ran out of attempts.
func (m *Metrics) IncrementRetryExhausted(op string) {
	if m != nil {
		m.RetryExhausted.WithLabelValues(op).Inc()
	}
}

// IncrementCacheLookup records a hit or miss.
func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// IncrementCacheRefresh records the fate of an upstream snapshot fetch.
func (m *Metrics) IncrementCacheRefresh(result string) {
	if m != nil {
		m.CacheRefreshes.WithLabelValues(result).Inc()
	}
}

// IncrementCacheInvalidation records a snapshot invalidation.
func (m *Metrics) IncrementCacheInvalidation() {
	if m != nil {
		m.CacheInvalidations.Inc()
	}
}

// SetSnapshotSize records the size of the published snapshot.
func (m *Metrics) SetSnapshotSize(n int) {
	if m != nil {
		m.SnapshotSize.Set(float64(n))
	}
}

// IncrementFallback records a by-id fallback result.
func (m *Metrics) IncrementFallback(result string) {
	if m != nil {
		m.FallbackLookups.WithLabelValues(result).Inc()
	}
}
