package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveUpstreamCall("fetch_all", "rate_limited", 10*time.Millisecond)
	m.ObserveUpstreamCall("fetch_all", "rate_limited", 10*time.Millisecond)
	m.IncrementRetry("create")
	m.IncrementRetryExhausted("create")
	m.IncrementCacheLookup("hit")
	m.IncrementCacheRefresh("published")
	m.IncrementCacheInvalidation()
	m.SetSnapshotSize(12)
	m.IncrementFallback("miss")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.UpstreamCalls.WithLabelValues("fetch_all", "rate_limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RetryAttempts.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RetryExhausted.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRefreshes.WithLabelValues("published")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheInvalidations))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.SnapshotSize))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackLookups.WithLabelValues("miss")))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveUpstreamCall("fetch_all", "success", time.Millisecond)
		m.IncrementRetry("create")
		m.IncrementRetryExhausted("create")
		m.IncrementCacheLookup("miss")
		m.IncrementCacheRefresh("failed")
		m.IncrementCacheInvalidation()
		m.SetSnapshotSize(0)
		m.IncrementFallback("hit")
	})
}
