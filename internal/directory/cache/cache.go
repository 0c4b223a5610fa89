// Package cache holds the last full directory snapshot fetched from upstream.
//
// Reads are cache-aside: the first GetAll after construction or after an
// Invalidate fetches from upstream and publishes the result; later calls
// return the published snapshot until the next Invalidate. There is no
// time-based expiry.
//
// Thread Safety:
//
//	Cache is safe for concurrent use. The snapshot pointer and the epoch are
//	guarded by an RWMutex and replaced wholesale, never edited in place.
//	Concurrent misses within one epoch share a single upstream fetch through
//	a singleflight group keyed by epoch.
package cache

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"staffgate/internal/directory/metrics"
	"staffgate/internal/directory/models"
)

// FetchFunc loads the full directory. The cache does not retry; pass a
// fetch that is already wrapped by the retry policy.
type FetchFunc func(ctx context.Context) ([]models.Employee, error)

// Cache is the directory snapshot cache.
type Cache struct {
	fetch FetchFunc

	mu       sync.RWMutex
	snapshot *models.Snapshot
	epoch    uint64

	flight  singleflight.Group
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(c *Cache)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithClock overrides the time source used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates an empty cache backed by fetch.
func New(fetch FetchFunc, opts ...Option) *Cache {
	c := &Cache{
		fetch:  fetch,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetAll returns the published snapshot, fetching one if none is published.
// A failed fetch publishes nothing and its error is returned to every caller
// that was waiting on it.
func (c *Cache) GetAll(ctx context.Context) (*models.Snapshot, error) {
	c.mu.RLock()
	snap, epoch := c.snapshot, c.epoch
	c.mu.RUnlock()

	if snap != nil {
		c.metrics.IncrementCacheLookup("hit")
		return snap, nil
	}
	c.metrics.IncrementCacheLookup("miss")

	// The shared fetch outlives any single caller; one caller giving up must
	// not fail the others waiting on the same flight.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(strconv.FormatUint(epoch, 10), func() (any, error) {
		return c.load(fetchCtx, epoch)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) load(ctx context.Context, epoch uint64) (*models.Snapshot, error) {
	// A flight for this epoch may have completed between our read and
	// DoChan; reuse what it published.
	c.mu.RLock()
	if c.epoch == epoch && c.snapshot != nil {
		snap := c.snapshot
		c.mu.RUnlock()
		return snap, nil
	}
	c.mu.RUnlock()

	start := time.Now()
	employees, err := c.fetch(ctx)
	if err != nil {
		c.metrics.IncrementCacheRefresh("failed")
		c.logger.ErrorContext(ctx, "directory snapshot fetch failed",
			"epoch", epoch,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	snap := models.NewSnapshot(employees, c.now())

	c.mu.Lock()
	published := c.epoch == epoch
	if published {
		c.snapshot = snap
	}
	c.mu.Unlock()

	if !published {
		// Invalidated while in flight: callers of the old epoch still get
		// this result, but it is not kept.
		c.metrics.IncrementCacheRefresh("discarded")
		c.logger.InfoContext(ctx, "directory snapshot discarded, invalidated during fetch",
			"epoch", epoch,
			"employees", snap.Len(),
		)
		return snap, nil
	}

	c.metrics.IncrementCacheRefresh("published")
	c.metrics.SetSnapshotSize(snap.Len())
	c.logger.InfoContext(ctx, "directory snapshot published",
		"epoch", epoch,
		"employees", snap.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return snap, nil
}

// Invalidate discards the published snapshot. The next GetAll fetches a
// fresh one. Snapshots already handed out are unaffected.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.epoch++
	epoch := c.epoch
	c.mu.Unlock()

	c.metrics.IncrementCacheInvalidation()
	c.metrics.SetSnapshotSize(0)
	c.logger.Info("directory cache invalidated", "epoch", epoch)
}

// Peek returns the published snapshot without fetching.
func (c *Cache) Peek() (*models.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot, c.snapshot != nil
}

// Epoch returns the number of invalidations so far.
func (c *Cache) Epoch() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch
}
