package main

import (
	"math/rand/v2"
	"sync"
	"time"
)

// throttle simulates the upstream's rate limiting: after a random number of
// requests every caller is refused for a random cool-down.
type throttle struct {
	mu          sync.Mutex
	rng         *rand.Rand
	now         func() time.Time
	minRequests int
	maxRequests int
	minBackoff  time.Duration
	maxBackoff  time.Duration

	remaining    int
	blockedUntil time.Time
}

func newThrottle(rng *rand.Rand, now func() time.Time, minRequests, maxRequests int, minBackoff, maxBackoff time.Duration) *throttle {
	t := &throttle{
		rng:         rng,
		now:         now,
		minRequests: minRequests,
		maxRequests: maxRequests,
		minBackoff:  minBackoff,
		maxBackoff:  maxBackoff,
	}
	t.remaining = t.budget()
	return t
}

// allow reports whether the request may proceed. A disabled throttle
// (maxRequests <= 0) always allows.
func (t *throttle) allow() bool {
	if t == nil || t.maxRequests <= 0 {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Before(t.blockedUntil) {
		return false
	}
	if t.remaining > 0 {
		t.remaining--
		return true
	}
	t.blockedUntil = now.Add(t.backoff())
	t.remaining = t.budget()
	return false
}

func (t *throttle) budget() int {
	if t.maxRequests <= t.minRequests {
		return t.minRequests
	}
	return t.minRequests + t.rng.IntN(t.maxRequests-t.minRequests+1)
}

func (t *throttle) backoff() time.Duration {
	if t.maxBackoff <= t.minBackoff {
		return t.minBackoff
	}
	return t.minBackoff + time.Duration(t.rng.Int64N(int64(t.maxBackoff-t.minBackoff)))
}
