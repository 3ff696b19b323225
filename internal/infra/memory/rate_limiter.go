// File: internal/infra/memory/rate_limiter.go
package memory

import (
	"fmt"
	"sync"
	"time"
)

// Category buckets inbound events so each class carries its own quota.
type Category string

const (
	CategoryCommand  Category = "command"
	CategoryCallback Category = "callback"
	CategoryMessage  Category = "message"
)

// RateLimiter is a sliding-window admission gate plus a short-interval
// duplicate suppressor. It is a pure gate: no side effects beyond its own
// bookkeeping, and it never fails — absence of prior state means "not limited".
type RateLimiter struct {
	mu        sync.Mutex
	windows   map[string][]time.Time
	lastSeen  map[string]time.Time
	retention time.Duration
	now       func() time.Time
}

func NewRateLimiter(retention time.Duration) *RateLimiter {
	if retention <= 0 {
		retention = 5 * time.Minute
	}
	return &RateLimiter{
		windows:   make(map[string][]time.Time),
		lastSeen:  make(map[string]time.Time),
		retention: retention,
		now:       time.Now,
	}
}

// WithClock overrides the time source for deterministic tests.
func (r *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	r.now = now
	return r
}

func windowKey(userID int64, cat Category) string {
	return fmt.Sprintf("%d:%s", userID, cat)
}

// Allow reports whether the event is admitted. Entries older than window are
// pruned first; a rejected event is not recorded, so a burst does not consume
// its own quota.
func (r *RateLimiter) Allow(userID int64, cat Category, max int, window time.Duration) bool {
	now := r.now()
	key := windowKey(userID, cat)

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := prune(r.windows[key], now, window)
	if len(kept) >= max {
		r.windows[key] = kept
		return false
	}
	r.windows[key] = append(kept, now)
	return true
}

// IsDuplicate reports whether the event follows the previous one of the same
// type within minInterval. The stored timestamp is always refreshed, so a
// stream of rapid retries stays suppressed until the user actually pauses.
func (r *RateLimiter) IsDuplicate(userID int64, requestType string, minInterval time.Duration) bool {
	now := r.now()
	key := fmt.Sprintf("%d:%s", userID, requestType)

	r.mu.Lock()
	defer r.mu.Unlock()

	last, ok := r.lastSeen[key]
	r.lastSeen[key] = now
	return ok && now.Sub(last) < minInterval
}

// Sweep drops windows with no live entries and last-seen stamps beyond the
// retention horizon, bounding memory to recently active users. It returns the
// number of evicted entries.
func (r *RateLimiter) Sweep() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for key, ts := range r.windows {
		kept := prune(ts, now, r.retention)
		if len(kept) == 0 {
			delete(r.windows, key)
			evicted++
			continue
		}
		r.windows[key] = kept
	}
	for key, last := range r.lastSeen {
		if now.Sub(last) > r.retention {
			delete(r.lastSeen, key)
			evicted++
		}
	}
	return evicted
}

// Entries reports the number of tracked windows and duplicate stamps.
func (r *RateLimiter) Entries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.windows) + len(r.lastSeen)
}

func prune(ts []time.Time, now time.Time, window time.Duration) []time.Time {
	cut := 0
	for cut < len(ts) && now.Sub(ts[cut]) >= window {
		cut++
	}
	return ts[cut:]
}
