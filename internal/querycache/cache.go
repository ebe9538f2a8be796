// Package querycache provides per-target, time-based caching for expensive
// optional probes (custom statistics queries) whose freshness window is
// longer than the owning target's poll cadence.
//
// Unlike the target's own poll loop, entries here are refreshed lazily: a
// cycle that finds a fresh entry reuses it, and only a cycle that finds the
// entry expired pays for recomputing it.
package querycache

import (
	"sync"
	"time"

	"github.com/billdonner/server-monitor/internal/domain"
)

// Cache holds the last computed result for each sub-query of one target,
// keyed by the sub-query label. Labels are unique within a target; the
// config loader enforces that, so entries never collide.
type Cache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]entry
}

type entry struct {
	computedAt time.Time
	sample     domain.MetricSample
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{now: time.Now, entries: make(map[string]entry)}
}

// newWithClock is used by tests to control time.
func newWithClock(now func() time.Time) *Cache {
	c := New()
	c.now = now
	return c
}

// GetOrCompute returns the cached sample for label when it is younger than
// ttl. Otherwise it invokes compute; on success the result is stored with
// the current time and returned. On failure a degraded sample carrying the
// error text is returned and the cached timestamp is left untouched, so the
// next cycle retries instead of caching the failure.
func (c *Cache) GetOrCompute(label string, ttl time.Duration, compute func() (domain.MetricSample, error)) domain.MetricSample {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[label]; ok && c.now().Sub(e.computedAt) < ttl {
		return e.sample
	}

	sample, err := compute()
	if err != nil {
		return domain.DegradedSample(label, err)
	}

	c.entries[label] = entry{computedAt: c.now(), sample: sample}
	return sample
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
