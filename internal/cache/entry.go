// Package cache holds the in-process cache tiers behind product ratings and
// the Redis-backed bill review status tier, wired together through an
// invalidation bus.
package cache

import "time"

// Entry is one cached value with the timestamp it was computed at.
// Staleness is decided lazily on read; entries are never swept.
type Entry[T any] struct {
	Value    T
	CachedAt time.Time
}

// Fresh reports whether the entry is within ttl as of now.
func (e Entry[T]) Fresh(ttl time.Duration, now time.Time) bool {
	return now.Sub(e.CachedAt) <= ttl
}
