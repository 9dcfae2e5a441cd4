package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ovenbird/cakeshop-reviews/internal/domain"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/metrics"
)

const (
	tierReviews  = "reviews"
	tierSnapshot = "snapshot"
)

// ReviewCache holds per-product review lists plus a single global snapshot of
// all reviews. Both expire on the same short TTL. A product entry populated
// from the snapshot carries the snapshot's CachedAt, not the population time.
//
// Every slot records an invalidation watermark: a population whose fetch
// started before the latest invalidation is discarded, so an in-flight fetch
// can never resurrect data that a newer review write already invalidated.
type ReviewCache struct {
	ttl     time.Duration
	snapTTL time.Duration
	clock   func() time.Time
	metrics *metrics.Metrics

	mu    sync.RWMutex
	slots map[uuid.UUID]*reviewSlot

	snapMu          sync.Mutex
	snapshot        *Entry[[]*domain.Review]
	snapInvalidated time.Time
}

type reviewSlot struct {
	mu            sync.Mutex
	entry         *Entry[[]*domain.Review]
	invalidatedAt time.Time
}

// NewReviewCache creates the tier and subscribes it to the bus. A product
// invalidation drops that product's entry and the whole snapshot: the
// snapshot is a cross-product aggregate, so a partial invalidation of it
// would be unsound.
func NewReviewCache(ttl, snapshotTTL time.Duration, bus *Bus, m *metrics.Metrics, clock func() time.Time) *ReviewCache {
	if clock == nil {
		clock = time.Now
	}
	c := &ReviewCache{
		ttl:     ttl,
		snapTTL: snapshotTTL,
		clock:   clock,
		metrics: m,
		slots:   make(map[uuid.UUID]*reviewSlot),
	}
	bus.SubscribeProduct(func(inv ProductInvalidation) {
		c.Invalidate(inv.ProductID, inv.At)
		c.InvalidateSnapshot(inv.At)
	})
	bus.SubscribeClear(c.Clear)
	return c
}

func (c *ReviewCache) slot(productID uuid.UUID) *reviewSlot {
	c.mu.RLock()
	s, ok := c.slots[productID]
	c.mu.RUnlock()
	if ok {
		return s
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok = c.slots[productID]; ok {
		return s
	}
	s = &reviewSlot{}
	c.slots[productID] = s
	return s
}

// Get returns the product's review list if a fresh entry exists.
func (c *ReviewCache) Get(productID uuid.UUID) ([]*domain.Review, bool) {
	s := c.slot(productID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry != nil && s.entry.Fresh(c.ttl, c.clock()) {
		c.metrics.CacheHits.WithLabelValues(tierReviews).Inc()
		return s.entry.Value, true
	}
	c.metrics.CacheMisses.WithLabelValues(tierReviews).Inc()
	return nil, false
}

// Stale returns the product's last cached list regardless of TTL. Used as the
// fallback when the store is unreachable.
func (c *ReviewCache) Stale(productID uuid.UUID) ([]*domain.Review, bool) {
	s := c.slot(productID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry == nil {
		return nil, false
	}
	return s.entry.Value, true
}

// Snapshot returns the global review list and its CachedAt if fresh.
func (c *ReviewCache) Snapshot() ([]*domain.Review, time.Time, bool) {
	c.snapMu.Lock()
	defer c.snapMu.Unlock()

	if c.snapshot != nil && c.snapshot.Fresh(c.snapTTL, c.clock()) {
		c.metrics.CacheHits.WithLabelValues(tierSnapshot).Inc()
		return c.snapshot.Value, c.snapshot.CachedAt, true
	}
	c.metrics.CacheMisses.WithLabelValues(tierSnapshot).Inc()
	return nil, time.Time{}, false
}

// StaleSnapshot returns the last snapshot regardless of TTL.
func (c *ReviewCache) StaleSnapshot() ([]*domain.Review, bool) {
	c.snapMu.Lock()
	defer c.snapMu.Unlock()

	if c.snapshot == nil {
		return nil, false
	}
	return c.snapshot.Value, true
}

// PopulateProduct stores a review list for a product. startedAt is the time
// the backing fetch began; the write is discarded when an invalidation
// arrived after the fetch started. Reports whether the write was accepted.
func (c *ReviewCache) PopulateProduct(productID uuid.UUID, reviews []*domain.Review, cachedAt, startedAt time.Time) bool {
	s := c.slot(productID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.invalidatedAt.After(startedAt) {
		c.metrics.DiscardedPopulations.WithLabelValues(tierReviews).Inc()
		return false
	}
	s.entry = &Entry[[]*domain.Review]{Value: reviews, CachedAt: cachedAt}
	return true
}

// PopulateSnapshot stores the global review list under the same watermark rule.
func (c *ReviewCache) PopulateSnapshot(reviews []*domain.Review, cachedAt, startedAt time.Time) bool {
	c.snapMu.Lock()
	defer c.snapMu.Unlock()

	if c.snapInvalidated.After(startedAt) {
		c.metrics.DiscardedPopulations.WithLabelValues(tierSnapshot).Inc()
		return false
	}
	c.snapshot = &Entry[[]*domain.Review]{Value: reviews, CachedAt: cachedAt}
	return true
}

// Invalidate drops the product's entry and advances its watermark.
func (c *ReviewCache) Invalidate(productID uuid.UUID, at time.Time) {
	s := c.slot(productID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entry = nil
	if at.After(s.invalidatedAt) {
		s.invalidatedAt = at
	}
	c.metrics.CacheInvalidations.WithLabelValues(tierReviews).Inc()
}

// InvalidateSnapshot drops the global snapshot and advances its watermark.
func (c *ReviewCache) InvalidateSnapshot(at time.Time) {
	c.snapMu.Lock()
	defer c.snapMu.Unlock()

	c.snapshot = nil
	if at.After(c.snapInvalidated) {
		c.snapInvalidated = at
	}
	c.metrics.CacheInvalidations.WithLabelValues(tierSnapshot).Inc()
}

// Clear drops every entry and resets the watermarks.
func (c *ReviewCache) Clear() {
	c.mu.Lock()
	c.slots = make(map[uuid.UUID]*reviewSlot)
	c.mu.Unlock()

	c.snapMu.Lock()
	c.snapshot = nil
	c.snapInvalidated = time.Time{}
	c.snapMu.Unlock()
}

// FilterByProduct selects the reviews belonging to one product, preserving
// order. Shared by the snapshot read path and the fallback paths.
func FilterByProduct(reviews []*domain.Review, productID uuid.UUID) []*domain.Review {
	filtered := make([]*domain.Review, 0)
	for _, r := range reviews {
		if r.ProductID == productID {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
