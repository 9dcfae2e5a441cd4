package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ovenbird/cakeshop-reviews/internal/domain"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/metrics"
)

const tierBatchRating = "batch_rating"

// BatchRatingCache holds per-product scalar aggregates on a longer TTL than
// the review list tier. List and grid views read it for many products at once,
// so misses are reported as a set to be refreshed in one backing call.
type BatchRatingCache struct {
	ttl     time.Duration
	clock   func() time.Time
	metrics *metrics.Metrics

	mu    sync.RWMutex
	slots map[uuid.UUID]*batchSlot
}

type batchSlot struct {
	mu            sync.Mutex
	entry         *Entry[domain.BatchRating]
	invalidatedAt time.Time
}

// NewBatchRatingCache creates the tier and subscribes it to the bus.
func NewBatchRatingCache(ttl time.Duration, bus *Bus, m *metrics.Metrics, clock func() time.Time) *BatchRatingCache {
	if clock == nil {
		clock = time.Now
	}
	c := &BatchRatingCache{
		ttl:     ttl,
		clock:   clock,
		metrics: m,
		slots:   make(map[uuid.UUID]*batchSlot),
	}
	bus.SubscribeProduct(func(inv ProductInvalidation) {
		c.Invalidate(inv.ProductID, inv.At)
	})
	bus.SubscribeClear(c.Clear)
	return c
}

func (c *BatchRatingCache) slot(productID uuid.UUID) *batchSlot {
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
	s = &batchSlot{}
	c.slots[productID] = s
	return s
}

// Get returns the product's fresh scalar rating, if cached.
func (c *BatchRatingCache) Get(productID uuid.UUID) (domain.BatchRating, bool) {
	s := c.slot(productID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry != nil && s.entry.Fresh(c.ttl, c.clock()) {
		c.metrics.CacheHits.WithLabelValues(tierBatchRating).Inc()
		return s.entry.Value, true
	}
	c.metrics.CacheMisses.WithLabelValues(tierBatchRating).Inc()
	return domain.BatchRating{}, false
}

// Partition splits productIDs into the fresh-cached ratings and the IDs that
// need a backing refresh. Duplicate IDs collapse.
func (c *BatchRatingCache) Partition(productIDs []uuid.UUID) (map[uuid.UUID]domain.BatchRating, []uuid.UUID) {
	fresh := make(map[uuid.UUID]domain.BatchRating)
	stale := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]struct{}, len(productIDs))

	for _, id := range productIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if r, ok := c.Get(id); ok {
			fresh[id] = r
		} else {
			stale = append(stale, id)
		}
	}
	return fresh, stale
}

// Populate stores a scalar rating under the watermark rule. Reports whether
// the write was accepted.
func (c *BatchRatingCache) Populate(productID uuid.UUID, r domain.BatchRating, cachedAt, startedAt time.Time) bool {
	s := c.slot(productID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.invalidatedAt.After(startedAt) {
		c.metrics.DiscardedPopulations.WithLabelValues(tierBatchRating).Inc()
		return false
	}
	s.entry = &Entry[domain.BatchRating]{Value: r, CachedAt: cachedAt}
	return true
}

// Invalidate drops the product's entry and advances its watermark.
func (c *BatchRatingCache) Invalidate(productID uuid.UUID, at time.Time) {
	s := c.slot(productID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entry = nil
	if at.After(s.invalidatedAt) {
		s.invalidatedAt = at
	}
	c.metrics.CacheInvalidations.WithLabelValues(tierBatchRating).Inc()
}

// Clear drops every entry and resets the watermarks.
func (c *BatchRatingCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots = make(map[uuid.UUID]*batchSlot)
}
