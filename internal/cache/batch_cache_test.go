package cache

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ovenbird/cakeshop-reviews/internal/domain"
)

func TestBatchRatingCache_PartitionFreshAndStale(t *testing.T) {
	clock := newFakeClock()
	c := NewBatchRatingCache(15*time.Minute, NewBus(), testMetrics(), clock.Now)

	cached := uuid.New()
	missing := uuid.New()
	c.Populate(cached, domain.BatchRating{AverageRating: 4.4, TotalReviews: 5}, clock.Now(), clock.Now())

	fresh, stale := c.Partition([]uuid.UUID{cached, missing})

	assert.Equal(t, map[uuid.UUID]domain.BatchRating{
		cached: {AverageRating: 4.4, TotalReviews: 5},
	}, fresh)
	assert.Equal(t, []uuid.UUID{missing}, stale)
}

func TestBatchRatingCache_PartitionCollapsesDuplicates(t *testing.T) {
	clock := newFakeClock()
	c := NewBatchRatingCache(15*time.Minute, NewBus(), testMetrics(), clock.Now)

	id := uuid.New()
	fresh, stale := c.Partition([]uuid.UUID{id, id, id})

	assert.Empty(t, fresh)
	assert.Equal(t, []uuid.UUID{id}, stale)
}

func TestBatchRatingCache_LongerTTL(t *testing.T) {
	clock := newFakeClock()
	c := NewBatchRatingCache(15*time.Minute, NewBus(), testMetrics(), clock.Now)

	id := uuid.New()
	c.Populate(id, domain.BatchRating{AverageRating: 3.0, TotalReviews: 2}, clock.Now(), clock.Now())

	// Still fresh after the review tier's 5 minutes would have expired.
	clock.Advance(10 * time.Minute)
	_, ok := c.Get(id)
	assert.True(t, ok)

	clock.Advance(6 * time.Minute)
	_, ok = c.Get(id)
	assert.False(t, ok)
}

func TestBatchRatingCache_WatermarkDiscardsLatePopulation(t *testing.T) {
	clock := newFakeClock()
	c := NewBatchRatingCache(15*time.Minute, NewBus(), testMetrics(), clock.Now)

	id := uuid.New()
	fetchStarted := clock.Now()

	clock.Advance(time.Second)
	c.Invalidate(id, clock.Now())

	accepted := c.Populate(id, domain.BatchRating{AverageRating: 5, TotalReviews: 1}, clock.Now(), fetchStarted)
	assert.False(t, accepted)

	_, ok := c.Get(id)
	assert.False(t, ok)
}

func TestBatchRatingCache_BusInvalidation(t *testing.T) {
	clock := newFakeClock()
	bus := NewBus()
	c := NewBatchRatingCache(15*time.Minute, bus, testMetrics(), clock.Now)

	id := uuid.New()
	c.Populate(id, domain.BatchRating{AverageRating: 4.0, TotalReviews: 3}, clock.Now(), clock.Now())

	clock.Advance(time.Second)
	bus.PublishProduct(ProductInvalidation{ProductID: id, AccountID: uuid.New(), At: clock.Now()})

	_, ok := c.Get(id)
	assert.False(t, ok)
}

func TestBus_SynchronousDelivery(t *testing.T) {
	bus := NewBus()

	var productCalls, billCalls, clearCalls int
	bus.SubscribeProduct(func(ProductInvalidation) { productCalls++ })
	bus.SubscribeProduct(func(ProductInvalidation) { productCalls++ })
	bus.SubscribeBill(func(BillInvalidation) { billCalls++ })
	bus.SubscribeClear(func() { clearCalls++ })

	bus.PublishProduct(ProductInvalidation{ProductID: uuid.New(), At: time.Now()})
	bus.PublishBill(BillInvalidation{BillID: uuid.New(), AccountID: uuid.New(), At: time.Now()})
	bus.PublishClear()

	// Handlers ran before Publish returned.
	assert.Equal(t, 2, productCalls)
	assert.Equal(t, 1, billCalls)
	assert.Equal(t, 1, clearCalls)
}
