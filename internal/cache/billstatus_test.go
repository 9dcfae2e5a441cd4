package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovenbird/cakeshop-reviews/internal/domain"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/logger"
)

func newBillStatusCache(t *testing.T, bus *Bus) (*BillStatusCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewBillStatusCache(client, bus, testMetrics(), logger.New("test")), mr
}

func sampleBillStatus(billID, accountID, productID uuid.UUID) *domain.BillReviewStatus {
	return &domain.BillReviewStatus{
		BillID:     billID,
		AccountID:  accountID,
		BillStatus: "delivered",
		CanReview:  true,
		Products: []domain.ProductReviewStatus{
			{
				BillDetailID: uuid.New(),
				ProductID:    productID,
				ProductName:  "carrot cake",
				CanReview:    true,
			},
		},
	}
}

func TestBillStatusCache_SetGetRoundTrip(t *testing.T) {
	c, _ := newBillStatusCache(t, NewBus())
	ctx := context.Background()

	billID, accountID, productID := uuid.New(), uuid.New(), uuid.New()
	status := sampleBillStatus(billID, accountID, productID)

	require.NoError(t, c.Set(ctx, status))

	got, err := c.Get(ctx, billID, accountID)
	require.NoError(t, err)
	assert.Equal(t, status, got)
}

func TestBillStatusCache_GetMiss(t *testing.T) {
	c, _ := newBillStatusCache(t, NewBus())

	_, err := c.Get(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBillStatusCache_EntriesHaveNoTTL(t *testing.T) {
	c, mr := newBillStatusCache(t, NewBus())
	ctx := context.Background()

	billID, accountID := uuid.New(), uuid.New()
	require.NoError(t, c.Set(ctx, sampleBillStatus(billID, accountID, uuid.New())))

	// Entries survive arbitrary time passing; only invalidation removes them.
	mr.FastForward(1000 * 60 * 60)

	_, err := c.Get(ctx, billID, accountID)
	assert.NoError(t, err)
}

func TestBillStatusCache_InvalidateByProduct(t *testing.T) {
	c, _ := newBillStatusCache(t, NewBus())
	ctx := context.Background()

	accountID, productID := uuid.New(), uuid.New()
	firstBill, secondBill := uuid.New(), uuid.New()

	require.NoError(t, c.Set(ctx, sampleBillStatus(firstBill, accountID, productID)))
	require.NoError(t, c.Set(ctx, sampleBillStatus(secondBill, accountID, productID)))

	// A bill of another account referencing the same product is untouched.
	otherAccount := uuid.New()
	otherBill := uuid.New()
	require.NoError(t, c.Set(ctx, sampleBillStatus(otherBill, otherAccount, productID)))

	require.NoError(t, c.InvalidateByProduct(ctx, accountID, productID))

	_, err := c.Get(ctx, firstBill, accountID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = c.Get(ctx, secondBill, accountID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.Get(ctx, otherBill, otherAccount)
	assert.NoError(t, err)
}

func TestBillStatusCache_BusProductInvalidation(t *testing.T) {
	bus := NewBus()
	c, _ := newBillStatusCache(t, bus)
	ctx := context.Background()

	billID, accountID, productID := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, c.Set(ctx, sampleBillStatus(billID, accountID, productID)))

	bus.PublishProduct(ProductInvalidation{ProductID: productID, AccountID: accountID, At: time.Now()})

	_, err := c.Get(ctx, billID, accountID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBillStatusCache_BusProductInvalidationWithoutAccountIsIgnored(t *testing.T) {
	bus := NewBus()
	c, _ := newBillStatusCache(t, bus)
	ctx := context.Background()

	billID, accountID, productID := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, c.Set(ctx, sampleBillStatus(billID, accountID, productID)))

	bus.PublishProduct(ProductInvalidation{ProductID: productID, At: time.Now()})

	_, err := c.Get(ctx, billID, accountID)
	assert.NoError(t, err)
}

func TestBillStatusCache_Clear(t *testing.T) {
	c, _ := newBillStatusCache(t, NewBus())
	ctx := context.Background()

	billID, accountID := uuid.New(), uuid.New()
	require.NoError(t, c.Set(ctx, sampleBillStatus(billID, accountID, uuid.New())))

	require.NoError(t, c.Clear(ctx))

	_, err := c.Get(ctx, billID, accountID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
