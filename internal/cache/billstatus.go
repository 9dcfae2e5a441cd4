package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ovenbird/cakeshop-reviews/internal/domain"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/logger"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/metrics"
)

const (
	tierBillStatus = "bill_status"

	// busOpTimeout bounds the Redis work done inside a synchronous bus handler.
	busOpTimeout = 5 * time.Second
)

// BillStatusCache is the Redis-backed tier for per-(bill, account) review
// eligibility. Entries have no TTL: bill status changes are rare and
// externally driven, so entries live until an invalidation drops them.
//
// Each Set records the status key in a tracking SET per (account, product), so
// a product invalidation can find every bill entry of the submitting account
// that references the product.
type BillStatusCache struct {
	client  *redis.Client
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewBillStatusCache creates the tier and subscribes it to the bus.
func NewBillStatusCache(client *redis.Client, bus *Bus, m *metrics.Metrics, log *logger.Logger) *BillStatusCache {
	c := &BillStatusCache{
		client:  client,
		logger:  log,
		metrics: m,
	}
	bus.SubscribeProduct(func(inv ProductInvalidation) {
		if inv.AccountID == uuid.Nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), busOpTimeout)
		defer cancel()
		if err := c.InvalidateByProduct(ctx, inv.AccountID, inv.ProductID); err != nil {
			c.logger.Warnf("Failed to invalidate bill statuses for account %s product %s: %v", inv.AccountID, inv.ProductID, err)
		}
	})
	bus.SubscribeBill(func(inv BillInvalidation) {
		ctx, cancel := context.WithTimeout(context.Background(), busOpTimeout)
		defer cancel()
		if err := c.Invalidate(ctx, inv.BillID, inv.AccountID); err != nil {
			c.logger.Warnf("Failed to invalidate bill status %s/%s: %v", inv.BillID, inv.AccountID, err)
		}
	})
	bus.SubscribeClear(func() {
		ctx, cancel := context.WithTimeout(context.Background(), busOpTimeout)
		defer cancel()
		if err := c.Clear(ctx); err != nil {
			c.logger.Warn("Failed to clear bill status cache: " + err.Error())
		}
	})
	return c
}

func (c *BillStatusCache) statusKey(billID, accountID uuid.UUID) string {
	return fmt.Sprintf("bill:%s:account:%s:review_status", billID.String(), accountID.String())
}

func (c *BillStatusCache) trackingKey(accountID, productID uuid.UUID) string {
	return fmt.Sprintf("account:%s:product:%s:bill_status_keys", accountID.String(), productID.String())
}

// Get retrieves a cached bill review status. Returns domain.ErrNotFound on miss.
func (c *BillStatusCache) Get(ctx context.Context, billID, accountID uuid.UUID) (*domain.BillReviewStatus, error) {
	val, err := c.client.Get(ctx, c.statusKey(billID, accountID)).Result()
	if err != nil {
		if err == redis.Nil {
			c.metrics.CacheMisses.WithLabelValues(tierBillStatus).Inc()
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var status domain.BillReviewStatus
	if err := json.Unmarshal([]byte(val), &status); err != nil {
		return nil, err
	}

	c.metrics.CacheHits.WithLabelValues(tierBillStatus).Inc()
	return &status, nil
}

// Set stores a bill review status and tracks its key per referenced product.
func (c *BillStatusCache) Set(ctx context.Context, status *domain.BillReviewStatus) error {
	key := c.statusKey(status.BillID, status.AccountID)

	data, err := json.Marshal(status)
	if err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, 0)
	for _, p := range status.Products {
		pipe.SAdd(ctx, c.trackingKey(status.AccountID, p.ProductID), key)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Invalidate removes the status for one (bill, account) pair. The tracking
// sets keep a dangling member, which Unlink tolerates on the next sweep.
func (c *BillStatusCache) Invalidate(ctx context.Context, billID, accountID uuid.UUID) error {
	c.metrics.CacheInvalidations.WithLabelValues(tierBillStatus).Inc()
	return c.client.Unlink(ctx, c.statusKey(billID, accountID)).Err()
}

// InvalidateByProduct removes every cached bill status of the account that
// references the product, using the tracking SET.
func (c *BillStatusCache) InvalidateByProduct(ctx context.Context, accountID, productID uuid.UUID) error {
	trackingKey := c.trackingKey(accountID, productID)

	keys, err := c.client.SMembers(ctx, trackingKey).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	c.metrics.CacheInvalidations.WithLabelValues(tierBillStatus).Inc()

	if len(keys) > 0 {
		keys = append(keys, trackingKey)
		return c.client.Unlink(ctx, keys...).Err()
	}

	return nil
}

// Clear removes every bill status entry and tracking set this tier owns.
func (c *BillStatusCache) Clear(ctx context.Context) error {
	for _, pattern := range []string{"bill:*:review_status", "account:*:bill_status_keys"} {
		iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
		batch := make([]string, 0, 100)
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) == 100 {
				if err := c.client.Unlink(ctx, batch...).Err(); err != nil {
					return err
				}
				batch = batch[:0]
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
		if len(batch) > 0 {
			if err := c.client.Unlink(ctx, batch...).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}
