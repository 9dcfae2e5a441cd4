package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ProductInvalidation announces that a product's cached projections are stale,
// typically because a review was just written. AccountID identifies the
// submitting account when known (uuid.Nil otherwise) so bill-status entries
// for that account can be dropped too.
type ProductInvalidation struct {
	ProductID uuid.UUID `json:"product_id"`
	AccountID uuid.UUID `json:"account_id"`
	At        time.Time `json:"at"`
}

// BillInvalidation announces that a bill's cached review status is stale.
type BillInvalidation struct {
	BillID    uuid.UUID `json:"bill_id"`
	AccountID uuid.UUID `json:"account_id"`
	At        time.Time `json:"at"`
}

// Bus fans invalidation events out to the cache tiers. Tiers subscribe at
// construction; the write path publishes and never references a tier by name,
// so adding a tier is a subscription, not an edit to the coordinator.
//
// Delivery is synchronous: when Publish returns, every tier has applied the
// invalidation. Read-after-write visibility for the submitter depends on this.
type Bus struct {
	mu          sync.RWMutex
	productSubs []func(ProductInvalidation)
	billSubs    []func(BillInvalidation)
	clearSubs   []func()
}

// NewBus creates an empty invalidation bus.
func NewBus() *Bus {
	return &Bus{}
}

// SubscribeProduct registers a handler for product invalidations.
func (b *Bus) SubscribeProduct(fn func(ProductInvalidation)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.productSubs = append(b.productSubs, fn)
}

// SubscribeBill registers a handler for bill invalidations.
func (b *Bus) SubscribeBill(fn func(BillInvalidation)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.billSubs = append(b.billSubs, fn)
}

// SubscribeClear registers a handler for full cache resets.
func (b *Bus) SubscribeClear(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearSubs = append(b.clearSubs, fn)
}

// PublishProduct delivers a product invalidation to every subscriber.
func (b *Bus) PublishProduct(inv ProductInvalidation) {
	b.mu.RLock()
	subs := b.productSubs
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(inv)
	}
}

// PublishBill delivers a bill invalidation to every subscriber.
func (b *Bus) PublishBill(inv BillInvalidation) {
	b.mu.RLock()
	subs := b.billSubs
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(inv)
	}
}

// PublishClear asks every tier to drop everything it holds.
func (b *Bus) PublishClear() {
	b.mu.RLock()
	subs := b.clearSubs
	b.mu.RUnlock()

	for _, fn := range subs {
		fn()
	}
}
