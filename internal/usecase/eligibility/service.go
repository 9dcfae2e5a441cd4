package eligibility

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ovenbird/cakeshop-reviews/internal/cache"
	"github.com/ovenbird/cakeshop-reviews/internal/domain"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/logger"
)

// Service decides which purchased products a customer may still review.
// A product is reviewable when its bill has reached a reviewable status and
// the customer has not already reviewed it on that bill.
type Service struct {
	store        domain.ReviewStore
	status       *cache.BillStatusCache
	logger       *logger.Logger
	storeTimeout time.Duration
}

// NewService creates a new eligibility service
func NewService(store domain.ReviewStore, status *cache.BillStatusCache, log *logger.Logger, storeTimeout time.Duration) *Service {
	return &Service{
		store:        store,
		status:       status,
		logger:       log,
		storeTimeout: storeTimeout,
	}
}

// CheckBillReviewStatus returns the review eligibility of every product on
// the customer's bill. Cache write failures are logged and ignored; the
// computed status is still returned.
func (s *Service) CheckBillReviewStatus(ctx context.Context, billID, accountID uuid.UUID) (*domain.BillReviewStatus, error) {
	if cached, err := s.status.Get(ctx, billID, accountID); err == nil {
		return cached, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		s.logger.Warnf("Bill status cache read failed for bill %s: %v", billID, err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	snapshot, err := s.store.BillSnapshot(fetchCtx, billID, accountID)
	if err != nil {
		return nil, err
	}

	status := buildStatus(snapshot)

	if err := s.status.Set(ctx, status); err != nil {
		s.logger.Warnf("Bill status cache write failed for bill %s: %v", billID, err)
	}
	return status, nil
}

// CheckProductReviewStatus returns the eligibility of a single product on
// the bill. A product that never appeared on the bill is not found.
func (s *Service) CheckProductReviewStatus(ctx context.Context, billID, accountID, productID uuid.UUID) (*domain.ProductReviewStatus, error) {
	bill, err := s.CheckBillReviewStatus(ctx, billID, accountID)
	if err != nil {
		return nil, err
	}

	for i := range bill.Products {
		if bill.Products[i].ProductID == productID {
			return &bill.Products[i], nil
		}
	}
	return nil, domain.E(domain.KindNotFound, "eligibility.CheckProductReviewStatus", domain.ErrNotFound)
}

// buildStatus derives per-product and bill-level eligibility from a bill
// snapshot. AllReviewed is vacuously true for a bill with no lines.
func buildStatus(snapshot *domain.BillSnapshot) *domain.BillReviewStatus {
	reviewable := snapshot.Status.Reviewable()

	products := make([]domain.ProductReviewStatus, 0, len(snapshot.Lines))
	allReviewed := true
	for _, line := range snapshot.Lines {
		hasReviewed := line.ReviewID != nil
		if !hasReviewed {
			allReviewed = false
		}
		products = append(products, domain.ProductReviewStatus{
			BillDetailID: line.BillDetailID,
			ProductID:    line.ProductID,
			ProductName:  line.ProductName,
			HasReviewed:  hasReviewed,
			ReviewID:     line.ReviewID,
			CanReview:    reviewable && !hasReviewed,
		})
	}

	return &domain.BillReviewStatus{
		BillID:      snapshot.BillID,
		AccountID:   snapshot.AccountID,
		BillStatus:  snapshot.Status,
		CanReview:   reviewable && !allReviewed,
		AllReviewed: allReviewed,
		Products:    products,
	}
}
