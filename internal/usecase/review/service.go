package review

import (
	"context"
	"encoding/json"
	"time"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ovenbird/cakeshop-reviews/internal/cache"
	"github.com/ovenbird/cakeshop-reviews/internal/domain"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/logger"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/metrics"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/validator"
	"github.com/ovenbird/cakeshop-reviews/internal/rating"
)

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	// Publish delivers data to a durable stream subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Broadcast fans data out to every live subscriber, without persistence.
	Broadcast(subject string, data []byte) error
}

// ReviewEvent represents an event related to a review
type ReviewEvent struct {
	EventType string         `json:"event_type"`
	Timestamp time.Time      `json:"timestamp"`
	ProductID uuid.UUID      `json:"product_id"`
	Review    *domain.Review `json:"review"`
}

// Service serves product review reads through the cache tiers and coordinates
// invalidation on review writes. Read methods never fail: they degrade to the
// last cached value or to an empty result, so rating lookups cannot crash a
// product screen.
type Service struct {
	store        domain.ReviewStore
	reviews      *cache.ReviewCache
	bus          *cache.Bus
	publisher    EventPublisher
	validate     *govalidator.Validate
	logger       *logger.Logger
	metrics      *metrics.Metrics
	storeTimeout time.Duration
	clock        func() time.Time
}

// NewService creates a new review service
func NewService(
	store domain.ReviewStore,
	reviews *cache.ReviewCache,
	bus *cache.Bus,
	publisher EventPublisher,
	m *metrics.Metrics,
	log *logger.Logger,
	storeTimeout time.Duration,
	clock func() time.Time,
) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		store:        store,
		reviews:      reviews,
		bus:          bus,
		publisher:    publisher,
		validate:     validator.Get(),
		logger:       log,
		metrics:      m,
		storeTimeout: storeTimeout,
		clock:        clock,
	}
}

// GetReviews returns the product's reviews through the cache tiers:
// fresh per-product entry, then fresh global snapshot filtered down, then a
// store fetch that populates both. On a failed fetch it falls back to the
// last cached value regardless of TTL, then to a per-product fetch, else an
// empty list.
func (s *Service) GetReviews(ctx context.Context, productID uuid.UUID) []*domain.Review {
	if reviews, ok := s.reviews.Get(productID); ok {
		return reviews
	}

	if all, cachedAt, ok := s.reviews.Snapshot(); ok {
		filtered := cache.FilterByProduct(all, productID)
		// The filtered slice inherits the snapshot's age, and the
		// snapshot's fetch time is also the population start: an
		// invalidation newer than the snapshot must win the watermark
		// check, or a write racing this branch would be resurrected
		// into a fresh-looking entry.
		s.reviews.PopulateProduct(productID, filtered, cachedAt, cachedAt)
		return filtered
	}

	started := s.clock()

	// The fetch is detached from the caller: if the caller goes away the
	// population still completes and warms the cache for other readers.
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
	defer cancel()

	all, err := s.store.AllReviews(fetchCtx)
	if err != nil {
		s.logger.Warnf("Review fetch failed for product %s: %v", productID, err)

		if stale, ok := s.reviews.Stale(productID); ok {
			s.metrics.StaleFallbacks.Inc()
			return stale
		}
		if snap, ok := s.reviews.StaleSnapshot(); ok {
			s.metrics.StaleFallbacks.Inc()
			return cache.FilterByProduct(snap, productID)
		}

		// Nothing cached at all. The per-product listing is a much
		// smaller read than the full one and may still succeed.
		narrowStart := s.clock()
		narrowCtx, narrowCancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
		defer narrowCancel()

		only, perr := s.store.ReviewsByProduct(narrowCtx, productID)
		if perr != nil {
			s.logger.Warnf("Per-product review fetch failed for product %s: %v", productID, perr)
			return []*domain.Review{}
		}
		s.reviews.PopulateProduct(productID, only, s.clock(), narrowStart)
		return only
	}

	cachedAt := s.clock()
	s.reviews.PopulateSnapshot(all, cachedAt, started)

	filtered := cache.FilterByProduct(all, productID)
	s.reviews.PopulateProduct(productID, filtered, cachedAt, started)
	return filtered
}

// GetReviewSummary aggregates the product's cached reviews into an average
// and star distribution. Summaries are recomputed per call; the review list
// itself is what gets cached.
func (s *Service) GetReviewSummary(ctx context.Context, productID uuid.UUID) domain.RatingSummary {
	reviews := s.GetReviews(ctx, productID)

	summary, skipped := rating.Aggregate(productID, reviews)
	if skipped > 0 {
		s.logger.WithFields(map[string]interface{}{
			"product_id": productID,
			"skipped":    skipped,
		}).Warn("Skipped reviews with out-of-range star rating")
	}
	return summary
}

// GetReviewsWithUserNames returns the product's reviews with reviewer display
// names resolved. A failed lookup falls back to a generic label for that
// record only.
func (s *Service) GetReviewsWithUserNames(ctx context.Context, productID uuid.UUID) []*domain.EnrichedReview {
	reviews := s.GetReviews(ctx, productID)

	names := make(map[uuid.UUID]string, len(reviews))
	enriched := make([]*domain.EnrichedReview, 0, len(reviews))
	for _, r := range reviews {
		name, ok := names[r.AccountID]
		if !ok {
			name = s.resolveName(ctx, r.AccountID)
			names[r.AccountID] = name
		}
		enriched = append(enriched, &domain.EnrichedReview{
			Review:       *r,
			ReviewerName: name,
		})
	}
	return enriched
}

func (s *Service) resolveName(ctx context.Context, accountID uuid.UUID) string {
	lookupCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	name, err := s.store.AccountName(lookupCtx, accountID)
	if err != nil || name == "" {
		if err != nil {
			s.logger.Debugf("Display name lookup failed for account %s: %v", accountID, err)
		}
		return domain.DefaultReviewerName
	}
	return name
}

// SubmitReview validates and writes a new review, then synchronously
// invalidates every cache tier for the product before acknowledging, so
// the submitter's next read reflects the review even inside the TTL window.
// A failed write propagates untouched and no cache is mutated.
func (s *Service) SubmitReview(ctx context.Context, review *domain.Review) error {
	if err := s.validate.Struct(review); err != nil {
		s.logger.Error("Review validation failed", err)
		return domain.E(domain.KindInvalidInput, "review.SubmitReview", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.store.CreateReview(writeCtx, review); err != nil {
		s.logger.Error("Failed to create review", err)
		return err
	}

	inv := cache.ProductInvalidation{
		ProductID: review.ProductID,
		AccountID: review.AccountID,
		At:        s.clock(),
	}
	s.bus.PublishProduct(inv)

	s.publishEvents(review, inv)

	s.logger.WithFields(map[string]interface{}{
		"review_id":   review.ID,
		"product_id":  review.ProductID,
		"star_rating": review.StarRating,
	}).Info("Review submitted successfully")

	return nil
}

// publishEvents notifies other instances and the audit stream (non-blocking).
func (s *Service) publishEvents(review *domain.Review, inv cache.ProductInvalidation) {
	event := ReviewEvent{
		EventType: "review.created",
		Timestamp: inv.At,
		ProductID: review.ProductID,
		Review:    review,
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal event for review %s", review.ID)
		return
	}
	invData, err := json.Marshal(inv)
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal invalidation for review %s", review.ID)
		return
	}

	// Publish in background to avoid blocking the ack. Local invalidation
	// already happened synchronously; these only reach peers and auditors.
	go func() {
		if err := s.publisher.Broadcast("reviews.invalidated", invData); err != nil {
			s.logger.Errorf(err, "Failed to broadcast invalidation for product %s", review.ProductID)
		}
		if err := s.publisher.Publish(context.Background(), "reviews.events", eventData); err != nil {
			s.logger.Errorf(err, "Failed to publish event for review %s", review.ID)
		}
	}()
}

// ClearCache drops every cache tier. Diagnostics and tests only.
func (s *Service) ClearCache() {
	s.bus.PublishClear()
	s.logger.Info("All cache tiers cleared")
}

// RefreshCache clears every tier and rewarms the global snapshot.
func (s *Service) RefreshCache(ctx context.Context) error {
	s.bus.PublishClear()

	started := s.clock()
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
	defer cancel()

	all, err := s.store.AllReviews(fetchCtx)
	if err != nil {
		s.logger.Error("Cache refresh fetch failed", err)
		return err
	}

	s.reviews.PopulateSnapshot(all, s.clock(), started)
	s.logger.Infof("Cache refreshed with %d reviews", len(all))
	return nil
}
