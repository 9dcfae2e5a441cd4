package rating

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ovenbird/cakeshop-reviews/internal/cache"
	"github.com/ovenbird/cakeshop-reviews/internal/domain"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/logger"
)

// Service answers bulk rating lookups for listing pages. Results always
// cover every requested product: a product whose rating cannot be fetched
// gets a zero rating rather than failing the whole page.
type Service struct {
	store         domain.ReviewStore
	batch         *cache.BatchRatingCache
	logger        *logger.Logger
	storeTimeout  time.Duration
	chunkSize     int
	yieldInterval time.Duration
	clock         func() time.Time
}

// NewService creates a new rating service
func NewService(
	store domain.ReviewStore,
	batch *cache.BatchRatingCache,
	log *logger.Logger,
	storeTimeout time.Duration,
	chunkSize int,
	yieldInterval time.Duration,
	clock func() time.Time,
) *Service {
	if clock == nil {
		clock = time.Now
	}
	if chunkSize <= 0 {
		chunkSize = 10
	}
	return &Service{
		store:         store,
		batch:         batch,
		logger:        log,
		storeTimeout:  storeTimeout,
		chunkSize:     chunkSize,
		yieldInterval: yieldInterval,
		clock:         clock,
	}
}

// GetBatchRatings returns a rating for every requested product. Fresh cache
// entries are served as-is; the remainder is fetched from the store in a
// single call and cached. Products the store does not know, or the whole
// set when the fetch fails, come back as zero ratings.
func (s *Service) GetBatchRatings(ctx context.Context, productIDs []uuid.UUID) map[uuid.UUID]domain.BatchRating {
	result, stale := s.batch.Partition(productIDs)
	if len(stale) == 0 {
		return result
	}

	started := s.clock()
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
	defer cancel()

	fetched, err := s.store.BatchRatings(fetchCtx, stale)
	if err != nil {
		s.logger.Warnf("Batch rating fetch failed for %d products: %v", len(stale), err)
		fetched = nil
	}

	cachedAt := s.clock()
	for _, id := range stale {
		r, ok := fetched[id]
		if !ok {
			// Unknown to the store means no participating reviews.
			r = domain.BatchRating{}
		}
		if err == nil {
			s.batch.Populate(id, r, cachedAt, started)
		}
		result[id] = r
	}
	return result
}

// LoadVisibleRatings resolves ratings for the products currently on screen,
// a chunk at a time, invoking onChunk after each chunk so the caller can
// render incrementally. It pauses between chunks and stops early when the
// context is cancelled, e.g. because the user scrolled away.
func (s *Service) LoadVisibleRatings(ctx context.Context, productIDs []uuid.UUID, onChunk func(map[uuid.UUID]domain.BatchRating)) error {
	for start := 0; start < len(productIDs); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(productIDs) {
			end = len(productIDs)
		}

		ratings := s.GetBatchRatings(ctx, productIDs[start:end])
		if onChunk != nil {
			onChunk(ratings)
		}

		if end == len(productIDs) {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.yieldInterval):
		}
	}
	return nil
}
