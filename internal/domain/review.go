package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Review is a single customer review as held by the authoritative store.
// Reviews are created once and never edited or deleted.
type Review struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ProductID  uuid.UUID `json:"product_id" db:"product_id" validate:"required"`
	AccountID  uuid.UUID `json:"account_id" db:"account_id" validate:"required"`
	StarRating int       `json:"star_rating" db:"star_rating" validate:"required,stars"`
	Content    string    `json:"content" db:"content" validate:"required,min=1,max=5000"`
	ImageURL   *string   `json:"image_url,omitempty" db:"image_url"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ParticipatesInRating reports whether the review counts toward aggregation.
// The store may hold out-of-range ratings written by other clients; those rows
// are skipped, never rejected, on the read path.
func (r *Review) ParticipatesInRating() bool {
	return r.StarRating >= 1 && r.StarRating <= 5
}

// EnrichedReview is a review with the reviewer's display name resolved.
type EnrichedReview struct {
	Review
	ReviewerName string `json:"reviewer_name"`
}

// DefaultReviewerName is used when the display name lookup fails.
const DefaultReviewerName = "customer"

// ReviewStore is the authoritative, possibly slow backing store for reviews,
// bills and accounts. Implementations: REST client, PostgreSQL.
type ReviewStore interface {
	// AllReviews retrieves every review across all products.
	AllReviews(ctx context.Context) ([]*Review, error)

	// ReviewsByProduct retrieves reviews for a single product.
	ReviewsByProduct(ctx context.Context, productID uuid.UUID) ([]*Review, error)

	// CreateReview writes a new review. On success the store fills in
	// ID and CreatedAt.
	CreateReview(ctx context.Context, review *Review) error

	// BatchRatings returns scalar aggregates for exactly the given products
	// in a single round trip. Products with no reviews may be absent from
	// the result.
	BatchRatings(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]BatchRating, error)

	// BillSnapshot returns the raw join of a bill's line items with the
	// account's existing reviews.
	BillSnapshot(ctx context.Context, billID, accountID uuid.UUID) (*BillSnapshot, error)

	// AccountName resolves an account's display name.
	AccountName(ctx context.Context, accountID uuid.UUID) (string, error)
}
