// Package postgres implements the ReviewStore interface directly against the
// shop database, for deployments colocated with it.
package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovenbird/cakeshop-reviews/internal/domain"
)

// Store implements domain.ReviewStore for PostgreSQL
type Store struct {
	db *sqlx.DB
}

// NewStore creates a new PostgreSQL review store
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const reviewColumns = `id, product_id, account_id, star_rating, content, image_url, created_at`

// AllReviews retrieves every review across all products.
func (s *Store) AllReviews(ctx context.Context) ([]*domain.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		ORDER BY created_at DESC
	`

	var reviews []*domain.Review
	if err := s.db.SelectContext(ctx, &reviews, query); err != nil {
		return nil, domain.E(domain.KindTransientFetch, "postgres.AllReviews", err)
	}

	return reviews, nil
}

// ReviewsByProduct retrieves reviews for a single product.
func (s *Store) ReviewsByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC
	`

	var reviews []*domain.Review
	if err := s.db.SelectContext(ctx, &reviews, query, productID); err != nil {
		return nil, domain.E(domain.KindTransientFetch, "postgres.ReviewsByProduct", err)
	}

	return reviews, nil
}

// CreateReview writes a new review.
func (s *Store) CreateReview(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (product_id, account_id, star_rating, content, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := s.db.QueryRowxContext(
		ctx,
		query,
		review.ProductID,
		review.AccountID,
		review.StarRating,
		review.Content,
		review.ImageURL,
	).Scan(
		&review.ID,
		&review.CreatedAt,
	)
	if err != nil {
		return domain.E(domain.KindWrite, "postgres.CreateReview", err)
	}

	return nil
}

type batchRatingRow struct {
	ProductID     uuid.UUID `db:"product_id"`
	AverageRating float64   `db:"average_rating"`
	TotalReviews  int       `db:"total_reviews"`
}

// BatchRatings computes scalar aggregates server-side in one query. Only
// in-range star ratings participate; products with no reviews are absent
// from the result.
func (s *Store) BatchRatings(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]domain.BatchRating, error) {
	query := `
		SELECT
			product_id,
			ROUND(AVG(star_rating)::numeric, 1) AS average_rating,
			COUNT(*) AS total_reviews
		FROM reviews
		WHERE product_id = ANY($1) AND star_rating BETWEEN 1 AND 5
		GROUP BY product_id
	`

	ids := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		ids = append(ids, id.String())
	}

	var rows []batchRatingRow
	if err := s.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, domain.E(domain.KindTransientFetch, "postgres.BatchRatings", err)
	}

	ratings := make(map[uuid.UUID]domain.BatchRating, len(rows))
	for _, row := range rows {
		ratings[row.ProductID] = domain.BatchRating{
			AverageRating: row.AverageRating,
			TotalReviews:  row.TotalReviews,
		}
	}

	return ratings, nil
}

type billRow struct {
	Status       domain.BillStatus `db:"status"`
	BillDetailID uuid.UUID         `db:"bill_detail_id"`
	ProductID    uuid.UUID         `db:"product_id"`
	ProductName  string            `db:"product_name"`
	ReviewID     *uuid.UUID        `db:"review_id"`
}

// BillSnapshot joins the bill's line items with the account's existing reviews.
func (s *Store) BillSnapshot(ctx context.Context, billID, accountID uuid.UUID) (*domain.BillSnapshot, error) {
	query := `
		SELECT
			b.status,
			d.id AS bill_detail_id,
			d.product_id,
			d.product_name,
			r.id AS review_id
		FROM bills b
		JOIN bill_details d ON d.bill_id = b.id
		LEFT JOIN reviews r ON r.product_id = d.product_id AND r.account_id = b.account_id
		WHERE b.id = $1 AND b.account_id = $2
		ORDER BY d.id
	`

	var rows []billRow
	if err := s.db.SelectContext(ctx, &rows, query, billID, accountID); err != nil {
		return nil, domain.E(domain.KindTransientFetch, "postgres.BillSnapshot", err)
	}

	if len(rows) == 0 {
		return nil, domain.E(domain.KindNotFound, "postgres.BillSnapshot", sql.ErrNoRows)
	}

	snapshot := &domain.BillSnapshot{
		BillID:    billID,
		AccountID: accountID,
		Status:    rows[0].Status,
		Lines:     make([]domain.BillLine, 0, len(rows)),
	}
	for _, row := range rows {
		snapshot.Lines = append(snapshot.Lines, domain.BillLine{
			BillDetailID: row.BillDetailID,
			ProductID:    row.ProductID,
			ProductName:  row.ProductName,
			ReviewID:     row.ReviewID,
		})
	}

	return snapshot, nil
}

// AccountName resolves an account's display name.
func (s *Store) AccountName(ctx context.Context, accountID uuid.UUID) (string, error) {
	query := `SELECT display_name FROM accounts WHERE id = $1`

	var name string
	err := s.db.GetContext(ctx, &name, query, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.E(domain.KindNotFound, "postgres.AccountName", err)
		}
		return "", domain.E(domain.KindTransientFetch, "postgres.AccountName", err)
	}

	return name, nil
}
