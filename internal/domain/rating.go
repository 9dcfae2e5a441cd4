package domain

import "github.com/google/uuid"

// RatingBucket is the count and rounded share of one star value.
type RatingBucket struct {
	Count      int `json:"count"`
	Percentage int `json:"percentage"`
}

// RatingSummary is the derived aggregate for one product. It is recomputed
// on every cache miss and never persisted.
//
// Invariant: TotalReviews equals the sum of all bucket counts. Percentages
// round per bucket, so their sum is 100 within a few units.
type RatingSummary struct {
	ProductID     uuid.UUID            `json:"product_id"`
	AverageRating float64              `json:"average_rating"`
	TotalReviews  int                  `json:"total_reviews"`
	Distribution  map[int]RatingBucket `json:"distribution"`
}

// BatchRating is the scalar aggregate served to list and grid views.
type BatchRating struct {
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
}
