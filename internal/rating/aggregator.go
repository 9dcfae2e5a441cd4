// Package rating computes derived rating aggregates from raw review records.
package rating

import (
	"math"

	"github.com/google/uuid"

	"github.com/ovenbird/cakeshop-reviews/internal/domain"
)

// MinStar and MaxStar bound the star scale.
const (
	MinStar = 1
	MaxStar = 5
)

// Aggregate turns a list of reviews into an average rating and a star
// distribution. Reviews with an out-of-range star rating are skipped so a
// single malformed record cannot fail the whole aggregation; the return value
// reports how many were skipped so callers can log them.
//
// Deterministic and side-effect free.
func Aggregate(productID uuid.UUID, reviews []*domain.Review) (domain.RatingSummary, int) {
	counts := make(map[int]int, MaxStar)
	for star := MinStar; star <= MaxStar; star++ {
		counts[star] = 0
	}

	total := 0
	sum := 0
	skipped := 0
	for _, r := range reviews {
		if r == nil || !r.ParticipatesInRating() {
			skipped++
			continue
		}
		counts[r.StarRating]++
		sum += r.StarRating
		total++
	}

	summary := domain.RatingSummary{
		ProductID:    productID,
		TotalReviews: total,
		Distribution: make(map[int]domain.RatingBucket, MaxStar),
	}

	if total > 0 {
		summary.AverageRating = round1(float64(sum) / float64(total))
	}

	for star := MinStar; star <= MaxStar; star++ {
		bucket := domain.RatingBucket{Count: counts[star]}
		if total > 0 {
			bucket.Percentage = int(math.Round(float64(counts[star]) / float64(total) * 100))
		}
		summary.Distribution[star] = bucket
	}

	return summary, skipped
}

// Scalar returns just the average and count, the shape served by the batch
// rating tier.
func Scalar(reviews []*domain.Review) domain.BatchRating {
	total := 0
	sum := 0
	for _, r := range reviews {
		if r == nil || !r.ParticipatesInRating() {
			continue
		}
		sum += r.StarRating
		total++
	}

	if total == 0 {
		return domain.BatchRating{}
	}
	return domain.BatchRating{
		AverageRating: round1(float64(sum) / float64(total)),
		TotalReviews:  total,
	}
}

// round1 rounds to one decimal place, matching the store-side ROUND(AVG, 1).
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
