package domain

import (
	"strings"

	"github.com/google/uuid"
)

// BillStatus is the order status string reported by the store.
type BillStatus string

// Reviewable reports whether the bill's status allows reviews to be written.
// Only fully delivered or completed orders qualify.
func (s BillStatus) Reviewable() bool {
	switch strings.ToLower(string(s)) {
	case "delivered", "completed":
		return true
	}
	return false
}

// BillLine is one line item of a bill joined with the account's existing
// review for that product, if any.
type BillLine struct {
	BillDetailID uuid.UUID  `json:"bill_detail_id" db:"bill_detail_id"`
	ProductID    uuid.UUID  `json:"product_id" db:"product_id"`
	ProductName  string     `json:"product_name" db:"product_name"`
	ReviewID     *uuid.UUID `json:"review_id,omitempty" db:"review_id"`
}

// BillSnapshot is the raw store-side join the eligibility gate is derived from.
type BillSnapshot struct {
	BillID    uuid.UUID  `json:"bill_id"`
	AccountID uuid.UUID  `json:"account_id"`
	Status    BillStatus `json:"status"`
	Lines     []BillLine `json:"lines"`
}

// ProductReviewStatus is the per-line eligibility decision.
type ProductReviewStatus struct {
	BillDetailID uuid.UUID  `json:"bill_detail_id"`
	ProductID    uuid.UUID  `json:"product_id"`
	ProductName  string     `json:"product_name"`
	HasReviewed  bool       `json:"has_reviewed"`
	ReviewID     *uuid.UUID `json:"review_id,omitempty"`
	CanReview    bool       `json:"can_review"`
}

// BillReviewStatus is the bill-level eligibility decision, cached per
// (bill, account) and invalidated when the account submits a review for
// any product on the bill.
type BillReviewStatus struct {
	BillID      uuid.UUID             `json:"bill_id"`
	AccountID   uuid.UUID             `json:"account_id"`
	BillStatus  BillStatus            `json:"bill_status"`
	CanReview   bool                  `json:"can_review"`
	AllReviewed bool                  `json:"all_reviewed"`
	Products    []ProductReviewStatus `json:"products"`
}
