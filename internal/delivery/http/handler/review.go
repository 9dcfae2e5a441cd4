package handler

import (
	"errors"
	"net/http"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ovenbird/cakeshop-reviews/internal/delivery/http/request"
	"github.com/ovenbird/cakeshop-reviews/internal/delivery/http/response"
	"github.com/ovenbird/cakeshop-reviews/internal/domain"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/logger"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/validator"
	"github.com/ovenbird/cakeshop-reviews/internal/usecase/review"
)

// ReviewHandler handles HTTP requests for reviews and rating summaries
type ReviewHandler struct {
	service  *review.Service
	validate *govalidator.Validate
	logger   *logger.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service *review.Service, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service:  service,
		validate: validator.Get(),
		logger:   log,
	}
}

// CreateReviewRequest represents the request body for creating a review
type CreateReviewRequest struct {
	ProductID  string  `json:"product_id" validate:"required,uuid"`
	AccountID  string  `json:"account_id" validate:"required,uuid"`
	StarRating int     `json:"star_rating" validate:"required,stars"`
	Content    string  `json:"content"`
	ImageURL   *string `json:"image_url,omitempty"`
}

// GetRating handles GET /api/v1/products/:id/rating
// @Summary Get a product's rating summary
// @Description Get the average star rating and star distribution for a product. Results are cached and degrade to the last known value when the review store is unreachable.
// @Tags Ratings
// @Accept json
// @Produce json
// @Param id path string true "Product ID (UUID)"
// @Success 200 {object} map[string]interface{} "Rating summary"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Router /products/{id}/rating [get]
func (h *ReviewHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	productID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	summary := h.service.GetReviewSummary(r.Context(), productID)
	response.Success(w, summary)
}

// GetByProductID handles GET /api/v1/products/:id/reviews
// @Summary Get reviews for a product
// @Description Get a product's reviews with reviewer display names resolved. Results are cached.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Product ID (UUID)"
// @Success 200 {object} map[string]interface{} "List of reviews"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Router /products/{id}/reviews [get]
func (h *ReviewHandler) GetByProductID(w http.ResponseWriter, r *http.Request) {
	productID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	reviews := h.service.GetReviewsWithUserNames(r.Context(), productID)
	response.Success(w, reviews)
}

// Create handles POST /api/v1/reviews
// @Summary Submit a new review
// @Description Submit a review for a purchased product. Every cache tier for the product is invalidated before the response is sent.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param review body CreateReviewRequest true "Review details"
// @Success 201 {object} map[string]interface{} "Review created successfully"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reviews [post]
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid input")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid account ID")
		return
	}

	rev := &domain.Review{
		ProductID:  productID,
		AccountID:  accountID,
		StarRating: req.StarRating,
		Content:    req.Content,
		ImageURL:   req.ImageURL,
	}

	if err := h.service.SubmitReview(r.Context(), rev); err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, rev)
}

// ClearCache handles POST /api/v1/cache/clear
// @Summary Clear all cache tiers
// @Description Drop every cached review list, snapshot, batch rating and bill status. Diagnostics only.
// @Tags Cache
// @Produce json
// @Success 204 "Cache cleared"
// @Router /cache/clear [post]
func (h *ReviewHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.service.ClearCache()
	response.NoContent(w)
}

// RefreshCache handles POST /api/v1/cache/refresh
// @Summary Refresh the review cache
// @Description Clear every tier and rewarm the global review snapshot from the store.
// @Tags Cache
// @Produce json
// @Success 204 "Cache refreshed"
// @Failure 500 {object} map[string]string "Refresh fetch failed"
// @Router /cache/refresh [post]
func (h *ReviewHandler) RefreshCache(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RefreshCache(r.Context()); err != nil {
		h.handleError(w, err)
		return
	}
	response.NoContent(w)
}

// handleError handles service layer errors and returns appropriate HTTP responses
func (h *ReviewHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	default:
		h.logger.Error("Internal error in review handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
