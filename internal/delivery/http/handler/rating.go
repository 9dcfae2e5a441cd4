package handler

import (
	"net/http"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ovenbird/cakeshop-reviews/internal/delivery/http/request"
	"github.com/ovenbird/cakeshop-reviews/internal/delivery/http/response"
	"github.com/ovenbird/cakeshop-reviews/internal/domain"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/logger"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/validator"
	"github.com/ovenbird/cakeshop-reviews/internal/usecase/rating"
)

const maxBatchSize = 200

// RatingHandler handles HTTP requests for bulk rating lookups
type RatingHandler struct {
	service  *rating.Service
	validate *govalidator.Validate
	logger   *logger.Logger
}

// NewRatingHandler creates a new rating handler
func NewRatingHandler(service *rating.Service, log *logger.Logger) *RatingHandler {
	return &RatingHandler{
		service:  service,
		validate: validator.Get(),
		logger:   log,
	}
}

// BatchRatingsRequest represents the request body for a batch rating lookup
type BatchRatingsRequest struct {
	ProductIDs []string `json:"product_ids" validate:"required,min=1,dive,uuid"`
}

// Batch handles POST /api/v1/ratings/batch
// @Summary Get ratings for multiple products
// @Description Get the scalar rating (average and count) for each requested product. Every requested product appears in the response; products without ratings come back with zero values.
// @Tags Ratings
// @Accept json
// @Produce json
// @Param request body BatchRatingsRequest true "Product IDs"
// @Success 200 {object} map[string]interface{} "Ratings keyed by product ID"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Router /ratings/batch [post]
func (h *RatingHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRatingsRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if len(req.ProductIDs) > maxBatchSize {
		response.Error(w, http.StatusBadRequest, "Too many product IDs")
		return
	}

	ids := make([]uuid.UUID, 0, len(req.ProductIDs))
	for _, raw := range req.ProductIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid product ID: "+raw)
			return
		}
		ids = append(ids, id)
	}

	ratings := h.service.GetBatchRatings(r.Context(), ids)

	keyed := make(map[string]domain.BatchRating, len(ratings))
	for id, br := range ratings {
		keyed[id.String()] = br
	}
	response.Success(w, keyed)
}
