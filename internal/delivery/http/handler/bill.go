package handler

import (
	"errors"
	"net/http"

	"github.com/ovenbird/cakeshop-reviews/internal/delivery/http/request"
	"github.com/ovenbird/cakeshop-reviews/internal/delivery/http/response"
	"github.com/ovenbird/cakeshop-reviews/internal/domain"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/logger"
	"github.com/ovenbird/cakeshop-reviews/internal/usecase/eligibility"
)

// BillHandler handles HTTP requests for review eligibility
type BillHandler struct {
	service *eligibility.Service
	logger  *logger.Logger
}

// NewBillHandler creates a new bill handler
func NewBillHandler(service *eligibility.Service, log *logger.Logger) *BillHandler {
	return &BillHandler{
		service: service,
		logger:  log,
	}
}

// GetBillStatus handles GET /api/v1/bills/:id/review-status
// @Summary Get review eligibility for a bill
// @Description Get the review status of every product on the customer's bill: which are already reviewed and which may still be reviewed.
// @Tags Bills
// @Accept json
// @Produce json
// @Param id path string true "Bill ID (UUID)"
// @Param account query string true "Account ID (UUID)"
// @Success 200 {object} map[string]interface{} "Bill review status"
// @Failure 400 {object} map[string]string "Invalid bill or account ID"
// @Failure 404 {object} map[string]string "Bill not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /bills/{id}/review-status [get]
func (h *BillHandler) GetBillStatus(w http.ResponseWriter, r *http.Request) {
	billID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid bill ID")
		return
	}
	accountID, err := request.GetUUIDQuery(r, "account")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid account ID")
		return
	}

	status, err := h.service.CheckBillReviewStatus(r.Context(), billID, accountID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, status)
}

// GetProductStatus handles GET /api/v1/bills/:id/products/:productId/review-status
// @Summary Get review eligibility for one product on a bill
// @Description Get the review status of a single product on the customer's bill.
// @Tags Bills
// @Accept json
// @Produce json
// @Param id path string true "Bill ID (UUID)"
// @Param productId path string true "Product ID (UUID)"
// @Param account query string true "Account ID (UUID)"
// @Success 200 {object} map[string]interface{} "Product review status"
// @Failure 400 {object} map[string]string "Invalid ID"
// @Failure 404 {object} map[string]string "Bill or product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /bills/{id}/products/{productId}/review-status [get]
func (h *BillHandler) GetProductStatus(w http.ResponseWriter, r *http.Request) {
	billID, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid bill ID")
		return
	}
	productID, err := request.GetUUIDParam(r, "productId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}
	accountID, err := request.GetUUIDQuery(r, "account")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid account ID")
		return
	}

	status, err := h.service.CheckProductReviewStatus(r.Context(), billID, accountID, productID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, status)
}

// handleError handles service layer errors and returns appropriate HTTP responses
func (h *BillHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Bill or product not found")
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	default:
		h.logger.Error("Internal error in bill handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
