package handler

import (
	"net/http"

	"bodegaclick/billing-service/internal/app/billing/entity"

	"github.com/gin-gonic/gin"
)

// ListRates handles GET /api/exchange-rates?limit=
func (h *BillingHandler) ListRates(c *gin.Context) {
	rates, err := h.svc.Rates.List(c.Request.Context(), queryInt(c, "limit", 50))
	if err != nil {
		respondServiceError(c, err, "Failed to list exchange rates")
		return
	}
	c.JSON(http.StatusOK, rates)
}

// LatestRate handles GET /api/exchange-rates/latest?type=official
func (h *BillingHandler) LatestRate(c *gin.Context) {
	rateType := entity.RateType(c.DefaultQuery("type", string(entity.RateTypeOfficial)))

	rate, err := h.svc.Rates.Latest(c.Request.Context(), rateType)
	if err != nil {
		respondServiceError(c, err, "Failed to get exchange rate")
		return
	}
	c.JSON(http.StatusOK, rate)
}

// RecordRate handles POST /api/exchange-rates
func (h *BillingHandler) RecordRate(c *gin.Context) {
	var req entity.RecordRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", nil)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondBadRequest(c, formatValidationError(err), nil)
		return
	}

	rate, err := h.svc.Rates.Record(c.Request.Context(), req.Type, req.Value)
	if err != nil {
		respondServiceError(c, err, "Failed to record exchange rate")
		return
	}
	c.JSON(http.StatusCreated, rate)
}
