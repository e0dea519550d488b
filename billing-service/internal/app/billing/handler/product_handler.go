package handler

import (
	"net/http"
	"strconv"

	"bodegaclick/billing-service/internal/app/billing/entity"

	"github.com/gin-gonic/gin"
)

// ListProducts handles GET /api/products?search=&limit=&offset=
func (h *BillingHandler) ListProducts(c *gin.Context) {
	filter := entity.ProductFilter{
		Search: c.Query("search"),
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	}

	resp, err := h.svc.Products.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err, "Failed to list products")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetProduct handles GET /api/products/:id
func (h *BillingHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	product, err := h.svc.Products.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to get product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// SyncFromRemote handles POST /api/products/sync-from-remote?apply_prices=
// A run that could not read the first page answers 502 with the report.
func (h *BillingHandler) SyncFromRemote(c *gin.Context) {
	applyPrices := queryBool(c, "apply_prices", true)

	report, err := h.svc.Sync.Run(c.Request.Context(), applyPrices)
	if err != nil {
		respondServiceError(c, err, "Catalog sync failed")
		return
	}
	if !report.Success {
		c.JSON(http.StatusBadGateway, report)
		return
	}
	c.JSON(http.StatusOK, report)
}

// SyncToRemote handles POST /api/products/sync-to-remote[?id=]
func (h *BillingHandler) SyncToRemote(c *gin.Context) {
	if raw := c.Query("id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			respondBadRequest(c, "Invalid id", nil)
			return
		}
		result, err := h.svc.Push.PushByID(c.Request.Context(), uint(id))
		if err != nil {
			respondServiceError(c, err, "Failed to push price")
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	report, err := h.svc.Push.PushAll(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to push prices")
		return
	}
	c.JSON(http.StatusOK, report)
}

// RecomputePrices handles POST /api/products/recompute
func (h *BillingHandler) RecomputePrices(c *gin.Context) {
	report, err := h.svc.Pricing.RecomputeAll(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to recompute prices")
		return
	}
	c.JSON(http.StatusOK, report)
}

// RecomputeProduct handles POST /api/products/:id/recompute
func (h *BillingHandler) RecomputeProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	product, err := h.svc.Pricing.RecomputeProduct(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to recompute price")
		return
	}
	c.JSON(http.StatusOK, product)
}
