package handler

import (
	"net/http"

	"bodegaclick/billing-service/internal/app/billing/entity"

	"github.com/gin-gonic/gin"
)

// CreateInvoice handles POST /api/invoices
func (h *BillingHandler) CreateInvoice(c *gin.Context) {
	var req entity.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", nil)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondBadRequest(c, formatValidationError(err), nil)
		return
	}

	invoice, err := h.svc.Invoices.Create(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, "Failed to create invoice")
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

// ListInvoices handles GET /api/invoices?limit=&offset=
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	invoices, total, err := h.svc.Invoices.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondServiceError(c, err, "Failed to list invoices")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"invoices": invoices,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetInvoice handles GET /api/invoices/:id
func (h *BillingHandler) GetInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	invoice, err := h.svc.Invoices.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to get invoice")
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// ProcessInvoice handles POST /api/invoices/:id/process[?async=true]
func (h *BillingHandler) ProcessInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if queryBool(c, "async", false) {
		if err := h.svc.Invoices.RequestProcessing(c.Request.Context(), id); err != nil {
			respondServiceError(c, err, "Failed to queue invoice")
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"invoice_id": id, "status": "queued"})
		return
	}

	report, err := h.svc.Invoices.Process(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to process invoice")
		return
	}
	c.JSON(http.StatusOK, report)
}
