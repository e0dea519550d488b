package handler

import (
	"io"
	"net/http"
	"strconv"

	"bodegaclick/billing-service/internal/app/billing/entity"

	"github.com/gin-gonic/gin"
)

const (
	SignatureHeader   = "X-Signature"
	TestWebhookHeader = "X-Test-Webhook"

	maxWebhookBody = 1 << 20
)

// ReceiveWebhook handles POST /webhook/. The raw body is what the signature
// covers, so it is read before any decoding.
func (h *BillingHandler) ReceiveWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		respondBadRequest(c, "Unreadable body", nil)
		return
	}
	isTest, _ := strconv.ParseBool(c.GetHeader(TestWebhookHeader))

	result, err := h.svc.Webhooks.HandleDelivery(c.Request.Context(), body, c.GetHeader(SignatureHeader), isTest)
	if err != nil {
		respondServiceError(c, err, "Failed to process webhook")
		return
	}
	c.JSON(http.StatusOK, result)
}

// CreateWebhook handles POST /api/webhooks
func (h *BillingHandler) CreateWebhook(c *gin.Context) {
	var req entity.CreateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", nil)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondBadRequest(c, formatValidationError(err), nil)
		return
	}

	webhook, err := h.svc.Webhooks.Create(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, "Failed to create webhook")
		return
	}
	c.JSON(http.StatusCreated, webhook)
}

// ListWebhooks handles GET /api/webhooks
func (h *BillingHandler) ListWebhooks(c *gin.Context) {
	webhooks, err := h.svc.Webhooks.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to list webhooks")
		return
	}
	c.JSON(http.StatusOK, webhooks)
}

// DeleteWebhook handles DELETE /api/webhooks/:id where id is the remote id.
func (h *BillingHandler) DeleteWebhook(c *gin.Context) {
	if err := h.svc.Webhooks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err, "Failed to delete webhook")
		return
	}
	c.Status(http.StatusNoContent)
}

// TestWebhook handles POST /api/webhooks/:id/test
func (h *BillingHandler) TestWebhook(c *gin.Context) {
	status, err := h.svc.Webhooks.TestFire(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to send test delivery")
		return
	}
	c.JSON(http.StatusOK, gin.H{"remote_id": c.Param("id"), "status_code": status})
}

// ListDeliveries handles GET /api/webhooks/deliveries?limit=
func (h *BillingHandler) ListDeliveries(c *gin.Context) {
	deliveries, err := h.svc.Webhooks.RecentDeliveries(c.Request.Context(), int64(queryInt(c, "limit", 50)))
	if err != nil {
		respondServiceError(c, err, "Failed to list deliveries")
		return
	}
	c.JSON(http.StatusOK, deliveries)
}
