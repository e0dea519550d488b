package handler

import (
	"strconv"

	"bodegaclick/billing-service/internal/app/billing/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Services groups everything the HTTP layer calls into.
type Services struct {
	Products service.ProductServiceInterface
	Sync     service.CatalogSyncer
	Push     service.PriceSyncServiceInterface
	Pricing  service.PricingServiceInterface
	Rates    service.ExchangeRateServiceInterface
	Invoices service.InvoiceServiceInterface
	Webhooks service.WebhookServiceInterface
	Auth     service.AuthServiceInterface
}

// BillingHandler serves the REST API and the webhook receiver.
type BillingHandler struct {
	svc       Services
	validator *validator.Validate
}

func NewBillingHandler(svc Services) *BillingHandler {
	return &BillingHandler{
		svc:       svc,
		validator: validator.New(),
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondBadRequest(c, "Invalid id", nil)
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func queryBool(c *gin.Context, key string, def bool) bool {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
