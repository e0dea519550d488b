package entity

import "github.com/shopspring/decimal"

// CreateInvoiceRequest - body of POST /api/invoices
type CreateInvoiceRequest struct {
	Currency       Currency                   `json:"currency" validate:"required,oneof=USD BS"`
	ExchangeRateID *uint                      `json:"exchange_rate_id"`
	RateType       RateType                   `json:"rate_type" validate:"omitempty,oneof=official parallel"`
	Markup         *decimal.Decimal           `json:"markup"`
	Lines          []CreateInvoiceLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type CreateInvoiceLineRequest struct {
	ProductID       uint             `json:"product_id" validate:"required"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	Markup          *decimal.Decimal `json:"markup"`
	PurchaseCostUSD *decimal.Decimal `json:"purchase_cost_usd"`
	UnitsPerPackage *int             `json:"units_per_package" validate:"omitempty,min=1"`
}

// RecordRateRequest - body of POST /api/exchange-rates
type RecordRateRequest struct {
	Type  RateType        `json:"type" validate:"required,oneof=official parallel"`
	Value decimal.Decimal `json:"value"`
}

// CreateWebhookRequest - body of POST /api/webhooks
type CreateWebhookRequest struct {
	URL  string           `json:"url" validate:"required,url"`
	Type WebhookEventType `json:"type" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Search string
	Limit  int
	Offset int
}

type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int64     `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}
