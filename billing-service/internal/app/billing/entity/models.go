package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateType identifies which exchange rate a price is computed with.
type RateType string

const (
	RateTypeOfficial RateType = "official" // central bank rate
	RateTypeParallel RateType = "parallel" // market rate
)

func (t RateType) Valid() bool {
	return t == RateTypeOfficial || t == RateTypeParallel
}

// Currency of an invoice. BS is the local currency.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyBS  Currency = "BS"
)

func (c Currency) Valid() bool {
	return c == CurrencyUSD || c == CurrencyBS
}

// PriceSource records which path last wrote a product's price fields.
type PriceSource string

const (
	PriceSourceRemote   PriceSource = "remote"   // catalog sync
	PriceSourceInvoice  PriceSource = "invoice"  // invoice processing
	PriceSourceComputed PriceSource = "computed" // price recompute
)

// Product is the local mirror of a remote catalog item plus local pricing data.
type Product struct {
	ID              uint                `json:"id" gorm:"primaryKey"`
	RemoteID        string              `json:"remote_id" gorm:"type:varchar(255);uniqueIndex;not null"`
	RemoteVariantID string              `json:"remote_variant_id" gorm:"type:varchar(255);index"`
	Name            string              `json:"name" gorm:"type:varchar(255);not null"`
	Description     string              `json:"description" gorm:"type:text"`
	Category        string              `json:"category" gorm:"type:varchar(255)"`
	BasePrice       decimal.Decimal     `json:"base_price" gorm:"type:decimal(10,2);not null;default:0"`
	PurchaseCost    decimal.Decimal     `json:"purchase_cost" gorm:"type:decimal(10,2);not null;default:0"` // local currency, legacy
	PurchaseCostUSD decimal.NullDecimal `json:"purchase_cost_usd" gorm:"type:decimal(10,2)"`
	PurchaseUnits   int                 `json:"purchase_units" gorm:"not null;default:1"` // legacy unit count paired with PurchaseCost
	UnitsPerPackage int                 `json:"units_per_package" gorm:"not null;default:1"`
	SalePrice       decimal.Decimal     `json:"sale_price" gorm:"type:decimal(10,2);not null;default:0"`
	Stock           decimal.Decimal     `json:"stock" gorm:"type:decimal(12,3);not null;default:0"`
	Markup          decimal.Decimal     `json:"markup" gorm:"type:decimal(5,2);not null;default:30"`
	RateType        RateType            `json:"rate_type" gorm:"type:varchar(10);not null;default:'official'"`
	VariablePricing bool                `json:"variable_pricing" gorm:"not null;default:false"`
	ApplyVAT        bool                `json:"apply_vat" gorm:"not null;default:false"`
	PriceSource     PriceSource         `json:"price_source" gorm:"type:varchar(20);not null;default:'remote'"`
	PriceUpdatedAt  *time.Time          `json:"price_updated_at"`
	StockUpdatedAt  *time.Time          `json:"stock_updated_at"`
	CreatedAt       time.Time           `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time           `json:"updated_at" gorm:"autoUpdateTime"`
	Variants        []ProductVariant    `json:"variants,omitempty" gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Product) TableName() string {
	return "products"
}

// VariantIDs returns the remote variant ids of the product in stored order.
func (p *Product) VariantIDs() []string {
	ids := make([]string, 0, len(p.Variants))
	for _, v := range p.Variants {
		ids = append(ids, v.VariantID)
	}
	return ids
}

// ProductVariant maps one remote variant to its product. Stock deliveries are
// keyed by variant, and an item can have several.
type ProductVariant struct {
	ID        uint   `json:"-" gorm:"primaryKey"`
	ProductID uint   `json:"-" gorm:"not null;index"`
	VariantID string `json:"variant_id" gorm:"type:varchar(255);uniqueIndex;not null"`
	Position  int    `json:"-" gorm:"not null;default:0"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

// PushPrice is the price sent to the remote catalog: the computed sale price
// when there is one, the base price otherwise.
func (p *Product) PushPrice() decimal.Decimal {
	if p.SalePrice.IsPositive() {
		return p.SalePrice
	}
	return p.BasePrice
}

// ExchangeRate is a single observation. Rows are never updated; a new value
// is a new row.
type ExchangeRate struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	Type       RateType        `json:"type" gorm:"type:varchar(10);not null;index:idx_rate_type_observed,priority:1"`
	Value      decimal.Decimal `json:"value" gorm:"type:decimal(10,2);not null"`
	ObservedAt time.Time       `json:"observed_at" gorm:"not null;index:idx_rate_type_observed,priority:2"`
}

func (ExchangeRate) TableName() string {
	return "exchange_rates"
}

// Invoice records a purchase. Totals are fixed at creation; only Synced
// changes afterwards.
type Invoice struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	Number         string          `json:"number" gorm:"type:varchar(50);uniqueIndex;not null"`
	Currency       Currency        `json:"currency" gorm:"type:varchar(3);not null"`
	ExchangeRateID *uint           `json:"exchange_rate_id"`
	ExchangeRate   *ExchangeRate   `json:"exchange_rate,omitempty" gorm:"foreignKey:ExchangeRateID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	TotalBS        decimal.Decimal `json:"total_bs" gorm:"type:decimal(15,2);not null;default:0"`
	TotalUSD       decimal.Decimal `json:"total_usd" gorm:"type:decimal(15,2);not null;default:0"`
	Markup         decimal.Decimal `json:"markup" gorm:"type:decimal(5,2);not null;default:30"`
	Synced         bool            `json:"synced" gorm:"not null;default:false"`
	CreatedAt      time.Time       `json:"created_at" gorm:"autoCreateTime;index"`
	Lines          []InvoiceLine   `json:"lines,omitempty" gorm:"foreignKey:InvoiceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceLine is one product row of an invoice.
type InvoiceLine struct {
	ID              uint                `json:"id" gorm:"primaryKey"`
	InvoiceID       uint                `json:"invoice_id" gorm:"not null;index"`
	ProductID       uint                `json:"product_id" gorm:"not null;index"`
	Product         *Product            `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Quantity        decimal.Decimal     `json:"quantity" gorm:"type:decimal(10,2);not null"`
	UnitPrice       decimal.Decimal     `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	Total           decimal.Decimal     `json:"total" gorm:"type:decimal(15,2);not null"`
	Markup          decimal.NullDecimal `json:"markup" gorm:"type:decimal(5,2)"` // overrides the invoice markup
	PurchaseCostUSD decimal.NullDecimal `json:"purchase_cost_usd" gorm:"type:decimal(10,2)"`
	UnitsPerPackage int                 `json:"units_per_package" gorm:"not null;default:1"`
}

func (InvoiceLine) TableName() string {
	return "invoice_lines"
}

// WebhookEventType is the closed set of remote event types we subscribe to.
type WebhookEventType string

const (
	WebhookInventoryLevelsUpdate WebhookEventType = "inventory_levels.update"
	WebhookItemsUpdate           WebhookEventType = "items.update"
	WebhookCustomersUpdate       WebhookEventType = "customers.update"
	WebhookReceiptsUpdate        WebhookEventType = "receipts.update"
	WebhookShiftsCreate          WebhookEventType = "shifts.create"
)

func (t WebhookEventType) Valid() bool {
	switch t {
	case WebhookInventoryLevelsUpdate, WebhookItemsUpdate, WebhookCustomersUpdate,
		WebhookReceiptsUpdate, WebhookShiftsCreate:
		return true
	}
	return false
}

type WebhookStatus string

const (
	WebhookStatusEnabled  WebhookStatus = "ENABLED"
	WebhookStatusDisabled WebhookStatus = "DISABLED"
)

// Webhook is a registration that exists on the remote side. It is stored
// only after the remote system accepted it.
type Webhook struct {
	ID         uint             `json:"id" gorm:"primaryKey"`
	RemoteID   string           `json:"remote_id" gorm:"type:varchar(64);uniqueIndex;not null"`
	MerchantID string           `json:"merchant_id" gorm:"type:varchar(64)"`
	URL        string           `json:"url" gorm:"type:varchar(500);not null"`
	Type       WebhookEventType `json:"type" gorm:"type:varchar(50);not null"`
	Status     WebhookStatus    `json:"status" gorm:"type:varchar(10);not null;default:'ENABLED'"`
	CreatedAt  time.Time        `json:"created_at" gorm:"autoCreateTime"`
}

func (Webhook) TableName() string {
	return "webhooks"
}

// WebhookDelivery is the audit record of one inbound delivery (document store).
type WebhookDelivery struct {
	ID             string    `json:"id" bson:"_id"`
	Type           string    `json:"type" bson:"type"`
	MerchantID     string    `json:"merchant_id" bson:"merchant_id"`
	Body           string    `json:"body" bson:"body"`
	SignatureValid bool      `json:"signature_valid" bson:"signature_valid"`
	Test           bool      `json:"test" bson:"test"`
	Outcome        string    `json:"outcome" bson:"outcome"`
	Error          string    `json:"error,omitempty" bson:"error,omitempty"`
	ReceivedAt     time.Time `json:"received_at" bson:"received_at"`
}
