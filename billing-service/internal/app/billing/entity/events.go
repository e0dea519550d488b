package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Billing event types published to Kafka.
const (
	EventCatalogSynced           = "CATALOG_SYNCED"
	EventInvoiceCreated          = "INVOICE_CREATED"
	EventInvoiceProcessRequested = "INVOICE_PROCESS_REQUESTED"
	EventInvoiceProcessed        = "INVOICE_PROCESSED"
	EventStockUpdated            = "STOCK_UPDATED"
)

// BillingEvent is the envelope of every message on the billing topic.
type BillingEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	InvoiceID uint            `json:"invoice_id,omitempty"`
	ProductID uint            `json:"product_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Notification types pushed to WebSocket clients.
const (
	NotificationConnectionEstablished = "connection_established"
	NotificationInventoryUpdate       = "inventory_update"
)

type Notification struct {
	Type      string           `json:"type"`
	Product   string           `json:"producto,omitempty"`
	ProductID uint             `json:"product_id,omitempty"`
	Stock     *decimal.Decimal `json:"stock_actual,omitempty"`
	Message   string           `json:"message"`
}

// InventoryLevel is one entry of an inventory_levels.update delivery.
type InventoryLevel struct {
	VariantID string          `json:"variant_id"`
	StoreID   string          `json:"store_id"`
	InStock   decimal.Decimal `json:"in_stock"`
	UpdatedAt string          `json:"updated_at"`
}

// WebhookPayload is the common shape of inbound deliveries.
type WebhookPayload struct {
	MerchantID      string           `json:"merchant_id"`
	Type            string           `json:"type"`
	CreatedAt       string           `json:"created_at"`
	InventoryLevels []InventoryLevel `json:"inventory_levels,omitempty"`
}
