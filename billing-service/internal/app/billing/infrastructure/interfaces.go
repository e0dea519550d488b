package infrastructure

import (
	"context"
	"encoding/json"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/billing-service/internal/app/billing/infrastructure/loyverse"

	"github.com/shopspring/decimal"
)

// CatalogClient is the remote POS catalog API.
type CatalogClient interface {
	ListItems(ctx context.Context, cursor string) (*loyverse.ItemsPage, error)
	ListCategories(ctx context.Context) ([]loyverse.Category, error)
	GetItem(ctx context.Context, itemID string) (json.RawMessage, error)
	UpdateItemPrice(ctx context.Context, itemID string, price decimal.Decimal) error
	CreateWebhook(ctx context.Context, targetURL, eventType string) (*loyverse.Webhook, error)
	ListWebhooks(ctx context.Context) ([]loyverse.Webhook, error)
	DeleteWebhook(ctx context.Context, webhookID string) error
	PostTestDelivery(ctx context.Context, targetURL string, payload []byte) (int, error)
}

type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

// EventPublisher publishes billing events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *entity.BillingEvent) error
}

// Notifier pushes real-time notifications to connected clients.
type Notifier interface {
	Broadcast(notification entity.Notification)
}
