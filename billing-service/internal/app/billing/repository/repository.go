package repository

import (
	"context"
	"errors"
	"time"

	"bodegaclick/billing-service/internal/app/billing/entity"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound        = errors.New("product not found")
	ErrExchangeRateNotFound   = errors.New("exchange rate not found")
	ErrInvoiceNotFound        = errors.New("invoice not found")
	ErrWebhookNotFound        = errors.New("webhook not found")
	ErrDuplicateInvoiceNumber = errors.New("invoice number already exists")
	ErrCacheMiss              = errors.New("cache miss")
)

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	Save(ctx context.Context, product *entity.Product) error
	UpdateColumns(ctx context.Context, id uint, columns map[string]interface{}) error
	UpdateStock(ctx context.Context, id uint, stock decimal.Decimal, at time.Time) error
	GetByID(ctx context.Context, id uint) (*entity.Product, error)
	GetByRemoteID(ctx context.Context, remoteID string) (*entity.Product, error)
	GetByVariantID(ctx context.Context, variantID string) (*entity.Product, error)
	ReplaceVariants(ctx context.Context, productID uint, variantIDs []string) error
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*entity.Product, error)
	List(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, int64, error)
	ListAll(ctx context.Context) ([]entity.Product, error)
}

// ExchangeRateRepository is append-only.
type ExchangeRateRepository interface {
	Create(ctx context.Context, rate *entity.ExchangeRate) error
	GetByID(ctx context.Context, id uint) (*entity.ExchangeRate, error)
	Latest(ctx context.Context, rateType entity.RateType) (*entity.ExchangeRate, error)
	List(ctx context.Context, limit int) ([]entity.ExchangeRate, error)
}

// RateCache holds the latest rate per type.
type RateCache interface {
	Get(ctx context.Context, rateType entity.RateType) (*entity.ExchangeRate, error)
	Set(ctx context.Context, rate *entity.ExchangeRate) error
	Invalidate(ctx context.Context, rateType entity.RateType) error
}

type InvoiceRepository interface {
	// Create persists the invoice and its lines in one transaction.
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id uint) (*entity.Invoice, error)
	List(ctx context.Context, limit, offset int) ([]entity.Invoice, int64, error)
	MarkSynced(ctx context.Context, id uint) error
	ExistsCreatedSince(ctx context.Context, since time.Time) (bool, error)
}

type WebhookRepository interface {
	Create(ctx context.Context, webhook *entity.Webhook) error
	List(ctx context.Context) ([]entity.Webhook, error)
	GetByRemoteID(ctx context.Context, remoteID string) (*entity.Webhook, error)
	DeleteByRemoteID(ctx context.Context, remoteID string) error
}

// DeliveryDeduplicator remembers delivery keys for a while.
type DeliveryDeduplicator interface {
	// MarkSeen returns true the first time a key is seen.
	MarkSeen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

// DeliveryLog is the audit trail of inbound webhook deliveries.
type DeliveryLog interface {
	Record(ctx context.Context, delivery *entity.WebhookDelivery) error
	Recent(ctx context.Context, limit int64) ([]entity.WebhookDelivery, error)
}
