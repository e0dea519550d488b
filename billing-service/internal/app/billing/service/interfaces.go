package service

import (
	"context"

	"bodegaclick/billing-service/internal/app/billing/entity"

	"github.com/shopspring/decimal"
)

// RateProvider resolves exchange rates for pricing and invoicing.
type RateProvider interface {
	Latest(ctx context.Context, rateType entity.RateType) (*entity.ExchangeRate, error)
	GetByID(ctx context.Context, id uint) (*entity.ExchangeRate, error)
}

// PricePusher writes one product's price to the remote catalog.
type PricePusher interface {
	PushPrice(ctx context.Context, product *entity.Product) entity.PushResult
}

// CatalogSyncer runs a full catalog fetch.
type CatalogSyncer interface {
	Run(ctx context.Context, applyPrices bool) (*entity.SyncReport, error)
}

type ProductServiceInterface interface {
	List(ctx context.Context, filter entity.ProductFilter) (*entity.ProductListResponse, error)
	Get(ctx context.Context, id uint) (*entity.Product, error)
}

type PricingServiceInterface interface {
	RecomputeProduct(ctx context.Context, id uint) (*entity.Product, error)
	RecomputeAll(ctx context.Context) (*entity.RecomputeReport, error)
}

type PriceSyncServiceInterface interface {
	PushAll(ctx context.Context) (*entity.PushReport, error)
	PushByID(ctx context.Context, id uint) (*entity.PushResult, error)
}

type ExchangeRateServiceInterface interface {
	Record(ctx context.Context, rateType entity.RateType, value decimal.Decimal) (*entity.ExchangeRate, error)
	Latest(ctx context.Context, rateType entity.RateType) (*entity.ExchangeRate, error)
	List(ctx context.Context, limit int) ([]entity.ExchangeRate, error)
}

type InvoiceServiceInterface interface {
	Create(ctx context.Context, req *entity.CreateInvoiceRequest) (*entity.Invoice, error)
	Get(ctx context.Context, id uint) (*entity.Invoice, error)
	List(ctx context.Context, limit, offset int) ([]entity.Invoice, int64, error)
	Process(ctx context.Context, id uint) (*entity.ProcessReport, error)
	RequestProcessing(ctx context.Context, id uint) error
}

type WebhookServiceInterface interface {
	Create(ctx context.Context, req *entity.CreateWebhookRequest) (*entity.Webhook, error)
	List(ctx context.Context) ([]entity.Webhook, error)
	Delete(ctx context.Context, remoteID string) error
	TestFire(ctx context.Context, remoteID string) (int, error)
	HandleDelivery(ctx context.Context, body []byte, signature string, isTest bool) (*entity.DeliveryResult, error)
	RecentDeliveries(ctx context.Context, limit int64) ([]entity.WebhookDelivery, error)
}

type AuthServiceInterface interface {
	Login(ctx context.Context, req *entity.LoginRequest) (*entity.LoginResponse, error)
}

// InvoiceEventHandler consumes billing events addressed to the invoice ledger.
type InvoiceEventHandler interface {
	HandleEvent(ctx context.Context, event *entity.BillingEvent) error
}

// RateCacheWarmer preloads the latest rates into the cache.
type RateCacheWarmer interface {
	WarmCache(ctx context.Context) error
}
