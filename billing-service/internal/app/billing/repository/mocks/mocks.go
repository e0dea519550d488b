package mocks

import (
	"context"
	"encoding/json"
	"time"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/billing-service/internal/app/billing/infrastructure/loyverse"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository mocks ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *entity.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Save(ctx context.Context, product *entity.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) UpdateColumns(ctx context.Context, id uint, columns map[string]interface{}) error {
	args := m.Called(ctx, id, columns)
	return args.Error(0)
}

func (m *MockProductRepository) UpdateStock(ctx context.Context, id uint, stock decimal.Decimal, at time.Time) error {
	args := m.Called(ctx, id, stock, at)
	return args.Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uint) (*entity.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductRepository) GetByRemoteID(ctx context.Context, remoteID string) (*entity.Product, error) {
	args := m.Called(ctx, remoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductRepository) GetByVariantID(ctx context.Context, variantID string) (*entity.Product, error) {
	args := m.Called(ctx, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductRepository) ReplaceVariants(ctx context.Context, productID uint, variantIDs []string) error {
	args := m.Called(ctx, productID, variantIDs)
	return args.Error(0)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*entity.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]*entity.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) ListAll(ctx context.Context) ([]entity.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Product), args.Error(1)
}

// MockExchangeRateRepository mocks ExchangeRateRepository
type MockExchangeRateRepository struct {
	mock.Mock
}

func (m *MockExchangeRateRepository) Create(ctx context.Context, rate *entity.ExchangeRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

func (m *MockExchangeRateRepository) GetByID(ctx context.Context, id uint) (*entity.ExchangeRate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateRepository) Latest(ctx context.Context, rateType entity.RateType) (*entity.ExchangeRate, error) {
	args := m.Called(ctx, rateType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateRepository) List(ctx context.Context, limit int) ([]entity.ExchangeRate, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ExchangeRate), args.Error(1)
}

// MockRateCache mocks RateCache
type MockRateCache struct {
	mock.Mock
}

func (m *MockRateCache) Get(ctx context.Context, rateType entity.RateType) (*entity.ExchangeRate, error) {
	args := m.Called(ctx, rateType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ExchangeRate), args.Error(1)
}

func (m *MockRateCache) Set(ctx context.Context, rate *entity.ExchangeRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

func (m *MockRateCache) Invalidate(ctx context.Context, rateType entity.RateType) error {
	args := m.Called(ctx, rateType)
	return args.Error(0)
}

// MockInvoiceRepository mocks InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, id uint) (*entity.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) List(ctx context.Context, limit, offset int) ([]entity.Invoice, int64, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) MarkSynced(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) ExistsCreatedSince(ctx context.Context, since time.Time) (bool, error) {
	args := m.Called(ctx, since)
	return args.Bool(0), args.Error(1)
}

// MockWebhookRepository mocks WebhookRepository
type MockWebhookRepository struct {
	mock.Mock
}

func (m *MockWebhookRepository) Create(ctx context.Context, webhook *entity.Webhook) error {
	args := m.Called(ctx, webhook)
	return args.Error(0)
}

func (m *MockWebhookRepository) List(ctx context.Context) ([]entity.Webhook, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Webhook), args.Error(1)
}

func (m *MockWebhookRepository) GetByRemoteID(ctx context.Context, remoteID string) (*entity.Webhook, error) {
	args := m.Called(ctx, remoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Webhook), args.Error(1)
}

func (m *MockWebhookRepository) DeleteByRemoteID(ctx context.Context, remoteID string) error {
	args := m.Called(ctx, remoteID)
	return args.Error(0)
}

// MockDeliveryDeduplicator mocks DeliveryDeduplicator
type MockDeliveryDeduplicator struct {
	mock.Mock
}

func (m *MockDeliveryDeduplicator) MarkSeen(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockDeliveryDeduplicator) Forget(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockDeliveryLog mocks DeliveryLog
type MockDeliveryLog struct {
	mock.Mock
}

func (m *MockDeliveryLog) Record(ctx context.Context, delivery *entity.WebhookDelivery) error {
	args := m.Called(ctx, delivery)
	return args.Error(0)
}

func (m *MockDeliveryLog) Recent(ctx context.Context, limit int64) ([]entity.WebhookDelivery, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.WebhookDelivery), args.Error(1)
}

// MockCatalogClient mocks the remote catalog API client
type MockCatalogClient struct {
	mock.Mock
}

func (m *MockCatalogClient) ListItems(ctx context.Context, cursor string) (*loyverse.ItemsPage, error) {
	args := m.Called(ctx, cursor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyverse.ItemsPage), args.Error(1)
}

func (m *MockCatalogClient) ListCategories(ctx context.Context) ([]loyverse.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]loyverse.Category), args.Error(1)
}

func (m *MockCatalogClient) GetItem(ctx context.Context, itemID string) (json.RawMessage, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockCatalogClient) UpdateItemPrice(ctx context.Context, itemID string, price decimal.Decimal) error {
	args := m.Called(ctx, itemID, price)
	return args.Error(0)
}

func (m *MockCatalogClient) CreateWebhook(ctx context.Context, targetURL, eventType string) (*loyverse.Webhook, error) {
	args := m.Called(ctx, targetURL, eventType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyverse.Webhook), args.Error(1)
}

func (m *MockCatalogClient) ListWebhooks(ctx context.Context) ([]loyverse.Webhook, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]loyverse.Webhook), args.Error(1)
}

func (m *MockCatalogClient) DeleteWebhook(ctx context.Context, webhookID string) error {
	args := m.Called(ctx, webhookID)
	return args.Error(0)
}

func (m *MockCatalogClient) PostTestDelivery(ctx context.Context, targetURL string, payload []byte) (int, error) {
	args := m.Called(ctx, targetURL, payload)
	return args.Int(0), args.Error(1)
}

// MockEventPublisher mocks EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishEvent(ctx context.Context, event *entity.BillingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockNotifier mocks Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Broadcast(notification entity.Notification) {
	m.Called(notification)
}
