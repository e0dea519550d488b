package handler

import (
	"context"

	"bodegaclick/billing-service/internal/app/billing/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, filter entity.ProductFilter) (*entity.ProductListResponse, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProductListResponse), args.Error(1)
}

func (m *MockProductService) Get(ctx context.Context, id uint) (*entity.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

type MockCatalogSyncer struct {
	mock.Mock
}

func (m *MockCatalogSyncer) Run(ctx context.Context, applyPrices bool) (*entity.SyncReport, error) {
	args := m.Called(ctx, applyPrices)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SyncReport), args.Error(1)
}

type MockPriceSyncService struct {
	mock.Mock
}

func (m *MockPriceSyncService) PushAll(ctx context.Context) (*entity.PushReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PushReport), args.Error(1)
}

func (m *MockPriceSyncService) PushByID(ctx context.Context, id uint) (*entity.PushResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PushResult), args.Error(1)
}

type MockPricingService struct {
	mock.Mock
}

func (m *MockPricingService) RecomputeProduct(ctx context.Context, id uint) (*entity.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockPricingService) RecomputeAll(ctx context.Context) (*entity.RecomputeReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RecomputeReport), args.Error(1)
}

type MockExchangeRateService struct {
	mock.Mock
}

func (m *MockExchangeRateService) Record(ctx context.Context, rateType entity.RateType, value decimal.Decimal) (*entity.ExchangeRate, error) {
	args := m.Called(ctx, rateType, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateService) Latest(ctx context.Context, rateType entity.RateType) (*entity.ExchangeRate, error) {
	args := m.Called(ctx, rateType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateService) GetByID(ctx context.Context, id uint) (*entity.ExchangeRate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateService) List(ctx context.Context, limit int) ([]entity.ExchangeRate, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ExchangeRate), args.Error(1)
}

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) Create(ctx context.Context, req *entity.CreateInvoiceRequest) (*entity.Invoice, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Get(ctx context.Context, id uint) (*entity.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Invoice), args.Error(1)
}

func (m *MockInvoiceService) List(ctx context.Context, limit, offset int) ([]entity.Invoice, int64, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceService) Process(ctx context.Context, id uint) (*entity.ProcessReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProcessReport), args.Error(1)
}

func (m *MockInvoiceService) RequestProcessing(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockWebhookService struct {
	mock.Mock
}

func (m *MockWebhookService) Create(ctx context.Context, req *entity.CreateWebhookRequest) (*entity.Webhook, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Webhook), args.Error(1)
}

func (m *MockWebhookService) List(ctx context.Context) ([]entity.Webhook, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Webhook), args.Error(1)
}

func (m *MockWebhookService) Delete(ctx context.Context, remoteID string) error {
	args := m.Called(ctx, remoteID)
	return args.Error(0)
}

func (m *MockWebhookService) TestFire(ctx context.Context, remoteID string) (int, error) {
	args := m.Called(ctx, remoteID)
	return args.Int(0), args.Error(1)
}

func (m *MockWebhookService) HandleDelivery(ctx context.Context, body []byte, signature string, isTest bool) (*entity.DeliveryResult, error) {
	args := m.Called(ctx, body, signature, isTest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DeliveryResult), args.Error(1)
}

func (m *MockWebhookService) RecentDeliveries(ctx context.Context, limit int64) ([]entity.WebhookDelivery, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.WebhookDelivery), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, req *entity.LoginRequest) (*entity.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LoginResponse), args.Error(1)
}
