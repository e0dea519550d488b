package service

import (
	"context"
	"testing"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/billing-service/internal/app/billing/pricing"
	"bodegaclick/billing-service/internal/app/billing/repository"
	"bodegaclick/billing-service/internal/app/billing/repository/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPricingFixture() (*PricingService, *mocks.MockProductRepository, *mocks.MockExchangeRateRepository, *mocks.MockRateCache) {
	products := new(mocks.MockProductRepository)
	rateRepo := new(mocks.MockExchangeRateRepository)
	cache := new(mocks.MockRateCache)
	rates := NewExchangeRateService(rateRepo, cache)
	svc := NewPricingService(products, rates, pricing.NewCalculator(pricing.DefaultConfig()))
	return svc, products, rateRepo, cache
}

func usdProduct(id uint, cost string, units int) entity.Product {
	return entity.Product{
		ID:              id,
		RemoteID:        "item-" + cost,
		Name:            "Harina PAN",
		PurchaseCostUSD: decimal.NewNullDecimal(decimal.RequireFromString(cost)),
		UnitsPerPackage: units,
		Markup:          decimal.NewFromInt(30),
		RateType:        entity.RateTypeOfficial,
	}
}

func salePriceIs(expected string) interface{} {
	return mock.MatchedBy(func(cols map[string]interface{}) bool {
		price, ok := cols["sale_price"].(decimal.Decimal)
		return ok && price.Equal(decimal.RequireFromString(expected)) &&
			cols["price_source"] == entity.PriceSourceComputed &&
			cols["price_updated_at"] != nil
	})
}

// ===================== RecomputeProduct Tests =====================

func TestRecomputeProduct_Success(t *testing.T) {
	// Arrange
	svc, products, _, cache := newPricingFixture()
	ctx := context.Background()
	product := usdProduct(1, "10.00", 5)

	products.On("GetByID", ctx, uint(1)).Return(&product, nil)
	cache.On("Get", ctx, entity.RateTypeOfficial).
		Return(&entity.ExchangeRate{ID: 1, Type: entity.RateTypeOfficial, Value: decimal.NewFromInt(40)}, nil)
	products.On("UpdateColumns", ctx, uint(1), salePriceIs("104.00")).Return(nil)

	// Act
	result, err := svc.RecomputeProduct(ctx, 1)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "104.00", result.SalePrice.StringFixed(2))
	assert.Equal(t, entity.PriceSourceComputed, result.PriceSource)
	products.AssertExpectations(t)
}

func TestRecomputeProduct_NoRate(t *testing.T) {
	svc, products, rateRepo, cache := newPricingFixture()
	ctx := context.Background()
	product := usdProduct(1, "10.00", 5)

	products.On("GetByID", ctx, uint(1)).Return(&product, nil)
	cache.On("Get", ctx, entity.RateTypeOfficial).Return(nil, repository.ErrCacheMiss)
	rateRepo.On("Latest", ctx, entity.RateTypeOfficial).Return(nil, repository.ErrExchangeRateNotFound)

	_, err := svc.RecomputeProduct(ctx, 1)

	assert.ErrorIs(t, err, ErrNoRateAvailable)
	products.AssertNotCalled(t, "UpdateColumns", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecomputeProduct_ZeroUnits(t *testing.T) {
	svc, products, _, cache := newPricingFixture()
	ctx := context.Background()
	product := usdProduct(1, "10.00", 0)

	products.On("GetByID", ctx, uint(1)).Return(&product, nil)
	cache.On("Get", ctx, entity.RateTypeOfficial).
		Return(&entity.ExchangeRate{Type: entity.RateTypeOfficial, Value: decimal.NewFromInt(40)}, nil)

	_, err := svc.RecomputeProduct(ctx, 1)

	assert.ErrorIs(t, err, ErrInvalidUnits)
}

func TestRecomputeProduct_NotFound(t *testing.T) {
	svc, products, _, _ := newPricingFixture()
	ctx := context.Background()

	products.On("GetByID", ctx, uint(5)).Return(nil, repository.ErrProductNotFound)

	_, err := svc.RecomputeProduct(ctx, 5)

	assert.ErrorIs(t, err, ErrProductNotFound)
}

// ===================== RecomputeAll Tests =====================

func TestRecomputeAll_MixedResults(t *testing.T) {
	// Arrange
	svc, products, _, cache := newPricingFixture()
	ctx := context.Background()

	official := usdProduct(1, "10.00", 5)
	parallel := usdProduct(2, "2.00", 1)
	parallel.RateType = entity.RateTypeParallel
	noCost := entity.Product{ID: 3, Name: "Bolsa", UnitsPerPackage: 1}
	broken := usdProduct(4, "3.00", 0)

	products.On("ListAll", ctx).Return([]entity.Product{official, parallel, noCost, broken}, nil)
	cache.On("Get", ctx, entity.RateTypeOfficial).
		Return(&entity.ExchangeRate{Type: entity.RateTypeOfficial, Value: decimal.NewFromInt(40)}, nil).Once()
	cache.On("Get", ctx, entity.RateTypeParallel).
		Return(&entity.ExchangeRate{Type: entity.RateTypeParallel, Value: decimal.NewFromInt(50)}, nil).Once()
	products.On("UpdateColumns", ctx, uint(1), salePriceIs("104.00")).Return(nil)
	products.On("UpdateColumns", ctx, uint(2), salePriceIs("130.00")).Return(nil)

	// Act
	report, err := svc.RecomputeAll(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Results, 3)
	assert.Equal(t, uint(4), report.Results[2].ProductID)
	assert.NotEmpty(t, report.Results[2].Error)
	// one rate lookup per type per run
	cache.AssertExpectations(t)
	products.AssertExpectations(t)
}
