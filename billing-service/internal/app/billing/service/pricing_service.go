package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/billing-service/internal/app/billing/pricing"
	"bodegaclick/billing-service/internal/app/billing/repository"
	"bodegaclick/pkg/logger"

	"github.com/shopspring/decimal"
)

// PricingService recomputes local sale prices. It never talks to the
// remote catalog; pushing is a separate step.
type PricingService struct {
	products   repository.ProductRepository
	rates      RateProvider
	calculator *pricing.Calculator
	now        func() time.Time
}

func NewPricingService(products repository.ProductRepository, rates RateProvider, calculator *pricing.Calculator) *PricingService {
	return &PricingService{
		products:   products,
		rates:      rates,
		calculator: calculator,
		now:        time.Now,
	}
}

// RecomputeProduct computes and stores the sale price of one product.
func (s *PricingService) RecomputeProduct(ctx context.Context, id uint) (*entity.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	rates := map[entity.RateType]decimal.Decimal{}
	if err := s.recompute(ctx, product, rates); err != nil {
		return nil, err
	}
	return product, nil
}

// RecomputeAll recomputes every product. Products without a purchase cost
// are skipped; other failures are reported per product.
func (s *PricingService) RecomputeAll(ctx context.Context) (*entity.RecomputeReport, error) {
	log := logger.Operation("recompute_prices")

	products, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	report := &entity.RecomputeReport{Results: make([]entity.RecomputeResult, 0, len(products))}
	rates := map[entity.RateType]decimal.Decimal{}

	for i := range products {
		product := &products[i]
		result := entity.RecomputeResult{ProductID: product.ID, Name: product.Name}

		err := s.recompute(ctx, product, rates)
		switch {
		case err == nil:
			report.Updated++
			result.SalePrice = product.SalePrice
		case errors.Is(err, pricing.ErrNoCost):
			report.Skipped++
			continue
		default:
			report.Failed++
			result.Error = err.Error()
			log.Warn().Err(err).Uint("product_id", product.ID).Str("outcome", "failed").Msg("Price recompute failed")
		}
		report.Results = append(report.Results, result)
	}

	log.Info().
		Int("updated", report.Updated).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("Price recompute finished")
	return report, nil
}

// recompute resolves the product's rate (memoised per run in rates), computes
// the sale price and writes it with computed provenance.
func (s *PricingService) recompute(ctx context.Context, product *entity.Product, rates map[entity.RateType]decimal.Decimal) error {
	var rate decimal.Decimal
	if pricing.NeedsRate(product) {
		rateType := s.calculator.RateTypeFor(product)
		cached, ok := rates[rateType]
		if !ok {
			latest, err := s.rates.Latest(ctx, rateType)
			if err != nil {
				if !errors.Is(err, ErrNoRateAvailable) {
					return err
				}
				latest = &entity.ExchangeRate{Value: decimal.Zero}
			}
			cached = latest.Value
			rates[rateType] = cached
		}
		rate = cached
	}

	price, err := s.calculator.ProductSalePrice(product, rate)
	if err != nil {
		return err
	}

	now := s.now()
	columns := map[string]interface{}{
		"sale_price":       price,
		"price_source":     entity.PriceSourceComputed,
		"price_updated_at": now,
	}
	if err := s.products.UpdateColumns(ctx, product.ID, columns); err != nil {
		return fmt.Errorf("failed to store sale price: %w", err)
	}

	product.SalePrice = price
	product.PriceSource = entity.PriceSourceComputed
	product.PriceUpdatedAt = &now
	return nil
}
