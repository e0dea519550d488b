package service

import (
	"context"
	"errors"
	"fmt"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/billing-service/internal/app/billing/infrastructure"
	"bodegaclick/billing-service/internal/app/billing/repository"
	"bodegaclick/pkg/logger"
	"bodegaclick/pkg/metrics"
)

// PriceSyncService pushes local prices to the remote catalog.
type PriceSyncService struct {
	products repository.ProductRepository
	client   infrastructure.CatalogClient
}

func NewPriceSyncService(products repository.ProductRepository, client infrastructure.CatalogClient) *PriceSyncService {
	return &PriceSyncService{
		products: products,
		client:   client,
	}
}

// PushPrice sends the product's price to its remote item. Remote failures
// are reported in the result, never returned.
func (s *PriceSyncService) PushPrice(ctx context.Context, product *entity.Product) entity.PushResult {
	price := product.PushPrice()
	result := entity.PushResult{
		ProductID: product.ID,
		RemoteID:  product.RemoteID,
		Name:      product.Name,
		Price:     price,
	}

	switch {
	case product.RemoteID == "":
		result.Status = entity.PushSkipped
		result.Error = "product has no remote item"
	case product.VariablePricing:
		result.Status = entity.PushSkipped
		result.Error = "variable pricing"
	case !price.IsPositive():
		result.Status = entity.PushSkipped
		result.Error = "no price to push"
	default:
		if err := s.client.UpdateItemPrice(ctx, product.RemoteID, price); err != nil {
			result.Status = entity.PushFailed
			result.Error = err.Error()
			logger.Warn().
				Err(err).
				Str("operation", "push_price").
				Uint("product_id", product.ID).
				Str("outcome", entity.PushFailed).
				Msg("Failed to push price")
		} else {
			result.Status = entity.PushUpdated
			logger.Debug().
				Str("operation", "push_price").
				Uint("product_id", product.ID).
				Str("price", price.StringFixed(2)).
				Msg("Price pushed")
		}
	}

	metrics.PricePushes.WithLabelValues(result.Status).Inc()
	return result
}

// PushPrices pushes each product in order.
func (s *PriceSyncService) PushPrices(ctx context.Context, products []entity.Product) *entity.PushReport {
	report := &entity.PushReport{Details: make([]entity.PushResult, 0, len(products))}
	for i := range products {
		if ctx.Err() != nil {
			report.Add(entity.PushResult{
				ProductID: products[i].ID,
				RemoteID:  products[i].RemoteID,
				Name:      products[i].Name,
				Status:    entity.PushFailed,
				Error:     ctx.Err().Error(),
			})
			continue
		}
		report.Add(s.PushPrice(ctx, &products[i]))
	}
	return report
}

// PushAll pushes every local product.
func (s *PriceSyncService) PushAll(ctx context.Context) (*entity.PushReport, error) {
	log := logger.Operation("push_prices")

	products, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	report := s.PushPrices(ctx, products)
	log.Info().
		Int("updated", report.Updated).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("Price push finished")
	return report, nil
}

func (s *PriceSyncService) PushByID(ctx context.Context, id uint) (*entity.PushResult, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	result := s.PushPrice(ctx, product)
	return &result, nil
}
