package repository

import (
	"context"
	"errors"
	"fmt"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/pkg/metrics"

	"gorm.io/gorm"
)

type exchangeRateRepository struct {
	db *gorm.DB
}

func NewExchangeRateRepository(db *gorm.DB) ExchangeRateRepository {
	return &exchangeRateRepository{db: db}
}

func (r *exchangeRateRepository) Create(ctx context.Context, rate *entity.ExchangeRate) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "exchange_rates").ObserveDuration()

	if err := r.db.WithContext(ctx).Create(rate).Error; err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpInsert)
		return fmt.Errorf("failed to create exchange rate: %w", err)
	}
	return nil
}

func (r *exchangeRateRepository) GetByID(ctx context.Context, id uint) (*entity.ExchangeRate, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "exchange_rates").ObserveDuration()

	var rate entity.ExchangeRate
	if err := r.db.WithContext(ctx).First(&rate, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExchangeRateNotFound
		}
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}
	return &rate, nil
}

// Latest returns the most recent observation of a type. Ties on observed_at
// go to the row inserted last.
func (r *exchangeRateRepository) Latest(ctx context.Context, rateType entity.RateType) (*entity.ExchangeRate, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "exchange_rates").ObserveDuration()

	var rate entity.ExchangeRate
	err := r.db.WithContext(ctx).
		Where("type = ?", rateType).
		Order("observed_at DESC").
		Order("id DESC").
		Take(&rate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExchangeRateNotFound
		}
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get latest exchange rate: %w", err)
	}
	return &rate, nil
}

func (r *exchangeRateRepository) List(ctx context.Context, limit int) ([]entity.ExchangeRate, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "exchange_rates").ObserveDuration()

	if limit <= 0 {
		limit = defaultPageLimit
	}

	var rates []entity.ExchangeRate
	err := r.db.WithContext(ctx).
		Order("observed_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rates).Error
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to list exchange rates: %w", err)
	}
	return rates, nil
}
