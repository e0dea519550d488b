package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/billing-service/internal/app/billing/repository"
	"bodegaclick/pkg/logger"
	"bodegaclick/pkg/metrics"

	"github.com/shopspring/decimal"
)

const defaultRateListLimit = 50

// ExchangeRateService records rate observations and answers latest-rate
// lookups through the Redis cache.
type ExchangeRateService struct {
	repo  repository.ExchangeRateRepository
	cache repository.RateCache
	now   func() time.Time
}

func NewExchangeRateService(repo repository.ExchangeRateRepository, cache repository.RateCache) *ExchangeRateService {
	return &ExchangeRateService{
		repo:  repo,
		cache: cache,
		now:   time.Now,
	}
}

// Record appends a new observation. Older rows are never touched.
func (s *ExchangeRateService) Record(ctx context.Context, rateType entity.RateType, value decimal.Decimal) (*entity.ExchangeRate, error) {
	if !rateType.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidRate, rateType)
	}
	if !value.IsPositive() {
		return nil, fmt.Errorf("%w: value must be positive", ErrInvalidRate)
	}

	rate := &entity.ExchangeRate{
		Type:       rateType,
		Value:      value.Round(2),
		ObservedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, rate); err != nil {
		return nil, fmt.Errorf("failed to record exchange rate: %w", err)
	}

	if err := s.cache.Invalidate(ctx, rateType); err != nil {
		logger.Warn().Err(err).Str("rate_type", string(rateType)).Msg("Failed to invalidate cached rate")
	}

	metrics.ExchangeRatesRecorded.WithLabelValues(string(rateType)).Inc()
	logger.Info().
		Str("rate_type", string(rateType)).
		Str("value", rate.Value.String()).
		Msg("Exchange rate recorded")

	return rate, nil
}

// Latest returns the most recent observation of a type, or ErrNoRateAvailable.
func (s *ExchangeRateService) Latest(ctx context.Context, rateType entity.RateType) (*entity.ExchangeRate, error) {
	if !rateType.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidRate, rateType)
	}

	cached, err := s.cache.Get(ctx, rateType)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		logger.Warn().Err(err).Str("rate_type", string(rateType)).Msg("Rate cache unavailable, reading database")
	}

	rate, err := s.repo.Latest(ctx, rateType)
	if err != nil {
		if errors.Is(err, repository.ErrExchangeRateNotFound) {
			return nil, fmt.Errorf("%w: no %s rate recorded", ErrNoRateAvailable, rateType)
		}
		return nil, err
	}

	if err := s.cache.Set(ctx, rate); err != nil {
		logger.Warn().Err(err).Str("rate_type", string(rateType)).Msg("Failed to cache latest rate")
	}
	return rate, nil
}

func (s *ExchangeRateService) GetByID(ctx context.Context, id uint) (*entity.ExchangeRate, error) {
	rate, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrExchangeRateNotFound) {
			return nil, ErrExchangeRateNotFound
		}
		return nil, err
	}
	return rate, nil
}

// List returns observations newest first.
func (s *ExchangeRateService) List(ctx context.Context, limit int) ([]entity.ExchangeRate, error) {
	if limit <= 0 {
		limit = defaultRateListLimit
	}
	return s.repo.List(ctx, limit)
}

// WarmCache loads the latest rate of every type into the cache. Types with
// no observation are skipped.
func (s *ExchangeRateService) WarmCache(ctx context.Context) error {
	for _, rateType := range []entity.RateType{entity.RateTypeOfficial, entity.RateTypeParallel} {
		rate, err := s.repo.Latest(ctx, rateType)
		if err != nil {
			if errors.Is(err, repository.ErrExchangeRateNotFound) {
				continue
			}
			return fmt.Errorf("failed to load %s rate: %w", rateType, err)
		}
		if err := s.cache.Set(ctx, rate); err != nil {
			return fmt.Errorf("failed to cache %s rate: %w", rateType, err)
		}
	}
	return nil
}
