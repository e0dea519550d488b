package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const rateKeyPrefix = "billing:rate:latest:"

func rateKey(rateType entity.RateType) string {
	return rateKeyPrefix + string(rateType)
}

// rateCache keeps the latest rate per type in Redis as JSON with a TTL.
type rateCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRateCache(client *redis.Client, ttl time.Duration) RateCache {
	return &rateCache{client: client, ttl: ttl}
}

func (c *rateCache) Get(ctx context.Context, rateType entity.RateType) (*entity.ExchangeRate, error) {
	defer metrics.NewRedisTimer(serviceName, metrics.RedisOpGet).ObserveDuration()

	data, err := c.client.Get(ctx, rateKey(rateType)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, rateKeyPrefix)
			return nil, ErrCacheMiss
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get rate from redis: %w", err)
	}

	var rate entity.ExchangeRate
	if err := json.Unmarshal(data, &rate); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached rate: %w", err)
	}

	metrics.RecordCacheHit(serviceName, rateKeyPrefix)
	return &rate, nil
}

func (c *rateCache) Set(ctx context.Context, rate *entity.ExchangeRate) error {
	defer metrics.NewRedisTimer(serviceName, metrics.RedisOpSet).ObserveDuration()

	data, err := json.Marshal(rate)
	if err != nil {
		return fmt.Errorf("failed to marshal rate: %w", err)
	}

	if err := c.client.Set(ctx, rateKey(rate.Type), data, c.ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set rate in redis: %w", err)
	}
	return nil
}

func (c *rateCache) Invalidate(ctx context.Context, rateType entity.RateType) error {
	defer metrics.NewRedisTimer(serviceName, metrics.RedisOpDel).ObserveDuration()

	if err := c.client.Del(ctx, rateKey(rateType)).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to invalidate rate: %w", err)
	}
	return nil
}
