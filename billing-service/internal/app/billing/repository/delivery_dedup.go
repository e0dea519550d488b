package repository

import (
	"context"
	"fmt"
	"time"

	"bodegaclick/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const deliveryKeyPrefix = "billing:webhook:delivery:"

type deliveryDeduplicator struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDeliveryDeduplicator(client *redis.Client, ttl time.Duration) DeliveryDeduplicator {
	return &deliveryDeduplicator{client: client, ttl: ttl}
}

func (d *deliveryDeduplicator) MarkSeen(ctx context.Context, key string) (bool, error) {
	defer metrics.NewRedisTimer(serviceName, metrics.RedisOpSet).ObserveDuration()

	first, err := d.client.SetNX(ctx, deliveryKeyPrefix+key, time.Now().Unix(), d.ttl).Result()
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return false, fmt.Errorf("failed to record delivery: %w", err)
	}
	return first, nil
}

// Forget drops a key so a redelivery is processed again.
func (d *deliveryDeduplicator) Forget(ctx context.Context, key string) error {
	defer metrics.NewRedisTimer(serviceName, metrics.RedisOpDel).ObserveDuration()

	if err := d.client.Del(ctx, deliveryKeyPrefix+key).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to forget delivery: %w", err)
	}
	return nil
}
