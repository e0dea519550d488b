package repository

import (
	"context"
	"fmt"
	"time"

	"bodegaclick/billing-service/internal/app/billing/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type deliveryLog struct {
	collection *mongo.Collection
}

func NewDeliveryLog(collection *mongo.Collection) DeliveryLog {
	return &deliveryLog{collection: collection}
}

// EnsureDeliveryIndexes creates the received_at index used by Recent and a
// TTL index that expires audit records after retention.
func EnsureDeliveryIndexes(ctx context.Context, collection *mongo.Collection, retention time.Duration) error {
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "received_at", Value: -1}},
			Options: options.Index().SetName("received_at_idx").SetExpireAfterSeconds(int32(retention.Seconds())),
		},
		{
			Keys:    bson.D{{Key: "type", Value: 1}},
			Options: options.Index().SetName("type_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create delivery indexes: %w", err)
	}
	return nil
}

func (l *deliveryLog) Record(ctx context.Context, delivery *entity.WebhookDelivery) error {
	if delivery.ReceivedAt.IsZero() {
		delivery.ReceivedAt = time.Now().UTC()
	}
	if _, err := l.collection.InsertOne(ctx, delivery); err != nil {
		return fmt.Errorf("failed to record webhook delivery: %w", err)
	}
	return nil
}

func (l *deliveryLog) Recent(ctx context.Context, limit int64) ([]entity.WebhookDelivery, error) {
	if limit <= 0 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "received_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := l.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find webhook deliveries: %w", err)
	}
	defer cursor.Close(ctx)

	var deliveries []entity.WebhookDelivery
	if err := cursor.All(ctx, &deliveries); err != nil {
		return nil, fmt.Errorf("failed to decode webhook deliveries: %w", err)
	}
	return deliveries, nil
}

// NoopDeliveryLog is used when no document store is configured.
type NoopDeliveryLog struct{}

func (NoopDeliveryLog) Record(context.Context, *entity.WebhookDelivery) error { return nil }

func (NoopDeliveryLog) Recent(context.Context, int64) ([]entity.WebhookDelivery, error) {
	return nil, nil
}
