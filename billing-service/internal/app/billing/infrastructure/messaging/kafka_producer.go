package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/pkg/metrics"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const serviceName = "billing-service"

type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              100,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}

	return &KafkaProducer{writer: writer, topic: topic}
}

func (p *KafkaProducer) PublishMessage(ctx context.Context, key string, value []byte) error {
	timer := metrics.NewKafkaProduceTimer(serviceName, p.topic)

	message := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		timer.Error()
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	timer.Success()
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// EventPublisher encodes billing events and hands them to a MessagePublisher.
// Invoice events are keyed by invoice id so they stay ordered per invoice.
type EventPublisher struct {
	publisher messageWriter
}

type messageWriter interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
}

func NewEventPublisher(publisher messageWriter) *EventPublisher {
	return &EventPublisher{publisher: publisher}
}

func (p *EventPublisher) PublishEvent(ctx context.Context, event *entity.BillingEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.publisher.PublishMessage(ctx, EventKey(event), value)
}

func EventKey(event *entity.BillingEvent) string {
	switch {
	case event.InvoiceID != 0:
		return fmt.Sprintf("invoice-%d", event.InvoiceID)
	case event.ProductID != 0:
		return fmt.Sprintf("product-%d", event.ProductID)
	default:
		return event.EventType
	}
}

// NoopPublisher drops events. Used when Kafka is not configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(context.Context, *entity.BillingEvent) error {
	return nil
}
