package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/billing-service/internal/app/billing/service"
	"bodegaclick/pkg/logger"
	"bodegaclick/pkg/metrics"

	"github.com/segmentio/kafka-go"
	"github.com/sethvargo/go-retry"
)

const (
	serviceName = "billing-service"

	defaultRetryBase = 500 * time.Millisecond
	maxRetryDelay    = 30 * time.Second
)

var errPoisonMessage = errors.New("undecodable message")

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Stats() kafka.ReaderStats
	Close() error
}

// KafkaConsumer reads the billing topic and runs queued invoice processing.
type KafkaConsumer struct {
	reader   messageReader
	topic    string
	groupID  string
	handler  service.InvoiceEventHandler
	stopChan chan struct{}
	doneChan chan struct{}

	retryBase time.Duration
}

func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	handler service.InvoiceEventHandler,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       minBytes,
		MaxBytes:       maxBytes,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return newKafkaConsumer(reader, topic, groupID, handler)
}

func newKafkaConsumer(reader messageReader, topic, groupID string, handler service.InvoiceEventHandler) *KafkaConsumer {
	return &KafkaConsumer{
		reader:   reader,
		topic:    topic,
		groupID:  groupID,
		handler:  handler,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),

		retryBase: defaultRetryBase,
	}
}

// Start runs the consume loop in its own goroutine.
func (c *KafkaConsumer) Start(ctx context.Context) {
	logger.Info().Str("topic", c.topic).Str("group", c.groupID).Msg("Starting Kafka consumer...")
	go c.consume(ctx)
}

func (c *KafkaConsumer) Stop() {
	logger.Info().Msg("Stopping Kafka consumer...")
	close(c.stopChan)
	<-c.doneChan
	if err := c.reader.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close Kafka reader")
	}
	logger.Info().Msg("Kafka consumer stopped")
}

func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		readCtx, readCancel := context.WithTimeout(ctx, 10*time.Second)
		message, err := c.reader.FetchMessage(readCtx)
		readCancel()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			metrics.RecordKafkaError(serviceName, c.topic, "fetch")
			logger.Error().Err(err).Msg("Error fetching message")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		start := time.Now()
		if err := c.handle(ctx, message); err != nil {
			// stopped while retrying: nothing at or after this offset is committed
			logger.Warn().Err(err).Int64("offset", message.Offset).Msg("Consumer stopped before message was processed")
			return
		}
		if err := c.reader.CommitMessages(ctx, message); err != nil {
			metrics.RecordKafkaError(serviceName, c.topic, "commit")
			logger.Error().Err(err).Msg("Error committing message")
		}
		metrics.RecordKafkaMessageConsumed(serviceName, c.topic, c.groupID, time.Since(start))
	}
}

// handle processes one message, retrying failures with capped exponential
// backoff until they succeed or ctx ends. Committing a later offset would
// also commit this one, so the partition does not advance past a failure.
// Undecodable messages are skipped.
func (c *KafkaConsumer) handle(ctx context.Context, message kafka.Message) error {
	backoff := retry.WithCappedDuration(maxRetryDelay, retry.NewExponential(c.retryBase))
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := c.processMessage(ctx, message)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, errPoisonMessage):
			logger.Error().Err(err).Int64("offset", message.Offset).Msg("Skipping message")
			return nil
		}
		metrics.RecordKafkaError(serviceName, c.topic, "process")
		logger.Error().Err(err).Int64("offset", message.Offset).Int("attempt", attempt).Msg("Error processing message, retrying")
		return retry.RetryableError(err)
	})
}

func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.BillingEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("%w: %v", errPoisonMessage, err)
	}

	logger.Debug().
		Str("event_type", event.EventType).
		Uint("invoice_id", event.InvoiceID).
		Int64("offset", message.Offset).
		Int("partition", message.Partition).
		Msg("Received billing event")

	if err := c.handler.HandleEvent(ctx, &event); err != nil {
		return fmt.Errorf("failed to handle %s event: %w", event.EventType, err)
	}

	return nil
}

func (c *KafkaConsumer) GetStats() kafka.ReaderStats {
	return c.reader.Stats()
}
