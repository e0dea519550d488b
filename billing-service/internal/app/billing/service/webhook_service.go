package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/billing-service/internal/app/billing/infrastructure"
	"bodegaclick/billing-service/internal/app/billing/infrastructure/loyverse"
	"bodegaclick/billing-service/internal/app/billing/repository"
	"bodegaclick/pkg/logger"
	"bodegaclick/pkg/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type WebhookOptions struct {
	Secret     string
	TestMode   bool
	MerchantID string
	StoreID    string // when set, inventory levels of other stores are skipped
}

// WebhookService manages remote webhook registrations and handles the
// deliveries they produce.
type WebhookService struct {
	webhooks   repository.WebhookRepository
	products   repository.ProductRepository
	client     infrastructure.CatalogClient
	syncer     CatalogSyncer
	dedup      repository.DeliveryDeduplicator
	deliveries repository.DeliveryLog
	notifier   infrastructure.Notifier
	events     infrastructure.EventPublisher
	opts       WebhookOptions
	now        func() time.Time
}

func NewWebhookService(
	webhooks repository.WebhookRepository,
	products repository.ProductRepository,
	client infrastructure.CatalogClient,
	syncer CatalogSyncer,
	dedup repository.DeliveryDeduplicator,
	deliveries repository.DeliveryLog,
	notifier infrastructure.Notifier,
	events infrastructure.EventPublisher,
	opts WebhookOptions,
) *WebhookService {
	return &WebhookService{
		webhooks:   webhooks,
		products:   products,
		client:     client,
		syncer:     syncer,
		dedup:      dedup,
		deliveries: deliveries,
		notifier:   notifier,
		events:     events,
		opts:       opts,
		now:        time.Now,
	}
}

// Create registers the webhook remotely and stores it locally only after the
// remote side accepted it.
func (s *WebhookService) Create(ctx context.Context, req *entity.CreateWebhookRequest) (*entity.Webhook, error) {
	if err := validateWebhookURL(req.URL); err != nil {
		return nil, err
	}
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWebhookType, req.Type)
	}

	remote, err := s.client.CreateWebhook(ctx, req.URL, string(req.Type))
	if err != nil {
		return nil, fmt.Errorf("failed to register webhook: %w", err)
	}

	webhook := fromRemoteWebhook(remote)
	if webhook.URL == "" {
		webhook.URL = req.URL
	}
	if webhook.Type == "" {
		webhook.Type = req.Type
	}
	if err := s.webhooks.Create(ctx, webhook); err != nil {
		logger.Error().Err(err).Str("remote_id", remote.ID).Msg("Webhook registered remotely but not stored locally")
		return nil, fmt.Errorf("failed to store webhook: %w", err)
	}

	logger.Info().Str("remote_id", webhook.RemoteID).Str("type", string(webhook.Type)).Msg("Webhook registered")
	return webhook, nil
}

func validateWebhookURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidWebhookURL, raw)
	}
	return nil
}

func fromRemoteWebhook(remote *loyverse.Webhook) *entity.Webhook {
	status := entity.WebhookStatus(remote.Status)
	if status != entity.WebhookStatusDisabled {
		status = entity.WebhookStatusEnabled
	}
	return &entity.Webhook{
		RemoteID:   remote.ID,
		MerchantID: remote.MerchantID,
		URL:        remote.URL,
		Type:       entity.WebhookEventType(remote.Type),
		Status:     status,
	}
}

// List returns the remote registrations joined with local rows. Local rows
// the remote side no longer knows are returned as DISABLED.
func (s *WebhookService) List(ctx context.Context) ([]entity.Webhook, error) {
	remote, err := s.client.ListWebhooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list remote webhooks: %w", err)
	}
	local, err := s.webhooks.List(ctx)
	if err != nil {
		return nil, err
	}

	byRemoteID := make(map[string]entity.Webhook, len(local))
	for _, w := range local {
		byRemoteID[w.RemoteID] = w
	}

	result := make([]entity.Webhook, 0, len(remote)+len(local))
	for i := range remote {
		merged := fromRemoteWebhook(&remote[i])
		if w, ok := byRemoteID[remote[i].ID]; ok {
			merged.ID = w.ID
			merged.CreatedAt = w.CreatedAt
			delete(byRemoteID, remote[i].ID)
		}
		result = append(result, *merged)
	}
	for _, w := range local {
		if _, orphan := byRemoteID[w.RemoteID]; orphan {
			w.Status = entity.WebhookStatusDisabled
			result = append(result, w)
		}
	}
	return result, nil
}

// Delete removes the registration remotely, then locally. A registration
// missing on one side is still removed from the other.
func (s *WebhookService) Delete(ctx context.Context, remoteID string) error {
	remoteMissing := false
	if err := s.client.DeleteWebhook(ctx, remoteID); err != nil {
		if !errors.Is(err, loyverse.ErrNotFound) {
			return fmt.Errorf("failed to delete remote webhook: %w", err)
		}
		remoteMissing = true
	}

	if err := s.webhooks.DeleteByRemoteID(ctx, remoteID); err != nil {
		if errors.Is(err, repository.ErrWebhookNotFound) {
			if remoteMissing {
				return ErrWebhookNotFound
			}
			return nil
		}
		return err
	}
	return nil
}

// TestFire posts a fabricated, unsigned delivery of the registration's type
// to its URL and returns the receiver's HTTP status.
func (s *WebhookService) TestFire(ctx context.Context, remoteID string) (int, error) {
	webhook, err := s.webhooks.GetByRemoteID(ctx, remoteID)
	if err != nil {
		if errors.Is(err, repository.ErrWebhookNotFound) {
			return 0, ErrWebhookNotFound
		}
		return 0, err
	}

	payload, err := SamplePayload(webhook.Type, s.opts.MerchantID, s.now())
	if err != nil {
		return 0, err
	}
	return s.client.PostTestDelivery(ctx, webhook.URL, payload)
}

// SamplePayload builds a delivery body shaped like the given event type.
func SamplePayload(eventType entity.WebhookEventType, merchantID string, at time.Time) ([]byte, error) {
	body := map[string]interface{}{
		"merchant_id": merchantID,
		"type":        string(eventType),
		"created_at":  at.UTC().Format(time.RFC3339),
	}
	switch eventType {
	case entity.WebhookInventoryLevelsUpdate:
		body["inventory_levels"] = []entity.InventoryLevel{{
			VariantID: uuid.NewString(),
			StoreID:   uuid.NewString(),
			InStock:   decimal.NewFromInt(10),
			UpdatedAt: at.UTC().Format(time.RFC3339),
		}}
	case entity.WebhookItemsUpdate:
		body["items"] = []interface{}{}
	case entity.WebhookCustomersUpdate:
		body["customers"] = []interface{}{}
	case entity.WebhookReceiptsUpdate:
		body["receipts"] = []interface{}{}
	case entity.WebhookShiftsCreate:
		body["shifts"] = []interface{}{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidWebhookType, eventType)
	}
	return json.Marshal(body)
}

// HandleDelivery verifies and applies one inbound delivery. A rejected
// signature returns ErrSignatureInvalid and the payload is never parsed.
// Every delivery is recorded in the delivery log, best effort.
func (s *WebhookService) HandleDelivery(ctx context.Context, body []byte, signature string, isTest bool) (*entity.DeliveryResult, error) {
	log := logger.Operation("webhook_delivery")
	result := &entity.DeliveryResult{}
	delivery := &entity.WebhookDelivery{
		ID:         uuid.NewString(),
		Body:       string(body),
		Test:       isTest,
		ReceivedAt: s.now().UTC(),
	}
	defer s.record(ctx, log, delivery, result)

	if !(isTest && s.opts.TestMode) {
		if !VerifySignature(s.opts.Secret, body, signature) {
			result.Outcome = entity.DeliveryRejected
			log.Warn().Bool("test", isTest).Str("outcome", result.Outcome).Msg("Webhook signature rejected")
			return result, ErrSignatureInvalid
		}
		delivery.SignatureValid = true
	}

	var payload entity.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil || payload.Type == "" {
		result.Outcome = entity.DeliveryInvalid
		return result, ErrInvalidPayload
	}
	result.Type = payload.Type
	delivery.Type = payload.Type
	delivery.MerchantID = payload.MerchantID

	key := deliveryKey(body)
	first, err := s.dedup.MarkSeen(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("Delivery dedup unavailable, processing anyway")
		first = true
	}
	if !first {
		result.Outcome = entity.DeliveryDuplicate
		return result, nil
	}

	switch entity.WebhookEventType(payload.Type) {
	case entity.WebhookInventoryLevelsUpdate:
		if err := s.applyInventory(ctx, log, payload.InventoryLevels, result); err != nil {
			result.Outcome = entity.DeliveryFailed
			delivery.Error = err.Error()
			if ferr := s.dedup.Forget(ctx, key); ferr != nil {
				log.Warn().Err(ferr).Msg("Failed to release delivery key")
			}
			return result, err
		}
		result.Outcome = entity.DeliveryProcessed
	default:
		result.Outcome = entity.DeliveryIgnored
	}
	return result, nil
}

// RecentDeliveries returns the newest entries of the delivery log.
func (s *WebhookService) RecentDeliveries(ctx context.Context, limit int64) ([]entity.WebhookDelivery, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.deliveries.Recent(ctx, limit)
}

func deliveryKey(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// applyInventory sets the stock of every matched product. Unknown variants
// trigger one catalog fetch and a second matching attempt. The mirror keeps
// one stock figure per product, so without a configured store the levels are
// applied in delivery order and the last store listed for a variant wins.
func (s *WebhookService) applyInventory(ctx context.Context, log zerolog.Logger, levels []entity.InventoryLevel, result *entity.DeliveryResult) error {
	var unmatched []entity.InventoryLevel
	for _, level := range levels {
		if s.opts.StoreID != "" && level.StoreID != s.opts.StoreID {
			result.Skipped++
			continue
		}
		matched, err := s.applyLevel(ctx, level, result)
		if err != nil {
			return err
		}
		if !matched {
			unmatched = append(unmatched, level)
		}
	}
	if len(unmatched) == 0 {
		return nil
	}

	log.Info().Int("unmatched", len(unmatched)).Msg("Unknown variants in delivery, refreshing catalog")
	if _, err := s.syncer.Run(ctx, true); err != nil {
		log.Warn().Err(err).Msg("Catalog refresh for unknown variants failed")
	}

	for _, level := range unmatched {
		matched, err := s.applyLevel(ctx, level, result)
		if err != nil {
			return err
		}
		if !matched {
			result.Unmatched = append(result.Unmatched, level.VariantID)
			log.Warn().Str("variant_id", level.VariantID).Str("outcome", "unmatched").Msg("No product for variant")
		}
	}
	return nil
}

func (s *WebhookService) applyLevel(ctx context.Context, level entity.InventoryLevel, result *entity.DeliveryResult) (bool, error) {
	if level.VariantID == "" {
		return false, nil
	}
	product, err := s.products.GetByVariantID(ctx, level.VariantID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := s.products.UpdateStock(ctx, product.ID, level.InStock, s.now()); err != nil {
		return false, err
	}
	result.Updated++

	stock := level.InStock
	s.notifier.Broadcast(entity.Notification{
		Type:      entity.NotificationInventoryUpdate,
		Product:   product.Name,
		ProductID: product.ID,
		Stock:     &stock,
		Message:   fmt.Sprintf("Stock de %s actualizado a %s", product.Name, stock.String()),
	})

	payload, err := json.Marshal(level)
	if err != nil {
		logger.Warn().Err(err).Uint("product_id", product.ID).Msg("Failed to encode stock event")
		return true, nil
	}
	event := &entity.BillingEvent{EventType: entity.EventStockUpdated, ProductID: product.ID, Payload: payload}
	if err := s.events.PublishEvent(ctx, event); err != nil {
		logger.Warn().Err(err).Uint("product_id", product.ID).Msg("Failed to publish stock event")
	}
	return true, nil
}

func (s *WebhookService) record(ctx context.Context, log zerolog.Logger, delivery *entity.WebhookDelivery, result *entity.DeliveryResult) {
	delivery.Outcome = result.Outcome
	metrics.RecordWebhookDelivery(delivery.Type, result.Outcome)
	if err := s.deliveries.Record(ctx, delivery); err != nil {
		log.Warn().Err(err).Msg("Failed to record webhook delivery")
	}
}
