package repository

import (
	"context"
	"errors"
	"fmt"

	"bodegaclick/billing-service/internal/app/billing/entity"

	"gorm.io/gorm"
)

type webhookRepository struct {
	db *gorm.DB
}

func NewWebhookRepository(db *gorm.DB) WebhookRepository {
	return &webhookRepository{db: db}
}

func (r *webhookRepository) Create(ctx context.Context, webhook *entity.Webhook) error {
	if err := r.db.WithContext(ctx).Create(webhook).Error; err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}
	return nil
}

func (r *webhookRepository) List(ctx context.Context) ([]entity.Webhook, error) {
	var webhooks []entity.Webhook
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&webhooks).Error; err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	return webhooks, nil
}

func (r *webhookRepository) GetByRemoteID(ctx context.Context, remoteID string) (*entity.Webhook, error) {
	var webhook entity.Webhook
	if err := r.db.WithContext(ctx).First(&webhook, "remote_id = ?", remoteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWebhookNotFound
		}
		return nil, fmt.Errorf("failed to get webhook: %w", err)
	}
	return &webhook, nil
}

func (r *webhookRepository) DeleteByRemoteID(ctx context.Context, remoteID string) error {
	result := r.db.WithContext(ctx).Delete(&entity.Webhook{}, "remote_id = ?", remoteID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete webhook: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrWebhookNotFound
	}
	return nil
}
