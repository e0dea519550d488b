package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/pkg/metrics"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "invoices").ObserveDuration()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(invoice).Error; err != nil {
			return err
		}
		for i := range invoice.Lines {
			invoice.Lines[i].InvoiceID = invoice.ID
		}
		if len(invoice.Lines) > 0 {
			if err := tx.Omit(clause.Associations).Create(&invoice.Lines).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateInvoiceNumber
		}
		metrics.RecordDbError(serviceName, metrics.DbOpInsert)
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// GetByID loads the invoice with its rate and lines (with products).
func (r *invoiceRepository) GetByID(ctx context.Context, id uint) (*entity.Invoice, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "invoices").ObserveDuration()

	var invoice entity.Invoice
	err := r.db.WithContext(ctx).
		Preload("ExchangeRate").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Lines.Product").
		First(&invoice, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return &invoice, nil
}

// List returns invoices newest first, without lines.
func (r *invoiceRepository) List(ctx context.Context, limit, offset int) ([]entity.Invoice, int64, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "invoices").ObserveDuration()

	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&entity.Invoice{}).Count(&total).Error; err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	var invoices []entity.Invoice
	err := r.db.WithContext(ctx).
		Preload("ExchangeRate").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&invoices).Error
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, total, nil
}

func (r *invoiceRepository) MarkSynced(ctx context.Context, id uint) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "invoices").ObserveDuration()

	result := r.db.WithContext(ctx).
		Model(&entity.Invoice{}).
		Where("id = ?", id).
		Update("synced", true)
	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return fmt.Errorf("failed to mark invoice synced: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// ExistsCreatedSince reports whether any invoice was created at or after since.
func (r *invoiceRepository) ExistsCreatedSince(ctx context.Context, since time.Time) (bool, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "invoices").ObserveDuration()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Invoice{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return false, fmt.Errorf("failed to check recent invoices: %w", err)
	}
	return count > 0, nil
}
