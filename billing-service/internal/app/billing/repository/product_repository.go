package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/pkg/metrics"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	serviceName      = "billing-service"
	defaultPageLimit = 50
	maxPageLimit     = 500
)

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "products").ObserveDuration()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpInsert)
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Save writes every column of the product.
func (r *productRepository) Save(ctx context.Context, product *entity.Product) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "products").ObserveDuration()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error; err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

// UpdateColumns writes only the given columns.
func (r *productRepository) UpdateColumns(ctx context.Context, id uint, columns map[string]interface{}) error {
	if len(columns) == 0 {
		return nil
	}
	defer metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "products").ObserveDuration()

	result := r.db.WithContext(ctx).
		Model(&entity.Product{}).
		Where("id = ?", id).
		Updates(columns)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return fmt.Errorf("failed to update product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) UpdateStock(ctx context.Context, id uint, stock decimal.Decimal, at time.Time) error {
	return r.UpdateColumns(ctx, id, map[string]interface{}{
		"stock":            stock,
		"stock_updated_at": at,
	})
}

func (r *productRepository) GetByID(ctx context.Context, id uint) (*entity.Product, error) {
	return r.first(ctx, r.db, "id = ?", id)
}

// GetByRemoteID loads the product with its variants.
func (r *productRepository) GetByRemoteID(ctx context.Context, remoteID string) (*entity.Product, error) {
	return r.first(ctx, r.db.Preload("Variants", func(db *gorm.DB) *gorm.DB {
		return db.Order("position, id")
	}), "remote_id = ?", remoteID)
}

// GetByVariantID resolves any variant of an item to its product.
func (r *productRepository) GetByVariantID(ctx context.Context, variantID string) (*entity.Product, error) {
	if variantID == "" {
		return nil, ErrProductNotFound
	}
	return r.first(ctx, r.db,
		"remote_variant_id = @id OR id IN (SELECT product_id FROM product_variants WHERE variant_id = @id)",
		sql.Named("id", variantID))
}

// ReplaceVariants stores variantIDs as the full variant set of a product.
// A variant that belonged to another product moves to this one.
func (r *productRepository) ReplaceVariants(ctx context.Context, productID uint, variantIDs []string) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "product_variants").ObserveDuration()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Where("product_id = ?", productID)
		if len(variantIDs) > 0 {
			del = del.Or("variant_id IN ?", variantIDs)
		}
		if err := del.Delete(&entity.ProductVariant{}).Error; err != nil {
			return err
		}
		if len(variantIDs) == 0 {
			return nil
		}
		rows := make([]entity.ProductVariant, 0, len(variantIDs))
		for i, id := range variantIDs {
			rows = append(rows, entity.ProductVariant{ProductID: productID, VariantID: id, Position: i})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return fmt.Errorf("failed to replace product variants: %w", err)
	}
	return nil
}

func (r *productRepository) first(ctx context.Context, db *gorm.DB, query string, args ...interface{}) (*entity.Product, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "products").ObserveDuration()

	var product entity.Product
	result := db.WithContext(ctx).Where(query, args...).First(&product)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get product: %w", result.Error)
	}
	return &product, nil
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*entity.Product, error) {
	out := make(map[uint]*entity.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "products").ObserveDuration()

	var products []entity.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

// List returns one page of products ordered by name, plus the total match count.
func (r *productRepository) List(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, int64, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "products").ObserveDuration()

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := r.db.WithContext(ctx).Model(&entity.Product{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(category) LIKE ? OR remote_id = ?", pattern, pattern, search)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var products []entity.Product
	if err := query.Order("name ASC").Order("id ASC").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

func (r *productRepository) ListAll(ctx context.Context) ([]entity.Product, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "products").ObserveDuration()

	var products []entity.Product
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&products).Error; err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}
