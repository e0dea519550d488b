package repository

import (
	"errors"

	"bodegaclick/billing-service/internal/app/billing/entity"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// AutoMigrate creates or updates the billing tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Product{},
		&entity.ProductVariant{},
		&entity.ExchangeRate{},
		&entity.Invoice{},
		&entity.InvoiceLine{},
		&entity.Webhook{},
	)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
