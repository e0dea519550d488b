// Package pricing computes sale prices from purchase costs, exchange rates
// and markups. It has no I/O; callers supply the rate.
package pricing

import (
	"errors"

	"bodegaclick/billing-service/internal/app/billing/entity"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidUnits    = errors.New("units per package must be greater than zero")
	ErrNegativeInput   = errors.New("cost, rate and markup must not be negative")
	ErrNoRateAvailable = errors.New("no exchange rate available")
	ErrNoCost          = errors.New("product has no purchase cost")
)

var hundred = decimal.NewFromInt(100)

// Config carries the defaults of the formula.
type Config struct {
	DefaultMarkup   decimal.Decimal
	DefaultRateType entity.RateType
	VATPercent      decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		DefaultMarkup:   decimal.NewFromInt(30),
		DefaultRateType: entity.RateTypeOfficial,
		VATPercent:      decimal.NewFromInt(16),
	}
}

// Round rounds half-up to two decimal places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ComputeSalePrice returns round((costUSD * rate / units) * (1 + markup/100), 2).
func ComputeSalePrice(costUSD decimal.Decimal, units int, rate, markup decimal.Decimal) (decimal.Decimal, error) {
	raw, err := rawSalePrice(costUSD, units, rate, markup)
	if err != nil {
		return decimal.Zero, err
	}
	return Round(raw), nil
}

// LineTotal returns round(quantity * unitPrice, 2).
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return Round(quantity.Mul(unitPrice))
}

func rawSalePrice(cost decimal.Decimal, units int, rate, markup decimal.Decimal) (decimal.Decimal, error) {
	if units <= 0 {
		return decimal.Zero, ErrInvalidUnits
	}
	if cost.IsNegative() || rate.IsNegative() || markup.IsNegative() {
		return decimal.Zero, ErrNegativeInput
	}
	perUnit := cost.Mul(rate).Div(decimal.NewFromInt(int64(units)))
	return perUnit.Mul(decimal.NewFromInt(1).Add(markup.Div(hundred))), nil
}

type Calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

func (c *Calculator) Config() Config {
	return c.cfg
}

// RateTypeFor returns the product's rate type, or the configured default.
func (c *Calculator) RateTypeFor(p *entity.Product) entity.RateType {
	if p.RateType.Valid() {
		return p.RateType
	}
	return c.cfg.DefaultRateType
}

// ProductSalePrice computes the sale price of a product.
//
// The USD purchase cost is used with the given rate. Products that only carry
// the legacy local cost fall back to it with its own unit count; the local
// cost is already in local currency, so no rate is applied. VAT is added
// when the product asks for it. Rounding happens once, at the end.
func (c *Calculator) ProductSalePrice(p *entity.Product, rate decimal.Decimal) (decimal.Decimal, error) {
	markup := p.Markup

	var (
		raw decimal.Decimal
		err error
	)
	switch {
	case p.PurchaseCostUSD.Valid && p.PurchaseCostUSD.Decimal.IsPositive():
		if !rate.IsPositive() {
			return decimal.Zero, ErrNoRateAvailable
		}
		raw, err = rawSalePrice(p.PurchaseCostUSD.Decimal, p.UnitsPerPackage, rate, markup)
	case p.PurchaseCost.IsPositive():
		raw, err = rawSalePrice(p.PurchaseCost, p.PurchaseUnits, decimal.NewFromInt(1), markup)
	default:
		return decimal.Zero, ErrNoCost
	}
	if err != nil {
		return decimal.Zero, err
	}

	if p.ApplyVAT {
		raw = raw.Mul(decimal.NewFromInt(1).Add(c.cfg.VATPercent.Div(hundred)))
	}
	return Round(raw), nil
}

// NeedsRate reports whether the product's price depends on an exchange rate.
func NeedsRate(p *entity.Product) bool {
	return p.PurchaseCostUSD.Valid && p.PurchaseCostUSD.Decimal.IsPositive()
}
