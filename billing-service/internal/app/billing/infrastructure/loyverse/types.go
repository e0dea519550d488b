package loyverse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	PricingFixed    = "FIXED"
	PricingVariable = "VARIABLE"
)

// Item is the subset of a catalog item the sync reads. Writes never go
// through this type; see PatchItemPrice.
type Item struct {
	ID          string    `json:"id"`
	Handle      string    `json:"handle"`
	ItemName    string    `json:"item_name"`
	Description string    `json:"description"`
	CategoryID  *string   `json:"category_id"`
	Variants    []Variant `json:"variants"`
	UpdatedAt   string    `json:"updated_at"`
	DeletedAt   *string   `json:"deleted_at"`
}

type Variant struct {
	VariantID          string          `json:"variant_id"`
	ItemID             string          `json:"item_id"`
	SKU                string          `json:"sku"`
	DefaultPricingType string          `json:"default_pricing_type"`
	DefaultPrice       json.RawMessage `json:"default_price"`
	Stores             []VariantStore  `json:"stores"`
}

type VariantStore struct {
	StoreID          string          `json:"store_id"`
	PricingType      string          `json:"pricing_type"`
	Price            json.RawMessage `json:"price"`
	AvailableForSale bool            `json:"available_for_sale"`
}

type ItemsPage struct {
	Items  []Item `json:"items"`
	Cursor string `json:"cursor"`
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type categoriesPage struct {
	Categories []Category `json:"categories"`
	Cursor     string     `json:"cursor"`
}

type Webhook struct {
	ID         string `json:"id"`
	MerchantID string `json:"merchant_id"`
	URL        string `json:"url"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type webhooksPage struct {
	Webhooks []Webhook `json:"webhooks"`
	Cursor   string    `json:"cursor"`
}

// FirstVariant returns the variant whose price mirrors the item price.
func (i *Item) FirstVariant() *Variant {
	if len(i.Variants) == 0 {
		return nil
	}
	return &i.Variants[0]
}

// VariantIDs lists the ids of every variant, in remote order.
func (i *Item) VariantIDs() []string {
	ids := make([]string, 0, len(i.Variants))
	for _, v := range i.Variants {
		if v.VariantID != "" {
			ids = append(ids, v.VariantID)
		}
	}
	return ids
}

// VariablePricing reports whether the price is entered at the register.
func (i *Item) VariablePricing() bool {
	v := i.FirstVariant()
	return v != nil && strings.EqualFold(v.DefaultPricingType, PricingVariable)
}

// Price parses the variant's default price. Missing and null prices are
// zero. Anything that is not a number, or a numeric string, is
// ErrInvalidRemoteData.
func (i *Item) Price() (decimal.Decimal, error) {
	v := i.FirstVariant()
	if v == nil {
		return decimal.Zero, nil
	}
	return parsePrice(v.DefaultPrice)
}

func parsePrice(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, nil
	}

	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, fmt.Errorf("%w: price %s", ErrInvalidRemoteData, text)
		}
		text = strings.TrimSpace(s)
	}

	price, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price %s", ErrInvalidRemoteData, string(raw))
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative price %s", ErrInvalidRemoteData, price)
	}
	return price, nil
}
