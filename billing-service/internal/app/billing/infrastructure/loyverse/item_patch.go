package loyverse

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// PatchItemPrice rewrites the price fields of a raw item document and leaves
// everything else as it came from the API. Only variants[*].default_price and
// variants[*].stores[*].price change; unknown fields survive untouched
// because they are never decoded.
func PatchItemPrice(raw []byte, price decimal.Decimal) ([]byte, error) {
	var item map[string]json.RawMessage
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("%w: item is not an object: %v", ErrInvalidRemoteData, err)
	}

	rawVariants, ok := item["variants"]
	if !ok {
		return nil, fmt.Errorf("%w: item has no variants", ErrInvalidRemoteData)
	}

	var variants []map[string]json.RawMessage
	if err := json.Unmarshal(rawVariants, &variants); err != nil {
		return nil, fmt.Errorf("%w: variants: %v", ErrInvalidRemoteData, err)
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("%w: item has no variants", ErrInvalidRemoteData)
	}

	priceJSON := json.RawMessage(price.StringFixed(2))

	for i, variant := range variants {
		variant["default_price"] = priceJSON

		rawStores, ok := variant["stores"]
		if !ok {
			continue
		}
		var stores []map[string]json.RawMessage
		if err := json.Unmarshal(rawStores, &stores); err != nil {
			return nil, fmt.Errorf("%w: variant %d stores: %v", ErrInvalidRemoteData, i, err)
		}
		for _, store := range stores {
			store["price"] = priceJSON
		}
		encoded, err := json.Marshal(stores)
		if err != nil {
			return nil, err
		}
		variant["stores"] = encoded
	}

	encoded, err := json.Marshal(variants)
	if err != nil {
		return nil, err
	}
	item["variants"] = encoded

	return json.Marshal(item)
}
