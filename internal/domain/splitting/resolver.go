package splitting

import (
	"github.com/shopspring/decimal"
)

// pricePrecision is the number of decimal places for currency amounts.
const pricePrecision = 2

// Resolve rewrites a line-item list so that every item whose SKU is a
// bundle key in mapping is replaced, in place, by one line item per
// component. Non-bundle items pass through unchanged.
//
// Resolve is a pure function: it never mutates its inputs and is
// deterministic for a given mapping, so redelivered webhooks resolving
// the same order produce identical results. Combined with the mapping's
// disjointness invariant (BundleMapping.Validate), resolving the output
// of a previous Resolve is a no-op.
//
// For each emitted component:
//   - Quantity = QuantityPerBundle * original quantity
//   - Price = original price / number of components, rounded to 2 decimals
//     independently per component (the sum may differ from the original
//     price by a rounding remainder, which is accepted)
//   - Grams and Taxable are inherited from the bundle item
//   - ID and VariantID are left zero so the store resolves variants by SKU
func Resolve(items []LineItem, mapping BundleMapping) SplitResult {
	result := SplitResult{
		NewLineItems: make([]LineItem, 0, len(items)),
	}

	for _, item := range items {
		components, ok := mapping.Lookup(item.SKU)
		if !ok {
			result.NewLineItems = append(result.NewLineItems, item)
			continue
		}

		result.Changed = true
		componentPrice := item.Price.DivRound(decimal.NewFromInt(int64(len(components))), pricePrecision)
		for _, c := range components {
			result.NewLineItems = append(result.NewLineItems, LineItem{
				SKU:      c.SKU,
				Quantity: c.QuantityPerBundle * item.Quantity,
				Title:    c.Title,
				Price:    componentPrice,
				Grams:    item.Grams,
				Taxable:  item.Taxable,
			})
		}
	}

	return result
}
