package splitting

import (
	"github.com/shopspring/decimal"
)

// LineItem represents one entry in an order.
// Price carries the line's unit price as a 2-decimal currency amount;
// decimal.Decimal preserves the exact scale received from the store so
// untouched items round-trip byte-identically.
type LineItem struct {
	// ID is the store-assigned line item identifier (0 for items we create)
	ID int64
	// SKU is the stock-keeping unit
	SKU string
	// Quantity is the ordered quantity (positive)
	Quantity int
	// Title is the display title
	Title string
	// Price is the unit price
	Price decimal.Decimal
	// Grams is the unit weight in grams
	Grams int
	// Taxable indicates whether the item is subject to tax
	Taxable bool
	// VariantID identifies the product variant on the store
	// (0 signals the store must resolve the variant by SKU)
	VariantID int64
}

// Order represents an order as received from the store or the webhook.
type Order struct {
	// ID is the store order identifier
	ID int64
	// Name is the store's display name for the order (e.g. "#1001")
	Name string
	// LineItems is the ordered list of line items
	LineItems []LineItem
}

// SplitResult is the output of Resolve.
type SplitResult struct {
	// NewLineItems is the rewritten line-item list, original order preserved
	NewLineItems []LineItem
	// Changed is true iff at least one input item matched a bundle SKU
	Changed bool
}
