package ecommerce

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bundleflow/backend/internal/domain/splitting"
)

// ShopifyLineItem is the wire representation of one order line item.
// Prices travel as decimal strings per the Admin API convention.
type ShopifyLineItem struct {
	ID        int64  `json:"id,omitempty"`
	VariantID int64  `json:"variant_id,omitempty"`
	SKU       string `json:"sku"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	Grams     int    `json:"grams"`
	Taxable   bool   `json:"taxable"`
}

// ShopifyOrder is the wire representation of an order.
type ShopifyOrder struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	LineItems []ShopifyLineItem `json:"line_items"`
}

// ShopifyOrderEnvelope wraps responses from GET orders/{id}.json.
type ShopifyOrderEnvelope struct {
	Order *ShopifyOrder `json:"order"`
}

// ShopifyOrderUpdate is the body for PUT orders/{id}.json.
// Only the id and the replacement line-item list are sent; the store
// keeps every other order field as is.
type ShopifyOrderUpdate struct {
	ID        int64             `json:"id"`
	LineItems []ShopifyLineItem `json:"line_items"`
}

// ShopifyOrderUpdateEnvelope wraps ShopifyOrderUpdate.
type ShopifyOrderUpdateEnvelope struct {
	Order ShopifyOrderUpdate `json:"order"`
}

// ShopifyErrorResponse captures the errors field Shopify returns on failure.
// The value can be a string, a list, or an object keyed by field.
type ShopifyErrorResponse struct {
	Errors json.RawMessage `json:"errors"`
}

// toDomainOrder converts a wire order into the domain model.
func toDomainOrder(o *ShopifyOrder) (*splitting.Order, error) {
	order := &splitting.Order{
		ID:        o.ID,
		Name:      o.Name,
		LineItems: make([]splitting.LineItem, 0, len(o.LineItems)),
	}
	for _, item := range o.LineItems {
		price := decimal.Zero
		if item.Price != "" {
			var err error
			price, err = decimal.NewFromString(item.Price)
			if err != nil {
				return nil, fmt.Errorf("%w: line item %d has malformed price %q",
					splitting.ErrStoreInvalidResponse, item.ID, item.Price)
			}
		}
		order.LineItems = append(order.LineItems, splitting.LineItem{
			ID:        item.ID,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			Title:     item.Title,
			Price:     price,
			Grams:     item.Grams,
			Taxable:   item.Taxable,
			VariantID: item.VariantID,
		})
	}
	return order, nil
}

// fromDomainItems converts domain line items to their wire representation.
func fromDomainItems(items []splitting.LineItem) []ShopifyLineItem {
	wire := make([]ShopifyLineItem, 0, len(items))
	for _, item := range items {
		wire = append(wire, ShopifyLineItem{
			ID:        item.ID,
			VariantID: item.VariantID,
			SKU:       item.SKU,
			Title:     item.Title,
			Quantity:  item.Quantity,
			Price:     item.Price.StringFixed(2),
			Grams:     item.Grams,
			Taxable:   item.Taxable,
		})
	}
	return wire
}
