package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bundleflow/backend/internal/domain/splitting"
)

// OrderWebhookRequest mirrors the orders/create webhook payload. Shopify
// sends the full order object; only the fields needed for bundle resolution
// are bound here, everything else is ignored.
type OrderWebhookRequest struct {
	ID        int64             `json:"id" binding:"required"`
	Name      string            `json:"name"`
	LineItems []WebhookLineItem `json:"line_items" binding:"required,dive"`
}

// WebhookLineItem is a single line item in the webhook payload.
// Price arrives as a decimal string, e.g. "29.99".
type WebhookLineItem struct {
	ID        int64  `json:"id"`
	VariantID int64  `json:"variant_id"`
	SKU       string `json:"sku"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity" binding:"min=1"`
	Price     string `json:"price"`
	Grams     int    `json:"grams"`
	Taxable   bool   `json:"taxable"`
}

// ToDomain converts the webhook payload to a domain order.
// A malformed price string is a payload error, not a server error.
func (r *OrderWebhookRequest) ToDomain() (*splitting.Order, error) {
	items := make([]splitting.LineItem, 0, len(r.LineItems))
	for i, li := range r.LineItems {
		price := decimal.Zero
		if li.Price != "" {
			parsed, err := decimal.NewFromString(li.Price)
			if err != nil {
				return nil, fmt.Errorf("line_items[%d].price %q is not a valid decimal", i, li.Price)
			}
			price = parsed
		}
		items = append(items, splitting.LineItem{
			ID:        li.ID,
			VariantID: li.VariantID,
			SKU:       li.SKU,
			Title:     li.Title,
			Quantity:  li.Quantity,
			Price:     price,
			Grams:     li.Grams,
			Taxable:   li.Taxable,
		})
	}
	return &splitting.Order{
		ID:        r.ID,
		Name:      r.Name,
		LineItems: items,
	}, nil
}

// SplitResultResponse reports the outcome of processing one order.
type SplitResultResponse struct {
	OrderID     int64  `json:"order_id"`
	OrderName   string `json:"order_name,omitempty"`
	Outcome     string `json:"outcome"`
	ItemsBefore int    `json:"items_before"`
	ItemsAfter  int    `json:"items_after"`
}

// ConfigResponse describes the effective runtime configuration.
// Secrets are reported as presence booleans, never as values.
type ConfigResponse struct {
	BundleSKUs              []string `json:"bundle_skus"`
	CredentialsConfigured   bool     `json:"credentials_configured"`
	WebhookSecretConfigured bool     `json:"webhook_secret_configured"`
	DedupEnabled            bool     `json:"dedup_enabled"`
	DedupBackend            string   `json:"dedup_backend"`
}
