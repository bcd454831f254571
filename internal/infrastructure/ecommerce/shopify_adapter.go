package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bundleflow/backend/internal/domain/splitting"
	"github.com/bundleflow/backend/internal/infrastructure/telemetry"
)

// maxShopifyResponseSize limits the response body size to prevent memory exhaustion
const maxShopifyResponseSize = 10 * 1024 * 1024 // 10MB max response

// ShopifyAdapter implements the splitting.OrderStore port against the
// Shopify Admin REST API.
type ShopifyAdapter struct {
	config     *ShopifyConfig
	httpClient *http.Client
}

// NewShopifyAdapter creates a new Shopify adapter with the given configuration.
func NewShopifyAdapter(config *ShopifyConfig) (*ShopifyAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ShopifyAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// GetOrder fetches one order by its store identifier.
func (a *ShopifyAdapter) GetOrder(ctx context.Context, orderID int64) (*splitting.Order, error) {
	ctx, span := telemetry.StartClientSpan(ctx, "shopify", "get_order")
	defer span.End()
	telemetry.SetAttributes(span, "order_id", orderID)

	path := fmt.Sprintf("/admin/api/%s/orders/%d.json", a.config.APIVersion, orderID)
	respBody, err := a.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var envelope ShopifyOrderEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", splitting.ErrStoreInvalidResponse, err)
	}
	if envelope.Order == nil {
		return nil, splitting.ErrStoreInvalidResponse
	}

	return toDomainOrder(envelope.Order)
}

// UpdateLineItems replaces the order's full line-item list on the store.
func (a *ShopifyAdapter) UpdateLineItems(ctx context.Context, orderID int64, items []splitting.LineItem) error {
	ctx, span := telemetry.StartClientSpan(ctx, "shopify", "update_order")
	defer span.End()
	telemetry.SetAttributes(span, "order_id", orderID, "item_count", len(items))

	body := ShopifyOrderUpdateEnvelope{
		Order: ShopifyOrderUpdate{
			ID:        orderID,
			LineItems: fromDomainItems(items),
		},
	}

	path := fmt.Sprintf("/admin/api/%s/orders/%d.json", a.config.APIVersion, orderID)
	if _, err := a.doRequest(ctx, http.MethodPut, path, body); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}

// doRequest performs an HTTP request against the Admin API.
func (a *ShopifyAdapter) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("shopify: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(bodyBytes)
	}

	url := a.config.BaseURL() + path
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to create request: %w", err)
	}

	req.Header.Set("X-Shopify-Access-Token", a.config.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", splitting.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxShopifyResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, splitting.ErrOrderNotFound
	}
	if resp.StatusCode >= 400 {
		var errResp ShopifyErrorResponse
		if json.Unmarshal(body, &errResp) == nil && len(errResp.Errors) > 0 {
			return nil, fmt.Errorf("%w: HTTP %d: %s",
				splitting.ErrStoreRequestFailed, resp.StatusCode, string(errResp.Errors))
		}
		return nil, fmt.Errorf("%w: HTTP %d", splitting.ErrStoreRequestFailed, resp.StatusCode)
	}

	return body, nil
}

// Ensure ShopifyAdapter implements the OrderStore port
var _ splitting.OrderStore = (*ShopifyAdapter)(nil)
