package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appsplitting "github.com/bundleflow/backend/internal/application/splitting"
	"github.com/bundleflow/backend/internal/domain/splitting"
	"github.com/bundleflow/backend/internal/infrastructure/cache"
	"github.com/bundleflow/backend/internal/infrastructure/ecommerce"
	"github.com/bundleflow/backend/internal/infrastructure/logger"
	"github.com/bundleflow/backend/internal/interfaces/http/middleware"
)

// stubStore is a minimal OrderStore for handler tests.
type stubStore struct {
	order     *splitting.Order
	getErr    error
	updateErr error
	updates   [][]splitting.LineItem
}

func (s *stubStore) GetOrder(ctx context.Context, orderID int64) (*splitting.Order, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.order, nil
}

func (s *stubStore) UpdateLineItems(ctx context.Context, orderID int64, items []splitting.LineItem) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates = append(s.updates, items)
	return nil
}

func testMapping(t *testing.T) splitting.BundleMapping {
	t.Helper()
	mapping := splitting.BundleMapping{
		"CANDLE-4PACK": {
			{SKU: "CANDLE", Title: "Single Candle", QuantityPerBundle: 4},
		},
	}
	require.NoError(t, mapping.Validate())
	return mapping
}

func newWebhookRouter(t *testing.T, store *stubStore, shopifyCfg *ecommerce.ShopifyConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := appsplitting.NewOrderSplitService(store, cache.NewInMemoryDedupStore(), testMapping(t), time.Hour, zap.NewNop())
	h := NewWebhookHandler(svc, shopifyCfg)

	engine := gin.New()
	engine.POST("/webhooks/orders/create", h.HandleOrderCreate)
	return engine
}

func orderPayload(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"id":   450789469,
		"name": "#1001",
		"line_items": []map[string]interface{}{
			{
				"id":       669751112,
				"sku":      "CANDLE-4PACK",
				"title":    "Candle Four Pack",
				"quantity": 1,
				"price":    "40.00",
				"grams":    800,
				"taxable":  true,
			},
		},
	})
	require.NoError(t, err)
	return body
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestHandleOrderCreate(t *testing.T) {
	t.Run("splits bundle order and reports outcome", func(t *testing.T) {
		store := &stubStore{}
		router := newWebhookRouter(t, store, nil)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader(string(orderPayload(t))))
		req.Header.Set("X-Shopify-Webhook-Id", "delivery-1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"outcome":"updated"`)

		require.Len(t, store.updates, 1)
		items := store.updates[0]
		require.Len(t, items, 1)
		assert.Equal(t, "CANDLE", items[0].SKU)
		assert.Equal(t, 4, items[0].Quantity)
		assert.True(t, items[0].Price.Equal(decimal.RequireFromString("40.00")))
	})

	t.Run("order without bundles is a no-op", func(t *testing.T) {
		store := &stubStore{}
		router := newWebhookRouter(t, store, nil)

		body, err := json.Marshal(map[string]interface{}{
			"id": 99,
			"line_items": []map[string]interface{}{
				{"sku": "MUG", "quantity": 1, "price": "9.99"},
			},
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader(string(body)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"outcome":"no_change"`)
		assert.Empty(t, store.updates)
	})

	t.Run("redelivered webhook is deduplicated", func(t *testing.T) {
		store := &stubStore{}
		router := newWebhookRouter(t, store, nil)

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader(string(orderPayload(t))))
			req.Header.Set("X-Shopify-Webhook-Id", "delivery-same")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			require.Equal(t, http.StatusOK, w.Code)

			if i == 1 {
				assert.Contains(t, w.Body.String(), `"outcome":"duplicate"`)
			}
		}
		assert.Len(t, store.updates, 1)
	})

	t.Run("valid signature is accepted", func(t *testing.T) {
		cfg := &ecommerce.ShopifyConfig{WebhookSecret: "whsec_test"}
		router := newWebhookRouter(t, &stubStore{}, cfg)

		body := orderPayload(t)
		req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader(string(body)))
		req.Header.Set("X-Shopify-Hmac-Sha256", sign("whsec_test", body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid signature is rejected with 401", func(t *testing.T) {
		cfg := &ecommerce.ShopifyConfig{WebhookSecret: "whsec_test"}
		store := &stubStore{}
		router := newWebhookRouter(t, store, cfg)

		body := orderPayload(t)
		req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader(string(body)))
		req.Header.Set("X-Shopify-Hmac-Sha256", sign("wrong-secret", body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_UNAUTHORIZED")
		assert.Empty(t, store.updates)
	})

	t.Run("signature failure logs with request-scoped fields", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)

		cfg := &ecommerce.ShopifyConfig{WebhookSecret: "whsec_test"}
		svc := appsplitting.NewOrderSplitService(&stubStore{}, cache.NewInMemoryDedupStore(), testMapping(t), time.Hour, zap.NewNop())
		h := NewWebhookHandler(svc, cfg)

		gin.SetMode(gin.TestMode)
		engine := gin.New()
		engine.Use(middleware.RequestID())
		engine.Use(logger.GinMiddleware(zap.New(core)))
		engine.POST("/webhooks/orders/create", h.HandleOrderCreate)

		body := orderPayload(t)
		req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader(string(body)))
		req.Header.Set("X-Shopify-Hmac-Sha256", sign("wrong-secret", body))
		req.Header.Set("X-Shopify-Webhook-Id", "delivery-log-1")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusUnauthorized, w.Code)

		entries := logs.FilterMessage("webhook signature verification failed").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, "delivery-log-1", fields["delivery_id"])
		assert.NotEmpty(t, fields["request_id"])
	})

	t.Run("missing signature with secret configured is rejected", func(t *testing.T) {
		cfg := &ecommerce.ShopifyConfig{WebhookSecret: "whsec_test"}
		router := newWebhookRouter(t, &stubStore{}, cfg)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader(string(orderPayload(t))))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid JSON is rejected with 400", func(t *testing.T) {
		router := newWebhookRouter(t, &stubStore{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader("{not json"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_INVALID_JSON")
	})

	t.Run("missing order id fails validation", func(t *testing.T) {
		router := newWebhookRouter(t, &stubStore{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader(`{"line_items":[]}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("zero quantity line item fails validation", func(t *testing.T) {
		router := newWebhookRouter(t, &stubStore{}, nil)

		body := `{"id":1,"line_items":[{"sku":"CANDLE-4PACK","quantity":0,"price":"40.00"}]}`
		req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_VALIDATION")
	})

	t.Run("malformed price is rejected with 400", func(t *testing.T) {
		router := newWebhookRouter(t, &stubStore{}, nil)

		body := `{"id":1,"line_items":[{"sku":"CANDLE-4PACK","quantity":1,"price":"oops"}]}`
		req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_INVALID_INPUT")
	})

	t.Run("missing delivery id falls back to order identity", func(t *testing.T) {
		store := &stubStore{}
		router := newWebhookRouter(t, store, nil)

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader(string(orderPayload(t))))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			require.Equal(t, http.StatusOK, w.Code)

			if i == 1 {
				assert.Contains(t, w.Body.String(), `"outcome":"duplicate"`)
			}
		}
		assert.Len(t, store.updates, 1)
	})

	t.Run("store update failure maps to 502", func(t *testing.T) {
		store := &stubStore{updateErr: splitting.ErrStoreRequestFailed}
		router := newWebhookRouter(t, store, nil)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader(string(orderPayload(t))))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_UPSTREAM_FAILED")
	})

	t.Run("unreachable store maps to 502", func(t *testing.T) {
		store := &stubStore{updateErr: splitting.ErrStoreUnavailable}
		router := newWebhookRouter(t, store, nil)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader(string(orderPayload(t))))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_UPSTREAM_UNAVAILABLE")
	})
}
