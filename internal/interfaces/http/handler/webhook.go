package handler

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	appsplitting "github.com/bundleflow/backend/internal/application/splitting"
	"github.com/bundleflow/backend/internal/infrastructure/ecommerce"
	"github.com/bundleflow/backend/internal/infrastructure/logger"
	"github.com/bundleflow/backend/internal/interfaces/http/dto"
	"github.com/bundleflow/backend/internal/interfaces/http/middleware"
)

// Shopify webhook headers.
const (
	HeaderWebhookSignature = "X-Shopify-Hmac-Sha256"
	HeaderWebhookID        = "X-Shopify-Webhook-Id"
)

// WebhookHandler receives store webhooks and feeds them into the
// order split pipeline. It logs through the request-scoped logger so
// every entry carries the request_id and delivery_id fields prepared
// by GinMiddleware.
type WebhookHandler struct {
	BaseHandler
	service *appsplitting.OrderSplitService
	shopify *ecommerce.ShopifyConfig
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(service *appsplitting.OrderSplitService, shopify *ecommerce.ShopifyConfig) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		shopify: shopify,
	}
}

// HandleOrderCreate processes an orders/create webhook delivery.
//
// The raw body is read before binding because signature verification
// operates on the exact bytes Shopify signed. A delivery that fails
// verification is rejected with 401 and never reaches the pipeline.
// Replies other than 2xx make Shopify redeliver, which is safe here:
// redeliveries are deduplicated by X-Shopify-Webhook-Id and the split
// itself is a no-op on an already-split order.
func (h *WebhookHandler) HandleOrderCreate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.BadRequest(c, "Unable to read request body")
		return
	}

	reqLog := logger.GetGinLogger(c)

	if h.shopify != nil && h.shopify.HasWebhookSecret() {
		signature := c.GetHeader(HeaderWebhookSignature)
		if !h.shopify.VerifyWebhookSignature(body, signature) {
			reqLog.Warn("webhook signature verification failed")
			h.Unauthorized(c, "Webhook signature verification failed")
			return
		}
	} else {
		reqLog.Debug("webhook secret not configured, skipping signature verification")
	}

	var req dto.OrderWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeInvalidJSON), dto.ErrCodeInvalidJSON, "Request body is not valid JSON")
		return
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	order, err := req.ToDomain()
	if err != nil {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeInvalidInput), dto.ErrCodeInvalidInput, err.Error())
		return
	}

	// Shopify sends a unique id per delivery attempt. When the header is
	// absent (manual replay, test harness) the order id still identifies
	// the logical event, so dedup falls back to that.
	deliveryID := c.GetHeader(HeaderWebhookID)
	if deliveryID == "" {
		deliveryID = fmt.Sprintf("orders/create:%d", order.ID)
	}

	result, err := h.service.ProcessOrder(c.Request.Context(), order, deliveryID)
	if err != nil {
		h.HandleStoreError(c, err)
		return
	}

	h.Success(c, dto.SplitResultResponse{
		OrderID:     result.OrderID,
		OrderName:   result.OrderName,
		Outcome:     string(result.Outcome),
		ItemsBefore: result.ItemsBefore,
		ItemsAfter:  result.ItemsAfter,
	})
}
