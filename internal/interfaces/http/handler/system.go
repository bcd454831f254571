package handler

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	appsplitting "github.com/bundleflow/backend/internal/application/splitting"
	"github.com/bundleflow/backend/internal/infrastructure/config"
	"github.com/bundleflow/backend/internal/interfaces/http/dto"
)

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	service   *appsplitting.OrderSplitService
	cfg       *config.Config
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(service *appsplitting.OrderSplitService, cfg *config.Config) *SystemHandler {
	return &SystemHandler{
		service:   service,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// GetSystemInfo returns basic system information including version and uptime
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      h.cfg.App.Name,
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	h.Success(c, info)
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping is a simple liveness check
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Health reports service health for load balancers and probes
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetConfig reports the effective runtime configuration. Secrets are
// reported as presence booleans only, so operators can diagnose a
// degraded deployment without exposing credentials.
func (h *SystemHandler) GetConfig(c *gin.Context) {
	h.Success(c, dto.ConfigResponse{
		BundleSKUs:              h.service.BundleSKUs(),
		CredentialsConfigured:   h.cfg.Shopify.ShopDomain != "" && h.cfg.Shopify.AccessToken != "",
		WebhookSecretConfigured: h.cfg.Shopify.WebhookSecret != "",
		DedupEnabled:            h.cfg.Dedup.Enabled,
		DedupBackend:            h.cfg.Dedup.Backend,
	})
}

// TriggerSplit re-runs bundle resolution for one order by fetching its
// current state from the store. Covers orders whose webhook delivery was
// missed entirely.
func (h *SystemHandler) TriggerSplit(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || orderID <= 0 {
		h.BadRequest(c, "Order ID must be a positive integer")
		return
	}

	result, err := h.service.ProcessOrderByID(c.Request.Context(), orderID)
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
