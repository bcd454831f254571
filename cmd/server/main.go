package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appsplitting "github.com/bundleflow/backend/internal/application/splitting"
	"github.com/bundleflow/backend/internal/domain/splitting"
	"github.com/bundleflow/backend/internal/infrastructure/cache"
	"github.com/bundleflow/backend/internal/infrastructure/config"
	"github.com/bundleflow/backend/internal/infrastructure/ecommerce"
	"github.com/bundleflow/backend/internal/infrastructure/logger"
	"github.com/bundleflow/backend/internal/infrastructure/telemetry"
	"github.com/bundleflow/backend/internal/interfaces/http/handler"
	"github.com/bundleflow/backend/internal/interfaces/http/middleware"
	"github.com/bundleflow/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting bundle splitting service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Degraded-mode warnings: the server still starts so that health and
	// config endpoints stay reachable, but the affected paths will refuse
	// work until the missing settings are provided.
	for _, w := range cfg.Warnings() {
		log.Warn("Configuration incomplete", zap.String("detail", w))
	}

	// Initialize OpenTelemetry tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	// Load the bundle mapping. A broken mapping file is fatal: splitting
	// orders against a partial mapping would corrupt them.
	mapping, err := config.LoadBundleMapping(cfg.Bundles.Path)
	if err != nil {
		log.Fatal("Failed to load bundle mapping",
			zap.String("path", cfg.Bundles.Path),
			zap.Error(err),
		)
	}
	log.Info("Bundle mapping loaded",
		zap.String("path", cfg.Bundles.Path),
		zap.Int("bundles", len(mapping)),
	)

	// Shopify store adapter. Without credentials the store stays nil and
	// split attempts report the store as not configured.
	shopifyCfg := ecommerce.NewShopifyConfig(
		cfg.Shopify.ShopDomain,
		cfg.Shopify.AccessToken,
		cfg.Shopify.WebhookSecret,
	)
	if cfg.Shopify.APIVersion != "" {
		shopifyCfg.APIVersion = cfg.Shopify.APIVersion
	}
	if cfg.Shopify.TimeoutSeconds > 0 {
		shopifyCfg.TimeoutSeconds = cfg.Shopify.TimeoutSeconds
	}

	var store splitting.OrderStore
	if cfg.Shopify.ShopDomain != "" && cfg.Shopify.AccessToken != "" {
		adapter, err := ecommerce.NewShopifyAdapter(shopifyCfg)
		if err != nil {
			log.Fatal("Failed to initialize Shopify adapter", zap.Error(err))
		}
		store = adapter
	}

	// Delivery deduplication backend
	var deduper splitting.DeliveryDeduper
	if cfg.Dedup.Enabled {
		switch cfg.Dedup.Backend {
		case "redis":
			redisStore, err := cache.NewRedisDedupStore(cache.RedisConfig{
				Host:     cfg.Redis.Host,
				Port:     cfg.Redis.Port,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			if err != nil {
				log.Fatal("Failed to connect to Redis", zap.Error(err))
			}
			deduper = redisStore
		default:
			deduper = cache.NewInMemoryDedupStore()
		}
		log.Info("Delivery deduplication enabled",
			zap.String("backend", cfg.Dedup.Backend),
			zap.Duration("ttl", cfg.Dedup.TTL),
		)
		defer func() {
			if err := deduper.Close(); err != nil {
				log.Warn("Failed to close dedup store", zap.Error(err))
			}
		}()
	}

	// Application service and handlers
	splitService := appsplitting.NewOrderSplitService(store, deduper, mapping, cfg.Dedup.TTL, log)
	webhookHandler := handler.NewWebhookHandler(splitService, shopifyCfg)
	systemHandler := handler.NewSystemHandler(splitService, cfg)

	// Set gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validator to use json tag names in error messages
	middleware.SetupValidator()

	// Create gin engine
	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	// Global middleware (order matters)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanEnricher())
		engine.Use(middleware.SpanErrorMarker())
	}
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}

	// Health check endpoint (no auth, no API version prefix)
	engine.GET("/health", systemHandler.Health)

	// Webhook receiver lives at the engine root: the path is registered
	// verbatim in the Shopify admin and is not part of the versioned API.
	webhooks := engine.Group("/webhooks")
	webhooks.POST("/orders/create", webhookHandler.HandleOrderCreate)

	// Versioned API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/config", systemHandler.GetConfig)

	orderRoutes := router.NewDomainGroup("orders", "/orders")
	orderRoutes.POST("/:id/split", systemHandler.TriggerSplit)

	r.Register(systemRoutes).
		Register(orderRoutes)

	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
