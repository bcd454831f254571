package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"BUNDLEFLOW_APP_NAME":               os.Getenv("BUNDLEFLOW_APP_NAME"),
		"BUNDLEFLOW_APP_ENV":                os.Getenv("BUNDLEFLOW_APP_ENV"),
		"BUNDLEFLOW_APP_PORT":               os.Getenv("BUNDLEFLOW_APP_PORT"),
		"BUNDLEFLOW_SHOPIFY_SHOP_DOMAIN":    os.Getenv("BUNDLEFLOW_SHOPIFY_SHOP_DOMAIN"),
		"BUNDLEFLOW_SHOPIFY_ACCESS_TOKEN":   os.Getenv("BUNDLEFLOW_SHOPIFY_ACCESS_TOKEN"),
		"BUNDLEFLOW_SHOPIFY_WEBHOOK_SECRET": os.Getenv("BUNDLEFLOW_SHOPIFY_WEBHOOK_SECRET"),
		"BUNDLEFLOW_DEDUP_BACKEND":          os.Getenv("BUNDLEFLOW_DEDUP_BACKEND"),
		"BUNDLEFLOW_DEDUP_ENABLED":          os.Getenv("BUNDLEFLOW_DEDUP_ENABLED"),
		"BUNDLEFLOW_TELEMETRY_SAMPLING_RATIO": os.Getenv("BUNDLEFLOW_TELEMETRY_SAMPLING_RATIO"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "bundleflow-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "2024-01", cfg.Shopify.APIVersion)
		assert.Equal(t, 30, cfg.Shopify.TimeoutSeconds)
		assert.Equal(t, "memory", cfg.Dedup.Backend)
		assert.Equal(t, 24*time.Hour, cfg.Dedup.TTL)
		assert.True(t, cfg.Dedup.Enabled)
		assert.Equal(t, "bundles.toml", cfg.Bundles.Path)
	})

	t.Run("loads values from environment variables with BUNDLEFLOW prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("BUNDLEFLOW_APP_NAME", "test-app")
		os.Setenv("BUNDLEFLOW_APP_PORT", "9000")
		os.Setenv("BUNDLEFLOW_SHOPIFY_SHOP_DOMAIN", "test-shop.myshopify.com")
		os.Setenv("BUNDLEFLOW_SHOPIFY_ACCESS_TOKEN", "shpat_test")
		os.Setenv("BUNDLEFLOW_DEDUP_BACKEND", "redis")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "test-shop.myshopify.com", cfg.Shopify.ShopDomain)
		assert.Equal(t, "shpat_test", cfg.Shopify.AccessToken)
		assert.Equal(t, "redis", cfg.Dedup.Backend)
	})

	t.Run("rejects unknown dedup backend", func(t *testing.T) {
		clearEnv()
		os.Setenv("BUNDLEFLOW_DEDUP_BACKEND", "dynamo")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dedup.backend")
	})

	t.Run("rejects out-of-range sampling ratio", func(t *testing.T) {
		clearEnv()
		os.Setenv("BUNDLEFLOW_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestConfigWarnings(t *testing.T) {
	t.Run("missing credentials and secret produce warnings", func(t *testing.T) {
		cfg := &Config{Dedup: DedupConfig{Enabled: true}}
		warnings := cfg.Warnings()
		require.Len(t, warnings, 3)
		assert.Contains(t, warnings[0], "shop_domain")
		assert.Contains(t, warnings[1], "access_token")
		assert.Contains(t, warnings[2], "webhook_secret")
	})

	t.Run("fully configured produces no warnings", func(t *testing.T) {
		cfg := &Config{
			Shopify: ShopifyConfig{
				ShopDomain:    "shop.myshopify.com",
				AccessToken:   "shpat_x",
				WebhookSecret: "whsec_x",
			},
			Dedup: DedupConfig{Enabled: true},
		}
		assert.Empty(t, cfg.Warnings())
	})

	t.Run("disabled dedup produces a warning", func(t *testing.T) {
		cfg := &Config{
			Shopify: ShopifyConfig{
				ShopDomain:    "shop.myshopify.com",
				AccessToken:   "shpat_x",
				WebhookSecret: "whsec_x",
			},
		}
		warnings := cfg.Warnings()
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "dedup")
	})
}
