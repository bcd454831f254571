package ecommerce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

// ShopifyConfig holds configuration for the Shopify Admin REST API.
type ShopifyConfig struct {
	// ShopDomain is the myshopify domain, e.g. "my-store.myshopify.com"
	ShopDomain string
	// AccessToken is the Admin API access token
	AccessToken string
	// WebhookSecret is the shared secret webhook signatures are computed with.
	// Empty means signature verification is skipped (insecure, logged at startup).
	WebhookSecret string
	// APIVersion is the Admin API version segment, e.g. "2024-01"
	APIVersion string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// ShopifyDefaultAPIVersion is the Admin API version used when none is configured.
const ShopifyDefaultAPIVersion = "2024-01"

// Errors for Shopify configuration
var (
	ErrShopifyConfigMissingShopDomain  = errors.New("shopify: shop domain is required")
	ErrShopifyConfigMissingAccessToken = errors.New("shopify: access token is required")
)

// NewShopifyConfig creates a new Shopify configuration with defaults.
func NewShopifyConfig(shopDomain, accessToken, webhookSecret string) *ShopifyConfig {
	return &ShopifyConfig{
		ShopDomain:     shopDomain,
		AccessToken:    accessToken,
		WebhookSecret:  webhookSecret,
		APIVersion:     ShopifyDefaultAPIVersion,
		TimeoutSeconds: 30,
	}
}

// Validate validates the Shopify configuration and applies defaults.
func (c *ShopifyConfig) Validate() error {
	if c.ShopDomain == "" {
		return ErrShopifyConfigMissingShopDomain
	}
	if c.AccessToken == "" {
		return ErrShopifyConfigMissingAccessToken
	}
	if c.APIVersion == "" {
		c.APIVersion = ShopifyDefaultAPIVersion
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// BaseURL returns the Admin API base URL for the configured shop.
// A scheme in ShopDomain is honored (used by tests against local servers);
// otherwise https is assumed.
func (c *ShopifyConfig) BaseURL() string {
	domain := strings.TrimSuffix(c.ShopDomain, "/")
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain
	}
	return "https://" + domain
}

// HasWebhookSecret reports whether webhook signatures can be verified.
func (c *ShopifyConfig) HasWebhookSecret() bool {
	return c.WebhookSecret != ""
}

// VerifyWebhookSignature checks the X-Shopify-Hmac-Sha256 header against
// the HMAC-SHA256 of the raw request body, base64 encoded. The comparison
// is constant time.
func (c *ShopifyConfig) VerifyWebhookSignature(body []byte, signature string) bool {
	if c.WebhookSecret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.WebhookSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
