package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Storage drivers accepted by STORAGE_DRIVER
const (
	StorageSupabase = "supabase"
	StorageMongo    = "mongo"
	StorageMemory   = "memory"
)

// Config is the process configuration, read from the environment
type Config struct {
	Port     string
	AppURL   string
	LogLevel zerolog.Level

	StorageDriver      string
	SupabaseURL        string
	SupabaseServiceKey string
	MongoURI           string
	MongoDatabase      string

	RedisURL        string
	VariantCacheTTL time.Duration

	ShopifyAPIKey          string
	ShopifyAPISecret       string
	ShopifyScopes          []string
	ShopifyAPIVersion      string
	ShopifyStorefrontToken string
	ShopifyWebhookSecret   string

	EncryptionKey      string
	CORSAllowedOrigins []string
}

// Load reads .env (when present) and the environment
func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function and validates it
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	level, err := zerolog.ParseLevel(strings.ToLower(get("LOG_LEVEL", "info")))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	ttl, err := time.ParseDuration(get("VARIANT_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid VARIANT_CACHE_TTL: %w", err)
	}

	cfg := &Config{
		Port:     get("PORT", "8080"),
		AppURL:   strings.TrimRight(get("APP_URL", "http://localhost:8080"), "/"),
		LogLevel: level,

		StorageDriver:      strings.ToLower(get("STORAGE_DRIVER", StorageSupabase)),
		SupabaseURL:        get("SUPABASE_URL", ""),
		SupabaseServiceKey: get("SUPABASE_SERVICE_KEY", ""),
		MongoURI:           get("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:      get("MONGODB_DATABASE", "configurator"),

		RedisURL:        get("REDIS_URL", ""),
		VariantCacheTTL: ttl,

		ShopifyAPIKey:          get("SHOPIFY_API_KEY", ""),
		ShopifyAPISecret:       get("SHOPIFY_API_SECRET", ""),
		ShopifyScopes:          splitList(get("SHOPIFY_SCOPES", "read_products,read_inventory,read_metaobjects")),
		ShopifyAPIVersion:      get("SHOPIFY_API_VERSION", "2024-10"),
		ShopifyStorefrontToken: get("SHOPIFY_STOREFRONT_TOKEN", ""),
		ShopifyWebhookSecret:   get("SHOPIFY_WEBHOOK_SECRET", ""),

		EncryptionKey:      get("ENCRYPTION_KEY", ""),
		CORSAllowedOrigins: splitList(get("CORS_ALLOWED_ORIGINS", "*")),
	}

	// Shopify signs webhooks with the app secret unless a dedicated one is configured
	if cfg.ShopifyWebhookSecret == "" {
		cfg.ShopifyWebhookSecret = cfg.ShopifyAPISecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks driver-specific requirements
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required for the supabase storage driver")
		}
	case StorageMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required for the mongo storage driver")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.VariantCacheTTL < 0 {
		return fmt.Errorf("VARIANT_CACHE_TTL must not be negative")
	}
	return nil
}

// RedirectURI is the OAuth callback registered with Shopify
func (c *Config) RedirectURI() string {
	return c.AppURL + "/auth/callback"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
