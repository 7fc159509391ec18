package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all process configuration. It is constructed once at startup
// and passed into the components that need it; nothing reads the environment
// after Load returns.
type Config struct {
	// Port the HTTP server listens on
	Port int

	// DatabaseURL is the Postgres connection string for the mirror database
	DatabaseURL string

	// DatabaseSchema is the Postgres schema holding the mirror tables
	DatabaseSchema string

	// OrbAPIKey authorizes bulk and point fetches against the Orb API.
	// Not required for webhook-only deployments.
	OrbAPIKey string

	// OrbWebhookSecret is the shared secret used to verify webhook signatures
	OrbWebhookSecret string

	// SyncAPIKey authorizes requests against the sync endpoints
	SyncAPIKey string

	// SyncAPIKeyAlt is a second accepted key so rotation does not need downtime
	SyncAPIKeyAlt string

	// VerifyWebhookSignature controls signature verification; only disabled in tests
	VerifyWebhookSignature bool
}

// Load builds the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                   8080,
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		DatabaseSchema:         envOrDefault("DATABASE_SCHEMA", "orb"),
		OrbAPIKey:              os.Getenv("ORB_API_KEY"),
		OrbWebhookSecret:       os.Getenv("ORB_WEBHOOK_SECRET"),
		SyncAPIKey:             os.Getenv("API_KEY_SYNC"),
		SyncAPIKeyAlt:          os.Getenv("API_KEY_SYNC_ALT"),
		VerifyWebhookSignature: envOrDefault("VERIFY_WEBHOOK_SIGNATURE", "true") == "true",
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("PORT must be a number, got %q", port)
		}
		cfg.Port = p
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.OrbWebhookSecret == "" && cfg.VerifyWebhookSignature {
		return nil, fmt.Errorf("ORB_WEBHOOK_SECRET is required when signature verification is enabled")
	}

	return cfg, nil
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
