package common

import (
	"time"
)

// Config holds all application configuration, parsed from the environment
// with caarlos0/env. A .env file, when present, is loaded by main before
// parsing.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Identity IdentityConfig
	Webhook  WebhookConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DatabaseConfig holds record-store connection configuration.
type DatabaseConfig struct {
	DSN              string        `env:"DB_URL"`
	MaxConns         int32         `env:"DB_MAX_CONNS" envDefault:"20"`
	MinConns         int32         `env:"DB_MIN_CONNS" envDefault:"5"`
	MaxConnLifetime  time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	MaxConnIdleTime  time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	DialTimeout      time.Duration `env:"DB_DIAL_TIMEOUT" envDefault:"3s"`
	StatementTimeout time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"0"`
}

// StorageConfig holds object-store configuration. BaseURL points at the
// hosted storage API root, e.g. https://<project>.supabase.co/storage/v1.
type StorageConfig struct {
	BaseURL      string        `env:"STORAGE_URL"`
	ServiceKey   string        `env:"STORAGE_SERVICE_KEY"`
	Bucket       string        `env:"STORAGE_BUCKET" envDefault:"receipts"`
	Timeout      time.Duration `env:"STORAGE_TIMEOUT" envDefault:"30s"`
	SignedURLTTL time.Duration `env:"STORAGE_SIGNED_URL_TTL" envDefault:"1h"`
}

// IdentityConfig holds the identity-provider verification endpoint.
type IdentityConfig struct {
	BaseURL string        `env:"IDENTITY_URL"`
	Timeout time.Duration `env:"IDENTITY_TIMEOUT" envDefault:"10s"`
}

// WebhookConfig holds identity-provider webhook verification settings.
type WebhookConfig struct {
	SigningSecret string        `env:"WEBHOOK_SIGNING_SECRET"`
	Tolerance     time.Duration `env:"WEBHOOK_TOLERANCE" envDefault:"5m"`
}

// Validate checks required configuration.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return ValidationErrorf("DB_URL is required")
	}
	if c.Storage.BaseURL == "" {
		return ValidationErrorf("STORAGE_URL is required")
	}
	if c.Storage.ServiceKey == "" {
		return ValidationErrorf("STORAGE_SERVICE_KEY is required")
	}
	if c.Identity.BaseURL == "" {
		return ValidationErrorf("IDENTITY_URL is required")
	}
	if c.Webhook.SigningSecret == "" {
		return ValidationErrorf("WEBHOOK_SIGNING_SECRET is required")
	}
	return nil
}
