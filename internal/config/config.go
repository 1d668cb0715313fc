package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(NewConfig),
)

// Config holds all application configuration
type Config struct {
	// Server settings
	ServerPort    int    `env:"SERVER_PORT" envDefault:"3000"`
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:"0.0.0.0"`
	Environment   string `env:"ENVIRONMENT" envDefault:"local"`
	Debug         bool   `env:"DEBUG" envDefault:"false"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	BodyLimit     string `env:"SERVER_BODY_LIMIT" envDefault:"1M"`

	Database  DatabaseConfig
	Keycloak  KeycloakConfig
	Email     EmailConfig
	Nats      NatsConfig
	Otel      OtelConfig
	RateLimit RateLimitConfig
	Dev       DevConfig

	// Server timeouts
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host             string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port             int           `env:"POSTGRES_PORT" envDefault:"5432"`
	User             string        `env:"POSTGRES_USER" envDefault:"haus"`
	Password         string        `env:"POSTGRES_PASSWORD" envDefault:""`
	Database         string        `env:"POSTGRES_DB" envDefault:"haus"`
	SSLMode          string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	MaxOpenConns     int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns     int           `env:"DB_MAX_IDLE_CONNS" envDefault:"2"`
	MaxIdleTime      time.Duration `env:"DB_MAX_IDLE_TIME" envDefault:"5m"`
	QueryDebug       bool          `env:"DB_QUERY_DEBUG" envDefault:"false"`
	AutoMigrate      bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	StatementTimeout time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"30s"`
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// KeycloakConfig holds the OpenID Connect settings of the identity provider
type KeycloakConfig struct {
	// URL is the base URL of the Keycloak server (e.g. "http://localhost:8880")
	URL string `env:"KEYCLOAK_URL" envDefault:"http://localhost:8880"`

	// Realm that issues the tokens
	Realm string `env:"KEYCLOAK_REALM" envDefault:"haus"`

	// Issuer overrides {URL}/realms/{Realm}
	Issuer string `env:"KEYCLOAK_ISSUER"`

	// Confidential client used for introspection and password grants
	ClientID     string `env:"KEYCLOAK_CLIENT_ID" envDefault:"haus-client"`
	ClientSecret string `env:"KEYCLOAK_CLIENT_SECRET" envDefault:""`

	// Disable token introspection (roles are then read from the token claims outside production)
	DisableIntrospection bool `env:"KEYCLOAK_DISABLE_INTROSPECTION" envDefault:"false"`

	// Introspection cache TTL
	IntrospectCacheTTL time.Duration `env:"KEYCLOAK_INTROSPECT_CACHE_TTL" envDefault:"1m"`

	// Interval at which expired cache rows are deleted
	IntrospectCachePurge time.Duration `env:"KEYCLOAK_INTROSPECT_CACHE_PURGE" envDefault:"10m"`

	// Timeout for calls to the identity provider
	Timeout time.Duration `env:"KEYCLOAK_TIMEOUT" envDefault:"5s"`
}

// GetIssuer returns the issuer URL of the realm
func (k *KeycloakConfig) GetIssuer() string {
	if k.Issuer != "" {
		return k.Issuer
	}
	return fmt.Sprintf("%s/realms/%s", strings.TrimSuffix(k.URL, "/"), k.Realm)
}

// TokenURL returns the OAuth2 token endpoint of the realm
func (k *KeycloakConfig) TokenURL() string {
	return k.GetIssuer() + "/protocol/openid-connect/token"
}

// EmailConfig holds email service configuration
type EmailConfig struct {
	// Enabled determines if email sending is enabled
	Enabled bool `env:"EMAIL_ENABLED" envDefault:"false"`
	// MailgunDomain is the Mailgun domain
	MailgunDomain string `env:"MAILGUN_DOMAIN" envDefault:""`
	// MailgunAPIKey is the Mailgun API key
	MailgunAPIKey string `env:"MAILGUN_API_KEY" envDefault:""`
	// FromEmail is the sender address
	FromEmail string `env:"EMAIL_FROM_ADDRESS" envDefault:"nest@acme.com"`
	// FromName is the sender name
	FromName string `env:"EMAIL_FROM_NAME" envDefault:"Haus"`
	// To receives the notifications about new houses
	To string `env:"EMAIL_TO_ADDRESS" envDefault:"admin@acme.com"`
	// Workers bounds the number of concurrent deliveries
	Workers int `env:"EMAIL_WORKERS" envDefault:"2"`
	// SendTimeout bounds a single delivery
	SendTimeout time.Duration `env:"EMAIL_SEND_TIMEOUT" envDefault:"30s"`
}

// IsConfigured returns true if Mailgun is configured
func (e *EmailConfig) IsConfigured() bool {
	return e.MailgunDomain != "" && e.MailgunAPIKey != ""
}

// NatsConfig holds the event publisher settings
type NatsConfig struct {
	// URL of the NATS server, publishing is disabled when empty
	URL string `env:"NATS_URL" envDefault:""`
	// SubjectPrefix is prepended to every event subject
	SubjectPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"haus"`
}

// Enabled returns true when a NATS server is configured
func (n NatsConfig) Enabled() bool {
	return n.URL != ""
}

// RateLimitConfig holds the request rate limiter settings
type RateLimitConfig struct {
	Enabled   bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	PerSecond float64       `env:"RATE_LIMIT_PER_SECOND" envDefault:"20"`
	Burst     int           `env:"RATE_LIMIT_BURST" envDefault:"40"`
	ExpiresIn time.Duration `env:"RATE_LIMIT_EXPIRES_IN" envDefault:"3m"`
}

// DevConfig holds development helpers
type DevConfig struct {
	// DBPopulate reloads the seed data on start and exposes POST /dev/db_populate
	DBPopulate bool `env:"DEV_DB_POPULATE" envDefault:"false"`
}

// NewConfig loads configuration from environment variables
func NewConfig(log *slog.Logger) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	log.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.ServerPort),
		slog.String("db_host", cfg.Database.Host),
		slog.String("issuer", cfg.Keycloak.GetIssuer()),
	)

	return cfg, nil
}
