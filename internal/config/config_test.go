package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig(slog.Default())
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.ServerPort)
	assert.Equal(t, "haus", cfg.Database.Database)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, time.Minute, cfg.Keycloak.IntrospectCacheTTL)
	assert.False(t, cfg.Nats.Enabled())
	assert.False(t, cfg.Otel.Enabled())
	assert.False(t, cfg.IsProduction())
}

func TestNewConfig_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "8443")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PASSWORD", "p")
	t.Setenv("NATS_URL", "nats://nats:4222")
	t.Setenv("RATE_LIMIT_BURST", "5")

	cfg, err := NewConfig(slog.Default())
	require.NoError(t, err)

	assert.Equal(t, 8443, cfg.ServerPort)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres://haus:p@db:5432/haus?sslmode=disable", cfg.Database.DSN())
	assert.True(t, cfg.Nats.Enabled())
	assert.Equal(t, 5, cfg.RateLimit.Burst)
}

func TestNewConfig_InvalidValue(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")

	_, err := NewConfig(slog.Default())
	assert.Error(t, err)
}

func TestKeycloakConfig_Issuer(t *testing.T) {
	tests := []struct {
		name      string
		cfg       KeycloakConfig
		wantIss   string
		wantToken string
	}{
		{
			name:      "derived from url and realm",
			cfg:       KeycloakConfig{URL: "http://localhost:8880/", Realm: "haus"},
			wantIss:   "http://localhost:8880/realms/haus",
			wantToken: "http://localhost:8880/realms/haus/protocol/openid-connect/token",
		},
		{
			name:      "explicit issuer wins",
			cfg:       KeycloakConfig{URL: "http://ignored", Realm: "x", Issuer: "https://sso.example.com/realms/prod"},
			wantIss:   "https://sso.example.com/realms/prod",
			wantToken: "https://sso.example.com/realms/prod/protocol/openid-connect/token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantIss, tt.cfg.GetIssuer())
			assert.Equal(t, tt.wantToken, tt.cfg.TokenURL())
		})
	}
}
