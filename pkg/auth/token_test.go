package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yukasama/haus/internal/config"
	"github.com/Yukasama/haus/pkg/apperror"
)

func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	access := signedToken(t, jwt.MapClaims{
		"sub":          "sub-1",
		"realm_access": map[string]any{"roles": []string{"admin", "user"}},
	})

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/realms/haus/protocol/openid-connect/token" {
			http.NotFound(w, r)
			return
		}
		require.NoError(t, r.ParseForm())

		ok := false
		switch r.Form.Get("grant_type") {
		case "password":
			ok = r.Form.Get("username") == "admin" && r.Form.Get("password") == "p"
		case "refresh_token":
			ok = r.Form.Get("refresh_token") == "refresh-1"
		}

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":       access,
			"token_type":         "Bearer",
			"expires_in":         300,
			"refresh_token":      "refresh-2",
			"refresh_expires_in": 1800,
		})
	}))
}

func newTestTokenService(url string) *TokenService {
	cfg := &config.Config{Keycloak: config.KeycloakConfig{
		URL:      url,
		Realm:    "haus",
		ClientID: "haus-client",
		Timeout:  5 * time.Second,
	}}
	return NewTokenService(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTokenService_Login(t *testing.T) {
	srv := newTokenServer(t)
	defer srv.Close()
	svc := newTestTokenService(srv.URL)

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login(context.Background(), "admin", "p")
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, "refresh-2", resp.RefreshToken)
		assert.Equal(t, int64(1800), resp.RefreshExpiresIn)
		assert.InDelta(t, 300, resp.ExpiresIn, 2)
		assert.Equal(t, []string{"admin", "user"}, resp.Roles)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "admin", "wrong")
		assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
	})

	t.Run("empty credentials", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "", "")
		assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
	})
}

func TestTokenService_Refresh(t *testing.T) {
	srv := newTokenServer(t)
	defer srv.Close()
	svc := newTestTokenService(srv.URL)

	resp, err := svc.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", resp.RefreshToken)

	_, err = svc.Refresh(context.Background(), "stale")
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)
}

func TestTokenService_Unavailable(t *testing.T) {
	svc := newTestTokenService("http://127.0.0.1:1")

	_, err := svc.Login(context.Background(), "admin", "p")
	assert.ErrorIs(t, err, apperror.ErrServiceUnavailable)
}
