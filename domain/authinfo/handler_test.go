package authinfo

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yukasama/haus/internal/config"
	"github.com/Yukasama/haus/pkg/apperror"
	"github.com/Yukasama/haus/pkg/auth"
)

type fakeIssuer struct {
	username, password string
}

func (f *fakeIssuer) Login(_ context.Context, username, password string) (*auth.TokenResponse, error) {
	f.username, f.password = username, password
	if password != "p" {
		return nil, apperror.ErrInvalidCredentials
	}
	return &auth.TokenResponse{AccessToken: "at", ExpiresIn: 300, RefreshToken: "rt", RefreshExpiresIn: 1800, Roles: []string{"admin"}}, nil
}

func (f *fakeIssuer) Refresh(_ context.Context, refreshToken string) (*auth.TokenResponse, error) {
	if refreshToken != "rt" {
		return nil, apperror.ErrInvalidToken
	}
	return &auth.TokenResponse{AccessToken: "at2", RefreshToken: "rt2"}, nil
}

type offlineIntrospector struct{}

func (offlineIntrospector) Introspect(context.Context, string) (*auth.IntrospectionResult, error) {
	return nil, auth.ErrIntrospectionUnavailable
}

func newTestServer(issuer auth.TokenIssuer) *echo.Echo {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Environment: "test",
		Keycloak:    config.KeycloakConfig{ClientID: "haus-client", IntrospectCacheTTL: time.Minute},
	}
	e := echo.New()
	e.HTTPErrorHandler = apperror.HTTPErrorHandler(log)
	RegisterRoutes(e, NewHandler(issuer, log), auth.NewMiddleware(cfg, log, offlineIntrospector{}, nil))
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Token(t *testing.T) {
	issuer := &fakeIssuer{}
	e := newTestServer(issuer)

	tests := []struct {
		name        string
		contentType string
		body        string
		status      int
	}{
		{name: "json", contentType: echo.MIMEApplicationJSON, body: `{"username":"admin","password":"p"}`, status: http.StatusOK},
		{name: "form", contentType: echo.MIMEApplicationForm, body: url.Values{"username": {"admin"}, "password": {"p"}}.Encode(), status: http.StatusOK},
		{name: "wrong password", contentType: echo.MIMEApplicationJSON, body: `{"username":"admin","password":"x"}`, status: http.StatusUnauthorized},
		{name: "malformed json", contentType: echo.MIMEApplicationJSON, body: `{`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, tt.contentType)
			rec := serve(e, req)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				return
			}

			var resp auth.TokenResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "at", resp.AccessToken)
			assert.Equal(t, int64(300), resp.ExpiresIn)
			assert.Equal(t, int64(1800), resp.RefreshExpiresIn)
			assert.Equal(t, []string{"admin"}, resp.Roles)
			assert.Equal(t, "admin", issuer.username)
		})
	}
}

func TestHandler_Refresh(t *testing.T) {
	e := newTestServer(&fakeIssuer{})

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":"rt"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"access_token":"at2"`)

	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":"expired"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = serve(e, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_Me(t *testing.T) {
	e := newTestServer(&fakeIssuer{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer admin")
	rec := serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "test-admin", resp.Sub)
	assert.Equal(t, "admin", resp.Username)
	assert.ElementsMatch(t, []string{auth.RoleAdmin, auth.RoleUser}, resp.Roles)
}

func TestResolver(t *testing.T) {
	r := NewResolver(&fakeIssuer{})
	ctx := context.Background()

	res, err := r.Login(ctx, struct {
		Username string
		Password string
	}{Username: "admin", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "at", res.AccessToken())
	assert.Equal(t, int32(300), res.ExpiresIn())
	assert.Equal(t, "rt", res.RefreshToken())
	assert.Equal(t, int32(1800), res.RefreshExpiresIn())
	assert.Equal(t, []string{"admin"}, res.Roles())

	_, err = r.Login(ctx, struct {
		Username string
		Password string
	}{Username: "admin", Password: "x"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	res, err = r.Refresh(ctx, struct{ RefreshToken string }{RefreshToken: "rt"})
	require.NoError(t, err)
	assert.Equal(t, []string{}, res.Roles())
}
