package gql

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yukasama/haus/domain/authinfo"
	"github.com/Yukasama/haus/domain/email"
	"github.com/Yukasama/haus/domain/events"
	"github.com/Yukasama/haus/domain/haus"
	"github.com/Yukasama/haus/internal/config"
	"github.com/Yukasama/haus/pkg/apperror"
	"github.com/Yukasama/haus/pkg/auth"
)

type store struct {
	mu      sync.Mutex
	haeuser map[int64]*haus.Haus
	nextID  int64
}

func (s *store) FindByID(_ context.Context, id int64, _ bool) (*haus.Haus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.haeuser[id]
	if !ok {
		return nil, nil
	}
	c := *h
	return &c, nil
}

func (s *store) Find(_ context.Context, criteria haus.Suchkriterien) ([]*haus.Haus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*haus.Haus
	for _, h := range s.haeuser {
		if art, ok := criteria["art"]; ok && string(h.Art) != art {
			continue
		}
		c := *h
		out = append(out, &c)
	}
	return out, nil
}

func (s *store) Create(_ context.Context, h *haus.Haus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	h.ID = s.nextID
	c := *h
	s.haeuser[h.ID] = &c
	return nil
}

func (s *store) Update(_ context.Context, h *haus.Haus, expected int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.haeuser[h.ID].Version != expected {
		return false, nil
	}
	c := *h
	s.haeuser[h.ID] = &c
	return true, nil
}

func (s *store) Delete(_ context.Context, h *haus.Haus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.haeuser[h.ID]
	delete(s.haeuser, h.ID)
	return ok, nil
}

type nopMailer struct{}

func (nopMailer) Enqueue(email.Job) string { return "" }

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, events.HausEvent) {}

type issuer struct{}

func (issuer) Login(_ context.Context, username, password string) (*auth.TokenResponse, error) {
	if password != "p" {
		return nil, apperror.ErrInvalidCredentials
	}
	return &auth.TokenResponse{AccessToken: "at-" + username, ExpiresIn: 300, RefreshToken: "rt", Roles: []string{"admin"}}, nil
}

func (issuer) Refresh(context.Context, string) (*auth.TokenResponse, error) {
	return nil, apperror.ErrInvalidToken
}

type offlineIntrospector struct{}

func (offlineIntrospector) Introspect(context.Context, string) (*auth.IntrospectionResult, error) {
	return nil, auth.ErrIntrospectionUnavailable
}

func newTestServer(t *testing.T, env string) *echo.Echo {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Environment: env,
		Keycloak:    config.KeycloakConfig{ClientID: "haus-client", IntrospectCacheTTL: time.Minute},
	}

	s := &store{haeuser: map[int64]*haus.Haus{
		1: {
			ID: 1, Version: 0, Hausflaeche: 120, Art: haus.ArtVilla, Preis: 350000, Verkaeuflich: true,
			Features: haus.Features{"POOL"},
			Adresse:  &haus.Adresse{Strasse: "Moltkestrasse", Plz: "76133"},
			Personen: []*haus.Person{{Vorname: "Max", Nachname: "Muster", Eigentuemer: true}},
		},
	}, nextID: 100}
	read := haus.NewReadService(s, log)
	write := haus.NewWriteService(s, read, nopMailer{}, nopPublisher{}, log)

	schema, err := NewSchema(NewRootResolver(haus.NewResolver(read, write), authinfo.NewResolver(issuer{})))
	require.NoError(t, err)

	e := echo.New()
	e.HTTPErrorHandler = apperror.HTTPErrorHandler(log)
	RegisterRoutes(e, NewHandler(schema, log), auth.NewMiddleware(cfg, log, offlineIntrospector{}, nil), cfg)
	return e
}

type gqlResult struct {
	Data   map[string]any `json:"data"`
	Errors []struct {
		Message    string         `json:"message"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

func exec(t *testing.T, e *echo.Echo, token, query string, variables map[string]any) gqlResult {
	t.Helper()
	body, err := json.Marshal(Request{Query: query, Variables: variables})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(string(body)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res gqlResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func firstCode(t *testing.T, res gqlResult) string {
	t.Helper()
	require.NotEmpty(t, res.Errors)
	code, _ := res.Errors[0].Extensions["code"].(string)
	return code
}

func TestSchemaBinds(t *testing.T) {
	_, err := NewSchema(NewRootResolver(&haus.Resolver{}, &authinfo.Resolver{}))
	require.NoError(t, err)
}

func TestQuery_Haus(t *testing.T) {
	e := newTestServer(t, "test")

	res := exec(t, e, "", `{ haus(id: "1") { id version art preis features adresse { strasse hausnummer plz } personen { vorname eigentuemer } } }`, nil)
	require.Empty(t, res.Errors)

	h := res.Data["haus"].(map[string]any)
	assert.Equal(t, "1", h["id"])
	assert.Equal(t, 0.0, h["version"])
	assert.Equal(t, "VILLA", h["art"])
	assert.Equal(t, []any{"POOL"}, h["features"])
	assert.Equal(t, map[string]any{"strasse": "Moltkestrasse", "hausnummer": nil, "plz": "76133"}, h["adresse"])
	assert.Len(t, h["personen"], 1)

	res = exec(t, e, "", `{ haus(id: "999") { id } }`, nil)
	assert.Nil(t, res.Data["haus"])
	assert.Equal(t, CodeBadUserInput, firstCode(t, res))
	assert.Equal(t, "Es gibt kein Haus mit der ID 999.", res.Errors[0].Message)
}

func TestQuery_Haeuser(t *testing.T) {
	e := newTestServer(t, "test")

	res := exec(t, e, "", `{ haeuser { id } }`, nil)
	require.Empty(t, res.Errors)
	assert.Len(t, res.Data["haeuser"], 1)

	res = exec(t, e, "", `query ($s: SuchkriterienInput) { haeuser(suchkriterien: $s) { id } }`, map[string]any{"s": map[string]any{"art": "REIHENHAUS"}})
	assert.Equal(t, CodeBadUserInput, firstCode(t, res))
}

func TestQuery_InvalidDocument(t *testing.T) {
	e := newTestServer(t, "test")

	res := exec(t, e, "", `{ haus(id: "1") { titel } }`, nil)
	assert.Equal(t, CodeValidationFailed, firstCode(t, res))
	assert.Nil(t, res.Data)
}

func TestMutation_Create(t *testing.T) {
	e := newTestServer(t, "test")
	mutation := `mutation ($input: HausInput!) { create(input: $input) { id } }`
	input := map[string]any{
		"preis":        250000,
		"hausflaeche":  90,
		"verkaeuflich": true,
		"art":          "BUNGALOW",
		"features":     []string{"waermepumpe"},
		"adresse":      map[string]any{"strasse": "Hauptstrasse", "plz": "12345"},
	}

	res := exec(t, e, "", mutation, map[string]any{"input": input})
	assert.Equal(t, CodeUnauthenticated, firstCode(t, res))

	res = exec(t, e, "no-role", mutation, map[string]any{"input": input})
	assert.Equal(t, CodeForbidden, firstCode(t, res))

	res = exec(t, e, "user", mutation, map[string]any{"input": input})
	require.Empty(t, res.Errors)
	assert.Equal(t, map[string]any{"id": "101"}, res.Data["create"])

	res = exec(t, e, "", `{ haus(id: "101") { features } }`, nil)
	assert.Equal(t, []any{"WAERMEPUMPE"}, res.Data["haus"].(map[string]any)["features"])

	input["preis"] = -1
	res = exec(t, e, "admin", mutation, map[string]any{"input": input})
	assert.Equal(t, CodeValidationFailed, firstCode(t, res))
	assert.Contains(t, res.Errors[0].Extensions["messages"], "preis must be a positive number")
}

func TestMutation_Update(t *testing.T) {
	e := newTestServer(t, "test")
	mutation := `mutation ($input: HausUpdateInput!) { update(input: $input) { version } }`
	input := map[string]any{"id": "1", "version": 0, "preis": 1, "hausflaeche": 1, "verkaeuflich": false}

	res := exec(t, e, "admin", mutation, map[string]any{"input": input})
	require.Empty(t, res.Errors)
	assert.Equal(t, map[string]any{"version": 1.0}, res.Data["update"])

	res = exec(t, e, "admin", mutation, map[string]any{"input": input})
	assert.Equal(t, CodeBadUserInput, firstCode(t, res))
	assert.Equal(t, "Die Versionsnummer 0 ist nicht mehr aktuell.", res.Errors[0].Message)

	input["version"] = -1
	res = exec(t, e, "admin", mutation, map[string]any{"input": input})
	assert.Equal(t, CodeBadUserInput, firstCode(t, res))
}

func TestMutation_Delete(t *testing.T) {
	e := newTestServer(t, "test")

	res := exec(t, e, "user", `mutation { delete(id: "1") }`, nil)
	assert.Equal(t, CodeForbidden, firstCode(t, res))

	res = exec(t, e, "admin", `mutation { delete(id: "1") }`, nil)
	require.Empty(t, res.Errors)
	assert.Equal(t, true, res.Data["delete"])

	res = exec(t, e, "admin", `mutation { delete(id: "1") }`, nil)
	assert.Equal(t, false, res.Data["delete"])
}

func TestMutation_Login(t *testing.T) {
	e := newTestServer(t, "test")

	res := exec(t, e, "", `mutation { login(username: "admin", password: "p") { access_token expires_in roles } }`, nil)
	require.Empty(t, res.Errors)
	assert.Equal(t, map[string]any{"access_token": "at-admin", "expires_in": 300.0, "roles": []any{"admin"}}, res.Data["login"])

	res = exec(t, e, "", `mutation { login(username: "admin", password: "x") { access_token } }`, nil)
	assert.Equal(t, CodeUnauthenticated, firstCode(t, res))

	res = exec(t, e, "", `mutation { refresh(refresh_token: "rt") { access_token } }`, nil)
	assert.Equal(t, CodeUnauthenticated, firstCode(t, res))
}

func TestHandler_MalformedRequest(t *testing.T) {
	e := newTestServer(t, "test")

	for _, body := range []string{`{`, `{"query": ""}`} {
		req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestPlayground(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t, "test").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graphql", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Haus GraphQL")

	rec = httptest.NewRecorder()
	newTestServer(t, "production").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graphql", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestExtensionCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{apperror.ErrMissingToken, CodeUnauthenticated},
		{apperror.ErrForbidden, CodeForbidden},
		{apperror.NewValidation([]string{"x"}), CodeValidationFailed},
		{apperror.ErrNotFound, CodeBadUserInput},
		{apperror.ErrVersionOutdated, CodeBadUserInput},
		{apperror.ErrDatabase, CodeInternal},
		{assert.AnError, CodeInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extensionCode(tt.err), tt.err.Error())
	}
}
