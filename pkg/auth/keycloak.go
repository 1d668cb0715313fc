package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/zitadel/oidc/v3/pkg/client/rs"

	"github.com/Yukasama/haus/internal/config"
	"github.com/Yukasama/haus/pkg/logger"
)

// ErrIntrospectionUnavailable is returned while introspection is disabled,
// unconfigured or paused by the circuit breaker.
var ErrIntrospectionUnavailable = errors.New("introspection unavailable")

// Introspector validates access tokens against the identity provider
type Introspector interface {
	Introspect(ctx context.Context, token string) (*IntrospectionResult, error)
}

// KeycloakService introspects tokens at the Keycloak realm
type KeycloakService struct {
	cfg *config.KeycloakConfig
	log *slog.Logger

	// Resource server, created on first use
	resourceServer rs.ResourceServer
	rsMu           sync.Mutex

	// Circuit breaker state
	lastFailureTime time.Time
	failureMu       sync.RWMutex

	// Request coalescing per token
	inflight   map[string]*inflightRequest
	inflightMu sync.Mutex
}

type inflightRequest struct {
	done   chan struct{}
	result *IntrospectionResult
	err    error
}

// IntrospectionResult holds the parsed introspection response
type IntrospectionResult struct {
	Active   bool      `json:"active"`
	Sub      string    `json:"sub"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Roles    []string  `json:"roles"`
	Expiry   time.Time `json:"exp"`
}

const circuitBreakerCooldown = 30 * time.Second

// NewKeycloakService creates a new introspection service
func NewKeycloakService(cfg *config.Config, log *slog.Logger) *KeycloakService {
	return &KeycloakService{
		cfg:      &cfg.Keycloak,
		log:      log.With(logger.Scope("auth.keycloak")),
		inflight: make(map[string]*inflightRequest),
	}
}

// Introspect validates a token at the identity provider.
func (k *KeycloakService) Introspect(ctx context.Context, token string) (*IntrospectionResult, error) {
	if k.cfg.DisableIntrospection || k.cfg.ClientSecret == "" {
		return nil, ErrIntrospectionUnavailable
	}

	k.failureMu.RLock()
	open := time.Since(k.lastFailureTime) < circuitBreakerCooldown
	k.failureMu.RUnlock()
	if open {
		k.log.Debug("circuit breaker open, skipping introspection")
		return nil, ErrIntrospectionUnavailable
	}

	key := hashToken(token)
	k.inflightMu.Lock()
	if req, exists := k.inflight[key]; exists {
		k.inflightMu.Unlock()
		<-req.done
		return req.result, req.err
	}
	req := &inflightRequest{done: make(chan struct{})}
	k.inflight[key] = req
	k.inflightMu.Unlock()

	req.result, req.err = k.doIntrospect(ctx, token)
	close(req.done)

	k.inflightMu.Lock()
	delete(k.inflight, key)
	k.inflightMu.Unlock()

	return req.result, req.err
}

func (k *KeycloakService) doIntrospect(ctx context.Context, token string) (*IntrospectionResult, error) {
	server, err := k.getResourceServer(ctx)
	if err != nil {
		k.tripCircuitBreaker()
		return nil, fmt.Errorf("resource server init failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, k.cfg.Timeout)
	defer cancel()

	resp, err := rs.Introspect[*introspectionResponse](ctx, server, token)
	if err != nil {
		k.log.Error("introspection call failed", logger.Error(err))
		k.tripCircuitBreaker()
		return nil, fmt.Errorf("introspection failed: %w", err)
	}

	if resp == nil || !resp.Active {
		return &IntrospectionResult{Active: false}, nil
	}

	return &IntrospectionResult{
		Active:   true,
		Sub:      resp.Subject,
		Username: resp.PreferredUsername,
		Email:    resp.Email,
		Roles:    ExtractRoles(resp.claims(), k.cfg.ClientID),
		Expiry:   resp.Expiration.Time,
	}, nil
}

func (k *KeycloakService) getResourceServer(ctx context.Context) (rs.ResourceServer, error) {
	k.rsMu.Lock()
	defer k.rsMu.Unlock()

	if k.resourceServer != nil {
		return k.resourceServer, nil
	}

	issuer := k.cfg.GetIssuer()
	k.log.Info("initializing resource server",
		slog.String("issuer", issuer),
		slog.String("client_id", k.cfg.ClientID),
	)

	server, err := rs.NewResourceServerClientCredentials(ctx, issuer, k.cfg.ClientID, k.cfg.ClientSecret,
		rs.WithClient(&http.Client{Timeout: k.cfg.Timeout}),
	)
	if err != nil {
		return nil, err
	}
	k.resourceServer = server
	return server, nil
}

func (k *KeycloakService) tripCircuitBreaker() {
	k.failureMu.Lock()
	k.lastFailureTime = time.Now()
	k.failureMu.Unlock()
	k.log.Warn("circuit breaker tripped due to introspection failure")
}

// introspectionResponse is the RFC 7662 response including Keycloak's role claims
type introspectionResponse struct {
	Active            bool           `json:"active"`
	Scope             string         `json:"scope"`
	ClientID          string         `json:"client_id"`
	Expiration        Time           `json:"exp"`
	Subject           string         `json:"sub"`
	Email             string         `json:"email"`
	PreferredUsername string         `json:"preferred_username"`
	RealmAccess       map[string]any `json:"realm_access"`
	ResourceAccess    map[string]any `json:"resource_access"`
}

func (r *introspectionResponse) claims() map[string]any {
	return map[string]any{
		"realm_access":    r.RealmAccess,
		"resource_access": r.ResourceAccess,
	}
}

// Time wraps time.Time for JSON unmarshaling from Unix timestamp
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(data []byte) error {
	var timestamp int64
	if err := json.Unmarshal(data, &timestamp); err != nil {
		return err
	}
	t.Time = time.Unix(timestamp, 0)
	return nil
}
