package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Yukasama/haus/internal/config"
	"github.com/Yukasama/haus/pkg/apperror"
	"github.com/Yukasama/haus/pkg/logger"
)

// Middleware handles authentication for routes
type Middleware struct {
	cfg          *config.Config
	log          *slog.Logger
	introspector Introspector
	cache        TokenCache
}

// NewMiddleware creates a new auth middleware. A nil cache introspects every request.
func NewMiddleware(cfg *config.Config, log *slog.Logger, introspector Introspector, cache TokenCache) *Middleware {
	return &Middleware{
		cfg:          cfg,
		log:          log.With(logger.Scope("auth")),
		introspector: introspector,
		cache:        cache,
	}
}

// RequireAuth returns middleware that requires a valid bearer token
func (m *Middleware) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := m.Authenticate(c.Request())
			if err != nil {
				m.log.Warn("authentication failed", logger.Error(err))
				return err
			}

			setUser(c, user)
			return next(c)
		}
	}
}

// OptionalAuth attaches the user when the request carries a valid token and continues anonymously otherwise
func (m *Middleware) OptionalAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m.extractToken(c.Request()) != "" {
				user, err := m.Authenticate(c.Request())
				if err != nil {
					m.log.Debug("ignoring invalid token on public route", logger.Error(err))
				} else {
					setUser(c, user)
				}
			}
			return next(c)
		}
	}
}

// RequireRoles returns middleware that requires at least one of roles.
// It must run after RequireAuth.
func (m *Middleware) RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetUser(c)
			if user == nil {
				return apperror.ErrUnauthorized
			}

			if !user.HasAnyRole(roles...) {
				return echo.NewHTTPError(http.StatusForbidden, map[string]any{
					"error": map[string]any{
						"code":    "forbidden",
						"message": "Insufficient permissions",
						"details": map[string]any{
							"required": roles,
						},
					},
				})
			}

			return next(c)
		}
	}
}

func setUser(c echo.Context, user *AuthUser) {
	c.Set(string(UserContextKey), user)
	req := c.Request()
	c.SetRequest(req.WithContext(WithUser(req.Context(), user)))
}

// Authenticate extracts and validates the token of r
func (m *Middleware) Authenticate(r *http.Request) (*AuthUser, error) {
	token := m.extractToken(r)
	if token == "" {
		return nil, apperror.ErrMissingToken
	}
	return m.validateToken(r.Context(), token)
}

// extractToken extracts the bearer token from request
func (m *Middleware) extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	return ""
}

// validateToken validates the token and returns the authenticated user
func (m *Middleware) validateToken(ctx context.Context, token string) (*AuthUser, error) {
	// 1. Static test tokens (development only)
	if !m.cfg.IsProduction() {
		if user := checkTestToken(token); user != nil {
			return user, nil
		}
	}

	// 2. Introspection cache
	if m.cache != nil {
		user, err := m.cache.Get(ctx, token)
		if err != nil {
			m.log.Debug("introspection cache lookup failed", logger.Error(err))
		} else if user != nil {
			return user, nil
		}
	}

	// 3. Introspection at the identity provider
	result, err := m.introspector.Introspect(ctx, token)
	switch {
	case err == nil && result.Active:
		user := &AuthUser{
			Sub:      result.Sub,
			Username: result.Username,
			Email:    result.Email,
			Roles:    result.Roles,
		}
		m.cacheIntrospection(ctx, token, user, result.Expiry)
		return user, nil
	case err == nil:
		return nil, apperror.ErrInvalidToken.WithMessage("Token is not active")
	case !errors.Is(err, ErrIntrospectionUnavailable):
		return nil, apperror.ErrInvalidToken.WithInternal(err)
	}

	// 4. Unverified claims when introspection is off (development only)
	if m.cfg.IsProduction() {
		return nil, apperror.ErrInvalidToken.WithInternal(err)
	}
	return m.userFromClaims(token)
}

func (m *Middleware) cacheIntrospection(ctx context.Context, token string, user *AuthUser, tokenExpiry time.Time) {
	if m.cache == nil {
		return
	}
	expiresAt, ok := cacheExpiry(time.Now(), m.cfg.Keycloak.IntrospectCacheTTL, tokenExpiry)
	if !ok {
		return
	}
	if err := m.cache.Put(ctx, token, user, expiresAt); err != nil {
		m.log.Warn("caching introspection result failed", logger.Error(err))
	}
}

// userFromClaims reads roles from the JWT payload without verifying the signature
func (m *Middleware) userFromClaims(token string) (*AuthUser, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, apperror.ErrInvalidToken.WithInternal(err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || (exp != nil && exp.Before(time.Now())) {
		return nil, apperror.ErrInvalidToken.WithMessage("Token has expired")
	}

	sub, _ := claims.GetSubject()
	username, _ := claims["preferred_username"].(string)
	email, _ := claims["email"].(string)

	m.log.Debug("using unverified token claims", slog.String("sub", sub))

	return &AuthUser{
		Sub:      sub,
		Username: username,
		Email:    email,
		Roles:    ExtractRoles(claims, m.cfg.Keycloak.ClientID),
	}, nil
}

// checkTestToken maps the static development tokens to users
func checkTestToken(token string) *AuthUser {
	testTokens := map[string]*AuthUser{
		"admin":   {Sub: "test-admin", Username: "admin", Roles: []string{RoleAdmin, RoleUser}},
		"user":    {Sub: "test-user", Username: "user", Roles: []string{RoleUser}},
		"no-role": {Sub: "test-no-role", Username: "no-role", Roles: []string{}},
	}
	return testTokens[token]
}
