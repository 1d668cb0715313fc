package auth

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/Yukasama/haus/pkg/apperror"
)

// Realm roles guarding the write operations
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// AuthUser represents an authenticated user
type AuthUser struct {
	// Subject from the identity provider
	Sub string `json:"sub"`

	// Preferred username
	Username string `json:"username,omitempty"`

	// User's email address
	Email string `json:"email,omitempty"`

	// Realm and client roles granted to the user
	Roles []string `json:"roles"`
}

// HasAnyRole reports whether the user holds at least one of roles.
func (u *AuthUser) HasAnyRole(roles ...string) bool {
	for _, have := range u.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

type contextKey string

const UserContextKey contextKey = "auth_user"

// GetUser retrieves the authenticated user from the Echo context
func GetUser(c echo.Context) *AuthUser {
	if user, ok := c.Get(string(UserContextKey)).(*AuthUser); ok {
		return user
	}
	return nil
}

// WithUser stores the user in a context.Context for code outside echo handlers.
func WithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// UserFromContext retrieves the user stored by WithUser.
func UserFromContext(ctx context.Context) *AuthUser {
	if user, ok := ctx.Value(UserContextKey).(*AuthUser); ok {
		return user
	}
	return nil
}

// CheckRoles returns ErrUnauthorized when ctx carries no user and ErrForbidden
// when the user holds none of roles. It guards resolvers that run outside echo routes.
func CheckRoles(ctx context.Context, roles ...string) error {
	user := UserFromContext(ctx)
	if user == nil {
		return apperror.ErrUnauthorized
	}
	if len(roles) > 0 && !user.HasAnyRole(roles...) {
		return apperror.ErrForbidden.WithDetails(map[string]any{"required": roles})
	}
	return nil
}
