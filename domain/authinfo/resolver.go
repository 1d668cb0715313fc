package authinfo

import (
	"context"

	"github.com/Yukasama/haus/pkg/auth"
)

// Resolver resolves the login and refresh mutations
type Resolver struct {
	tokens auth.TokenIssuer
}

// NewResolver creates a new GraphQL resolver for tokens
func NewResolver(tokens auth.TokenIssuer) *Resolver {
	return &Resolver{tokens: tokens}
}

// Login resolves login(username, password)
func (r *Resolver) Login(ctx context.Context, args struct {
	Username string
	Password string
}) (*LoginResult, error) {
	resp, err := r.tokens.Login(ctx, args.Username, args.Password)
	if err != nil {
		return nil, err
	}
	return &LoginResult{t: resp}, nil
}

// Refresh resolves refresh(refresh_token)
func (r *Resolver) Refresh(ctx context.Context, args struct{ RefreshToken string }) (*LoginResult, error) {
	resp, err := r.tokens.Refresh(ctx, args.RefreshToken)
	if err != nil {
		return nil, err
	}
	return &LoginResult{t: resp}, nil
}

// LoginResult resolves the fields of the LoginResult type
type LoginResult struct {
	t *auth.TokenResponse
}

func (r *LoginResult) AccessToken() string {
	return r.t.AccessToken
}

func (r *LoginResult) ExpiresIn() int32 {
	return int32(r.t.ExpiresIn)
}

func (r *LoginResult) RefreshToken() string {
	return r.t.RefreshToken
}

func (r *LoginResult) RefreshExpiresIn() int32 {
	return int32(r.t.RefreshExpiresIn)
}

func (r *LoginResult) Roles() []string {
	if r.t.Roles == nil {
		return []string{}
	}
	return r.t.Roles
}
