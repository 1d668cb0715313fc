package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/Yukasama/haus/internal/config"
	"github.com/Yukasama/haus/pkg/apperror"
	"github.com/Yukasama/haus/pkg/logger"
)

// TokenIssuer obtains tokens from the identity provider on behalf of a user
type TokenIssuer interface {
	Login(ctx context.Context, username, password string) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
}

// TokenResponse is returned by the login and refresh operations
type TokenResponse struct {
	AccessToken      string   `json:"access_token"`
	ExpiresIn        int64    `json:"expires_in"`
	RefreshToken     string   `json:"refresh_token"`
	RefreshExpiresIn int64    `json:"refresh_expires_in"`
	Roles            []string `json:"roles"`
}

// TokenService performs the OAuth2 password and refresh grants against the realm
type TokenService struct {
	cfg    *config.KeycloakConfig
	oauth  *oauth2.Config
	client *http.Client
	log    *slog.Logger
}

// NewTokenService creates a new token service
func NewTokenService(cfg *config.Config, log *slog.Logger) *TokenService {
	kc := &cfg.Keycloak
	return &TokenService{
		cfg: kc,
		oauth: &oauth2.Config{
			ClientID:     kc.ClientID,
			ClientSecret: kc.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  kc.TokenURL(),
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{"openid"},
		},
		client: &http.Client{Timeout: kc.Timeout},
		log:    log.With(logger.Scope("auth.token")),
	}
}

// Login exchanges username and password for tokens
func (s *TokenService) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	if username == "" || password == "" {
		return nil, apperror.ErrInvalidCredentials
	}

	tok, err := s.oauth.PasswordCredentialsToken(s.withClient(ctx), username, password)
	if err != nil {
		return nil, s.mapError("login", err)
	}

	s.log.Debug("login succeeded", slog.String("username", username))
	return s.toResponse(tok), nil
}

// Refresh exchanges a refresh token for new tokens
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, apperror.ErrInvalidToken
	}

	src := s.oauth.TokenSource(s.withClient(ctx), &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Second),
	})
	tok, err := src.Token()
	if err != nil {
		return nil, s.mapError("refresh", err)
	}

	return s.toResponse(tok), nil
}

func (s *TokenService) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.client)
}

func (s *TokenService) mapError(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		switch retrieveErr.Response.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized:
			s.log.Debug(op+" rejected", slog.String("error_code", retrieveErr.ErrorCode))
			if op == "refresh" {
				return apperror.ErrInvalidToken.WithInternal(err)
			}
			return apperror.ErrInvalidCredentials.WithInternal(err)
		}
	}
	s.log.Error(op+" failed", logger.Error(err))
	return apperror.ErrServiceUnavailable.WithMessage("Identity provider unavailable").WithInternal(err)
}

func (s *TokenService) toResponse(tok *oauth2.Token) *TokenResponse {
	resp := &TokenResponse{
		AccessToken:      tok.AccessToken,
		RefreshToken:     tok.RefreshToken,
		RefreshExpiresIn: extraInt(tok.Extra("refresh_expires_in")),
		Roles:            []string{},
	}
	if !tok.Expiry.IsZero() {
		resp.ExpiresIn = int64(time.Until(tok.Expiry).Round(time.Second).Seconds())
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok.AccessToken, claims); err == nil {
		resp.Roles = ExtractRoles(claims, s.cfg.ClientID)
	}
	return resp
}

func extraInt(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
