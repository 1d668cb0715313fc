package authinfo

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Yukasama/haus/pkg/apperror"
	"github.com/Yukasama/haus/pkg/auth"
	"github.com/Yukasama/haus/pkg/logger"
)

// Handler handles the token and identity endpoints
type Handler struct {
	tokens auth.TokenIssuer
	log    *slog.Logger
}

// NewHandler creates a new auth info handler
func NewHandler(tokens auth.TokenIssuer, log *slog.Logger) *Handler {
	return &Handler{
		tokens: tokens,
		log:    log.With(logger.Scope("authinfo")),
	}
}

// LoginRequest is the body of POST /auth/token
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// RefreshRequest is the body of POST /auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

// MeResponse is the response for GET /auth/me
type MeResponse struct {
	Sub      string   `json:"sub"`
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles"`
}

// Token handles POST /auth/token
// @Summary      Log in
// @Description  Exchanges username and password for an access and a refresh token
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} auth.TokenResponse
// @Failure      401 {object} apperror.Error "Invalid credentials"
// @Failure      503 {object} apperror.Error "Identity provider unavailable"
// @Router       /auth/token [post]
func (h *Handler) Token(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body").WithInternal(err)
	}

	resp, err := h.tokens.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh handles POST /auth/refresh
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        request body RefreshRequest true "Refresh token"
// @Success      200 {object} auth.TokenResponse
// @Failure      401 {object} apperror.Error "Invalid refresh token"
// @Router       /auth/refresh [post]
func (h *Handler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request body").WithInternal(err)
	}

	resp, err := h.tokens.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Me handles GET /auth/me
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200 {object} MeResponse
// @Failure      401 {object} apperror.Error "Unauthorized"
// @Router       /auth/me [get]
// @Security     bearerAuth
func (h *Handler) Me(c echo.Context) error {
	user := auth.GetUser(c)
	if user == nil {
		return apperror.ErrUnauthorized
	}

	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	return c.JSON(http.StatusOK, MeResponse{
		Sub:      user.Sub,
		Username: user.Username,
		Email:    user.Email,
		Roles:    roles,
	})
}
