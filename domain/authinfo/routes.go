package authinfo

import (
	"github.com/labstack/echo/v4"

	"github.com/Yukasama/haus/pkg/auth"
)

// RegisterRoutes registers the auth routes
func RegisterRoutes(e *echo.Echo, h *Handler, authMiddleware *auth.Middleware) {
	g := e.Group("/auth")

	g.POST("/token", h.Token)
	g.POST("/refresh", h.Refresh)
	g.GET("/me", h.Me, authMiddleware.RequireAuth())
}
