package devtools

import (
	"github.com/labstack/echo/v4"

	"github.com/Yukasama/haus/internal/config"
	"github.com/Yukasama/haus/pkg/auth"
)

// RegisterRoutes registers the devtools routes when DEV_DB_POPULATE is set
func RegisterRoutes(e *echo.Echo, h *Handler, authMiddleware *auth.Middleware, cfg *config.Config) {
	if !cfg.Dev.DBPopulate {
		return
	}

	g := e.Group("/dev")
	g.POST("/db_populate", h.Populate, authMiddleware.RequireAuth(), authMiddleware.RequireRoles(auth.RoleAdmin))
}
