package haus

import (
	"github.com/labstack/echo/v4"

	"github.com/Yukasama/haus/pkg/auth"
)

// RegisterRoutes registers the REST routes under /rest
func RegisterRoutes(e *echo.Echo, h *Handler, authMiddleware *auth.Middleware) {
	g := e.Group("/rest")

	// Public reads
	g.GET("", h.Find)
	g.GET("/:id", h.GetByID)

	// Writes need admin or user, delete needs admin
	g.POST("", h.Create, authMiddleware.RequireAuth(), authMiddleware.RequireRoles(auth.RoleAdmin, auth.RoleUser))
	g.PUT("/:id", h.Update, authMiddleware.RequireAuth(), authMiddleware.RequireRoles(auth.RoleAdmin, auth.RoleUser))
	g.DELETE("/:id", h.Delete, authMiddleware.RequireAuth(), authMiddleware.RequireRoles(auth.RoleAdmin))
}
