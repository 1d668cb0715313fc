package gql

import (
	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/labstack/echo/v4"

	"github.com/Yukasama/haus/internal/config"
	"github.com/Yukasama/haus/pkg/auth"
)

// RegisterRoutes registers the GraphQL endpoint and, outside production, the playground
func RegisterRoutes(e *echo.Echo, h *Handler, authMiddleware *auth.Middleware, cfg *config.Config) {
	e.POST("/graphql", h.Serve, authMiddleware.OptionalAuth())

	if !cfg.IsProduction() {
		e.GET("/graphql", echo.WrapHandler(playground.Handler("Haus GraphQL", "/graphql")))
	}
}
