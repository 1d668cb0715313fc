// Package main provides the entry point for the Haus API server
//
// @title Haus API
// @version 1.0.0
// @description CRUD backend for houses with REST (HAL) and GraphQL interfaces
// @license.name GPL-3.0-or-later
// @host localhost:3000
// @BasePath /
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Keycloak access token (format: "Bearer <token>")
package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Yukasama/haus/domain/authinfo"
	"github.com/Yukasama/haus/domain/devtools"
	"github.com/Yukasama/haus/domain/email"
	"github.com/Yukasama/haus/domain/events"
	"github.com/Yukasama/haus/domain/gql"
	"github.com/Yukasama/haus/domain/haus"
	"github.com/Yukasama/haus/domain/health"
	"github.com/Yukasama/haus/domain/tracing"
	"github.com/Yukasama/haus/internal/config"
	"github.com/Yukasama/haus/internal/database"
	"github.com/Yukasama/haus/internal/migrate"
	"github.com/Yukasama/haus/internal/server"
	"github.com/Yukasama/haus/pkg/auth"
	"github.com/Yukasama/haus/pkg/logger"
)

func main() {
	// .env.local overrides .env; Load() keeps existing vars, Overload() does not
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	fx.New(
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log}
		}),

		// Infrastructure
		logger.Module,
		config.Module,
		database.Module,
		migrate.Module,
		server.Module,
		tracing.Module,

		auth.Module,

		// Side effects of writes
		email.Module,
		events.Module,

		// Domain
		health.Module,
		authinfo.Module,
		haus.Module,
		gql.Module,

		// Must follow migrate so the schema exists before seeding
		devtools.Module,
	).Run()
}
