package devtools

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/Yukasama/haus/internal/config"
)

var Module = fx.Module("devtools",
	fx.Provide(
		NewPopulator,
		func(p *Populator) Seeder { return p },
		NewHandler,
	),
	fx.Invoke(RegisterRoutes, RegisterLifecycle),
)

// RegisterLifecycle loads the seed once on start when DEV_DB_POPULATE is set.
// It must be invoked after the migrations are registered.
func RegisterLifecycle(lc fx.Lifecycle, seeder Seeder, cfg *config.Config, log *slog.Logger) {
	if !cfg.Dev.DBPopulate {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Warn("DEV_DB_POPULATE is set, replacing all houses with seed data")
			_, err := seeder.Populate(ctx)
			return err
		},
	})
}
