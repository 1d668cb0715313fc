package events

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/Yukasama/haus/internal/config"
)

// Module provides the event publisher
var Module = fx.Module("events",
	fx.Provide(NewPublisher),
)

// NewPublisher returns a NATS publisher when NATS_URL is set, otherwise a no-op publisher
func NewPublisher(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (Publisher, error) {
	if !cfg.Nats.Enabled() {
		log.Info("using no-op event publisher (NATS_URL not set)")
		return &noopPublisher{log: log}, nil
	}

	nc, err := Connect(cfg.Nats, log)
	if err != nil {
		return nil, err
	}

	pub := NewNatsPublisher(nc, cfg.Nats.SubjectPrefix, log)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return pub.Close()
		},
	})

	log.Info("publishing events to nats",
		slog.String("url", cfg.Nats.URL),
		slog.String("prefix", cfg.Nats.SubjectPrefix))
	return pub, nil
}
