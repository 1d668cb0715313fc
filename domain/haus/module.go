package haus

import (
	"go.uber.org/fx"

	"github.com/Yukasama/haus/domain/email"
	"github.com/Yukasama/haus/domain/events"
)

// Module provides the house domain
var Module = fx.Module("haus",
	fx.Provide(
		NewQueryBuilder,
		fx.Annotate(NewRepository, fx.As(new(Store))),
		func(d *email.Dispatcher) Mailer { return d },
		func(p events.Publisher) EventPublisher { return p },
		NewReadService,
		NewWriteService,
		NewHandler,
		NewResolver,
	),
	fx.Invoke(RegisterRoutes),
)
