package gql

import (
	"go.uber.org/fx"
)

var Module = fx.Module("gql",
	fx.Provide(NewRootResolver, NewSchema, NewHandler),
	fx.Invoke(RegisterRoutes),
)
