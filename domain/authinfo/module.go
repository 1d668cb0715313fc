package authinfo

import (
	"go.uber.org/fx"
)

var Module = fx.Module("authinfo",
	fx.Provide(NewHandler, NewResolver),
	fx.Invoke(RegisterRoutes),
)
