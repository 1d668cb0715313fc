package auth

import "go.uber.org/fx"

// Module provides authentication against the Keycloak realm
var Module = fx.Module("auth",
	fx.Provide(
		fx.Annotate(NewKeycloakService, fx.As(fx.Self()), fx.As(new(Introspector))),
		fx.Annotate(NewIntrospectionCache, fx.As(fx.Self()), fx.As(new(TokenCache))),
		NewMiddleware,
		fx.Annotate(NewTokenService, fx.As(fx.Self()), fx.As(new(TokenIssuer))),
	),
	fx.Invoke(RegisterCachePurge),
)
