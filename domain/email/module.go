package email

import (
	"context"

	"go.uber.org/fx"
)

// Module provides the notification mail pipeline
var Module = fx.Module("email",
	fx.Provide(
		NewTemplateService,
		NewSender,
		NewDispatcher,
	),
	fx.Invoke(RegisterLifecycle),
)

// RegisterLifecycle drains the dispatcher on shutdown
func RegisterLifecycle(lc fx.Lifecycle, d *Dispatcher) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			done := make(chan struct{})
			go func() {
				d.Stop()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
