package postgres

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides *Client and closes the pool on shutdown.
var FXModule = fx.Module("postgres",
	fx.Provide(NewClient),
	fx.Invoke(RegisterPostgresLifecycle),
)

// RegisterPostgresLifecycle ties pool teardown to the fx lifecycle.
func RegisterPostgresLifecycle(lc fx.Lifecycle, client *Client) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.GracefulShutdown()
		},
	})
}
