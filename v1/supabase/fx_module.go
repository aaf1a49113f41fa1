package supabase

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides *Client and releases it on shutdown.
var FXModule = fx.Module("supabase",
	fx.Provide(NewClient),
	fx.Invoke(RegisterSupabaseLifecycle),
)

// RegisterSupabaseLifecycle ties client teardown to the fx lifecycle.
func RegisterSupabaseLifecycle(lc fx.Lifecycle, client *Client) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.GracefulShutdown()
		},
	})
}
