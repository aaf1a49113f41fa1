package logger

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides *Logger and flushes buffered entries on shutdown.
var FXModule = fx.Module("logger",
	fx.Provide(NewLogger),
	fx.Invoke(RegisterLoggerLifecycle),
)

// RegisterLoggerLifecycle syncs the underlying zap logger when the app stops.
func RegisterLoggerLifecycle(lc fx.Lifecycle, client *Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// Sync on stderr returns ENOTTY on some platforms; not actionable.
			_ = client.Zap.Sync()
			return nil
		},
	})
}
