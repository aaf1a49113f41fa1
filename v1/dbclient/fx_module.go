package dbclient

import (
	"context"

	"go.uber.org/fx"

	"github.com/helixdata/dbridge/v1/logger"
)

// FXModule provides dbclient.Client via dependency injection. The concrete
// backend is selected from the provided Config.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    dbclient.FXModule,
//	    fx.Provide(func() dbclient.Config {
//	        return dbclient.FromEnv()
//	    }),
//	    fx.Invoke(func(db dbclient.Client) {
//	        // ...
//	    }),
//	)
var FXModule = fx.Module("dbclient",
	fx.Provide(NewClientWithDI),
	fx.Invoke(RegisterClientLifecycle),
)

// ClientParams groups the dependencies needed to create a database client.
type ClientParams struct {
	fx.In

	Config Config
	Log    *logger.Logger
}

// ClientLifecycleParams groups the dependencies for lifecycle management.
type ClientLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    Client
	Log       *logger.Logger
}

// NewClientWithDI creates a database client using dependency injection.
func NewClientWithDI(params ClientParams) (Client, error) {
	return New(params.Config, params.Log)
}

// RegisterClientLifecycle registers the client with the fx lifecycle system
// so it is shut down cleanly with the application.
func RegisterClientLifecycle(params ClientLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return params.Client.HealthCheck(ctx)
		},
		OnStop: func(ctx context.Context) error {
			params.Log.Info("shutting down database client", nil)
			return params.Client.GracefulShutdown()
		},
	})
}
