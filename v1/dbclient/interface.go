package dbclient

import (
	"context"

	"github.com/helixdata/dbridge/v1/query"
)

// Client is the provider-agnostic database surface.
//
// Implementations:
//   - *supabase.Client
//   - *postgres.Client
//
// Every operation takes a query.Descriptor built with the query package and
// returns a *query.Result. Failures are always *query.Error values carrying
// one of the shared error kinds, regardless of backend.
type Client interface {
	// Execute runs one descriptor and returns its normalized result.
	// Read operations are retried once on connection-level failure;
	// writes are never retried.
	Execute(ctx context.Context, d query.Descriptor) (*query.Result, error)

	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error

	// GracefulShutdown releases backend resources. The client must not be
	// used afterwards.
	GracefulShutdown() error
}

// Logger is the minimal logging surface this package relies on.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}
