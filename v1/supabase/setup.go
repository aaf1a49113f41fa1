package supabase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/supabase-community/postgrest-go"
)

// Logger is the logging interface this package depends on, satisfied by
// *logger.Logger.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Client is the managed-client backend adapter. It holds no connection
// state of its own; concurrency safety is inherited from the wrapped HTTP
// client, except for RPC dispatch which the native client records errors on
// shared state for and is therefore serialized here.
type Client struct {
	rest *postgrest.Client
	cfg  Config
	log  Logger

	// rpcMu guards Rpc calls: the native client reports RPC failures via a
	// field on the shared client value.
	rpcMu sync.Mutex
}

// NewClient validates the endpoint and credential and wraps the native
// PostgREST client. Missing configuration fails here, at startup, before
// any caller can issue a query.
func NewClient(cfg Config, log Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase: URL is required")
	}
	if cfg.ServiceKey == "" {
		return nil, fmt.Errorf("supabase: service key is required")
	}
	cfg = cfg.withDefaults()

	restURL := strings.TrimSuffix(cfg.URL, "/") + "/rest/v1"
	rest := postgrest.NewClient(restURL, cfg.Schema, map[string]string{
		"apikey":        cfg.ServiceKey,
		"Authorization": "Bearer " + cfg.ServiceKey,
	})
	if rest.ClientError != nil {
		return nil, fmt.Errorf("supabase: invalid endpoint %q: %w", restURL, rest.ClientError)
	}

	log.Info("supabase client initialized", nil, map[string]interface{}{
		"endpoint": restURL,
		"schema":   cfg.Schema,
	})

	return &Client{rest: rest, cfg: cfg, log: log}, nil
}

// HealthCheck probes the REST endpoint. The native client manages its own
// request deadlines; the context gates dispatch only.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.rest.Ping() {
		return fmt.Errorf("supabase: endpoint unreachable")
	}
	return nil
}

// GracefulShutdown exists for lifecycle symmetry with the direct-SQL
// adapter; the wrapped client keeps no persistent connections.
func (c *Client) GracefulShutdown() error {
	c.log.Info("supabase client shut down", nil)
	return nil
}

// Rest exposes the wrapped native client for operations outside the
// descriptor vocabulary.
func (c *Client) Rest() *postgrest.Client {
	return c.rest
}
