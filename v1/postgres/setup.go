package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

// Logger is the logging interface this package depends on. It is satisfied
// by *logger.Logger but declared locally so the adapter stays decoupled from
// the concrete logging stack.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Client is the direct-SQL backend adapter. It owns a bounded connection
// pool and is safe for concurrent use; every execution borrows exactly one
// connection for its full lifetime.
type Client struct {
	pool *pgxpool.Pool
	cfg  Config
	log  Logger
}

// NewClient connects the pool and verifies reachability with an immediate
// ping so a misconfigured endpoint fails at startup, not on first query.
func NewClient(cfg Config, log Logger) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres: DSN is required")
	}
	cfg = cfg.withDefaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid DSN: %w", err)
	}
	poolCfg.MinConns = cfg.PoolMinConns
	poolCfg.MaxConns = cfg.PoolMaxConns
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	// Register pgvector codecs on every new connection. A database without
	// the extension still works for non-vector descriptors.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if regErr := pgxvector.RegisterTypes(ctx, conn); regErr != nil {
			log.Debug("pgvector types not registered; vector values unavailable", regErr, nil)
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: endpoint unreachable: %w", err)
	}

	log.Info("postgres client initialized", nil, map[string]interface{}{
		"pool_min": cfg.PoolMinConns,
		"pool_max": cfg.PoolMaxConns,
	})

	return &Client{pool: pool, cfg: cfg, log: log}, nil
}

// HealthCheck pings the database with a short timeout.
func (c *Client) HealthCheck(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres: ping failed: %w", err)
	}
	return nil
}

// GracefulShutdown closes every pooled connection. The client must not be
// used afterwards.
func (c *Client) GracefulShutdown() error {
	c.pool.Close()
	c.log.Info("postgres client shut down", nil)
	return nil
}

// Pool exposes the underlying pgx pool for advanced use (migrations,
// maintenance statements) outside the descriptor vocabulary.
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}
