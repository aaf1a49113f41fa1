package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/helixdata/dbridge/v1/query"
)

// Execute runs one descriptor: validate, translate, borrow a connection,
// run the statement, materialize the returned rows.
//
// Reads (Select/Call) are retried internally at most once when the failure
// is connection-level; writes are never retried since a write whose
// acknowledgment was lost may already have applied.
func (c *Client) Execute(ctx context.Context, d query.Descriptor) (*query.Result, error) {
	if verr := d.Validate(); verr != nil {
		return nil, verr
	}
	if err := ctx.Err(); err != nil {
		return nil, query.WrapError(query.BackendError, "", fmt.Errorf("context ended before dispatch: %w", err))
	}

	sqlText, args, terr := translate(d)
	if terr != nil {
		return nil, terr
	}
	c.log.Debug("executing statement", nil, map[string]interface{}{
		"operation": d.Kind.String(),
		"target":    d.Target,
		"sql":       sqlText,
	})

	res, err := c.run(ctx, d, sqlText, args)
	if err != nil && d.ReadOnly() && query.IsConnectionFailure(err) {
		c.log.Warn("read failed at connection level, retrying once on a fresh connection", err, map[string]interface{}{
			"target": d.Target,
		})
		res, err = c.run(ctx, d, sqlText, args)
	}
	return res, err
}

// run performs one attempt on one borrowed connection.
func (c *Client) run(ctx context.Context, d query.Descriptor, sqlText string, args []any) (*query.Result, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, c.cfg.AcquireTimeout)
	defer cancel()

	conn, err := c.pool.Acquire(acquireCtx)
	if err != nil {
		return nil, query.WrapError(query.ConnectionFailure, "", fmt.Errorf("borrow connection: %w", err))
	}

	// Once the statement is dispatched it runs to completion even if the
	// caller abandons the context; interrupting mid-statement could leave
	// the database half-applied from the caller's point of view.
	execCtx := context.WithoutCancel(ctx)

	rows, execErr := c.dispatch(execCtx, conn, d, sqlText, args)
	if execErr != nil {
		qerr := mapError(execErr)
		if qerr.Kind == query.ConnectionFailure {
			// A connection that failed mid-statement may carry aborted
			// transaction or protocol state; close it so the pool opens a
			// fresh one on the next borrow.
			_ = conn.Conn().Close(execCtx)
		}
		conn.Release()
		return nil, qerr
	}
	conn.Release()

	if d.ExactlyOne {
		if len(rows) == 0 {
			return nil, query.Errorf(query.NotFound, "no rows from %q where exactly one was expected", d.Target)
		}
		if len(rows) > 1 {
			return nil, query.Errorf(query.BackendError, "%d rows from %q where exactly one was expected", len(rows), d.Target)
		}
	}
	return query.NewResult(rows), nil
}

// dispatch executes the statement, wrapping similarity-search calls in a
// transaction that pins the approximate-search recall knob for the
// statement's duration.
func (c *Client) dispatch(ctx context.Context, conn *pgxpool.Conn, d query.Descriptor, sqlText string, args []any) ([]query.Row, error) {
	if d.Kind == query.KindCall && callHasVector(d) {
		return c.callWithSearchQuality(ctx, conn, d, sqlText, args)
	}
	rows, err := conn.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows)
}

// callWithSearchQuality runs a vector-search function call with
// hnsw.ef_search set for this statement only. SET LOCAL scopes the setting
// to the wrapping transaction, so concurrent calls on other connections are
// unaffected.
func (c *Client) callWithSearchQuality(ctx context.Context, conn *pgxpool.Conn, d query.Descriptor, sqlText string, args []any) ([]query.Row, error) {
	quality := d.SearchQuality
	if quality <= 0 {
		quality = c.cfg.SearchQuality
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	// quality is a validated int, never caller text; SET LOCAL takes no
	// bound parameters.
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", quality)); err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	collected, err := collectRows(rows)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return collected, nil
}

func callHasVector(d query.Descriptor) bool {
	for _, arg := range d.Args {
		switch arg.Value.(type) {
		case []float32, pgvector.Vector:
			return true
		}
	}
	return false
}

// collectRows fully materializes the result set as column-keyed maps. No
// cursor state outlives the call.
func collectRows(rows pgx.Rows) ([]query.Row, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (query.Row, error) {
		m, err := pgx.RowToMap(row)
		return query.Row(m), err
	})
}
