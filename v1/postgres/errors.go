package postgres

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/helixdata/dbridge/v1/query"
)

// mapError normalizes a driver-level failure into the shared taxonomy.
// Server-reported errors carry their SQLSTATE through as the native code.
func mapError(err error) *query.Error {
	if err == nil {
		return nil
	}

	var qerr *query.Error
	if errors.As(err, &qerr) {
		return qerr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgerrcode.IsIntegrityConstraintViolation(pgErr.Code):
			return query.WrapError(query.ConstraintViolation, pgErr.Code, err)
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgerrcode.IsInvalidAuthorizationSpecification(pgErr.Code),
			pgErr.Code == pgerrcode.InvalidPassword:
			return query.WrapError(query.ConnectionFailure, pgErr.Code, err)
		case pgerrcode.IsOperatorIntervention(pgErr.Code):
			// Server shutdown / admin cancel: the connection is gone.
			return query.WrapError(query.ConnectionFailure, pgErr.Code, err)
		default:
			return query.WrapError(query.BackendError, pgErr.Code, err)
		}
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return query.WrapError(query.ConnectionFailure, "", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return query.WrapError(query.ConnectionFailure, "", err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return query.WrapError(query.ConnectionFailure, "", err)
	}

	if pgconn.SafeToRetry(err) {
		// The statement never reached the server; the failure is transport.
		return query.WrapError(query.ConnectionFailure, "", err)
	}

	return query.WrapError(query.BackendError, "", err)
}
