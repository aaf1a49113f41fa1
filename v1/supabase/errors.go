package supabase

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"

	"github.com/helixdata/dbridge/v1/query"
)

// The hosted service reports failures as "(code) message", where code is
// either a service-level identifier (PGRST...) or a five-character SQLSTATE
// passed through from the underlying database.
var codedErrorPattern = regexp.MustCompile(`^\(([0-9A-Za-z]{3,})\)\s*`)

const codeNoSingleRow = "PGRST116"

// mapError classifies a native client failure into the shared taxonomy.
func mapError(err error) error {
	var qerr *query.Error
	if errors.As(err, &qerr) {
		return qerr
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return query.WrapError(query.ConnectionFailure, "", fmt.Errorf("request to hosted service failed: %w", err))
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return query.WrapError(query.ConnectionFailure, "", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return query.WrapError(query.ConnectionFailure, "", err)
	}

	if code, ok := errorCode(err); ok {
		return classifyCode(code, err)
	}
	return query.WrapError(query.BackendError, "", err)
}

func errorCode(err error) (string, bool) {
	match := codedErrorPattern.FindStringSubmatch(err.Error())
	if match == nil {
		return "", false
	}
	return match[1], true
}

func classifyCode(code string, cause error) error {
	if strings.HasPrefix(code, "PGRST") {
		if code == codeNoSingleRow {
			return query.WrapError(query.NotFound, code, cause)
		}
		return query.WrapError(query.BackendError, code, cause)
	}

	if len(code) == 5 {
		switch {
		case pgerrcode.IsIntegrityConstraintViolation(code):
			return query.WrapError(query.ConstraintViolation, code, cause)
		case pgerrcode.IsConnectionException(code),
			pgerrcode.IsInvalidAuthorizationSpecification(code),
			pgerrcode.IsOperatorIntervention(code):
			return query.WrapError(query.ConnectionFailure, code, cause)
		}
		return query.WrapError(query.BackendError, code, cause)
	}
	return query.WrapError(query.BackendError, code, cause)
}
