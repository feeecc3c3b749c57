package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/MigRi/internal/errs"
)

// PostgreSQL SQLSTATE error classes and codes.
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgClassConnection   = "08" // connection exceptions
	pgClassIntegrity    = "23" // integrity constraint violations
	pgErrSyntaxError    = "42601"
	pgErrUndefinedTable = "42P01"
	pgErrUndefinedCol   = "42703"
	pgErrDuplicateTable = "42P07"
	pgErrInsufficient   = "42501"
)

// mapError translates pgx / pgconn native errors into *errs.Error.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		kind := errs.ErrKindQueryFailed
		switch {
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == pgClassConnection:
			kind = errs.ErrKindConnectionFailed
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == pgClassIntegrity:
			kind = errs.ErrKindConflict
		case pgErr.Code == pgErrDuplicateTable:
			kind = errs.ErrKindConflict
		case pgErr.Code == pgErrInsufficient:
			kind = errs.ErrKindPermissionDenied
		case pgErr.Code == pgErrSyntaxError, pgErr.Code == pgErrUndefinedTable, pgErr.Code == pgErrUndefinedCol:
			kind = errs.ErrKindQueryFailed
		}
		return errs.Wrap(kind, fmt.Sprintf("%s: %s", msg, pgErr.Message), err)
	}

	// Fallthrough: connection-level errors (TLS, network, auth)
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
