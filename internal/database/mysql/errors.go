package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/MigRi/internal/errs"
)

// MySQL server error numbers.
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errDuplicateEntry  = 1062
	errNoReferencedRow = 1452
	errRowIsReferenced = 1451
	errBadFieldError   = 1054
	errNoSuchTable     = 1146
	errTableExists     = 1050
	errAccessDenied    = 1045
	errConnRefused     = 2003
	errUnknownDatabase = 1049
)

// mapError converts a MySQL driver error into *errs.Error.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case errDuplicateEntry, errTableExists:
			return errs.Wrap(errs.ErrKindConflict, fmt.Sprintf("%s: %s", msg, mysqlErr.Message), err)
		case errNoReferencedRow, errRowIsReferenced:
			return errs.Wrap(errs.ErrKindConflict, fmt.Sprintf("%s: foreign key violation: %s", msg, mysqlErr.Message), err)
		case errAccessDenied:
			return errs.Wrap(errs.ErrKindPermissionDenied, fmt.Sprintf("%s: %s", msg, mysqlErr.Message), err)
		case errConnRefused, errUnknownDatabase:
			return errs.Wrap(errs.ErrKindConnectionFailed, fmt.Sprintf("%s: %s", msg, mysqlErr.Message), err)
		case errBadFieldError, errNoSuchTable:
			return errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("%s: %s", msg, mysqlErr.Message), err)
		}
		return errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("%s: %s", msg, mysqlErr.Message), err)
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
