package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/koustreak/MigRi/internal/errs"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// mapError converts a go-sqlite3 error into *errs.Error.
// https://www.sqlite.org/rescode.html
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

	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code {
		case sqlite3.ErrConstraint:
			return errs.Wrap(errs.ErrKindConflict, fmt.Sprintf("%s: %v", msg, sqErr), err)
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return errs.Wrap(errs.ErrKindTimeout, fmt.Sprintf("%s: database is locked", msg), err)
		case sqlite3.ErrCantOpen, sqlite3.ErrNotADB:
			return errs.Wrap(errs.ErrKindConnectionFailed, fmt.Sprintf("%s: %v", msg, sqErr), err)
		case sqlite3.ErrPerm, sqlite3.ErrAuth, sqlite3.ErrReadonly:
			return errs.Wrap(errs.ErrKindPermissionDenied, fmt.Sprintf("%s: %v", msg, sqErr), err)
		}
		return errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("%s: %v", msg, sqErr), err)
	}

	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}
