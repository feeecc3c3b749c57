// Package sqlite provides a SQLite implementation of database.DB backed by
// database/sql and mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/koustreak/MigRi/internal/database"
	"github.com/koustreak/MigRi/internal/errs"
	_ "github.com/mattn/go-sqlite3" // register "sqlite3" driver
)

// Driver is a SQLite implementation of database.DB.
//
// SQLite serializes writes internally; the pool is capped at one open
// connection so DDL batches never trip over SQLITE_BUSY.
type Driver struct {
	db *sql.DB
}

// New opens the SQLite database file at cfg.DSN and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	db.SetMaxOpenConns(1)

	d := &Driver{db: db}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return d, nil
}

// --- database.DB implementation ---

func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (d *Driver) Close() {
	_ = d.db.Close()
}

func (d *Driver) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &sqliteRows{rows: rows}, nil
}

func (d *Driver) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return &sqliteRow{row: d.db.QueryRowContext(ctx, query, args...)}
}

func (d *Driver) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(err, "exec failed")
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (d *Driver) Begin(ctx context.Context) (database.Tx, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapError(err, "begin failed")
	}
	return &sqliteTx{tx: tx}, nil
}

// --- sql.DB type wrappers ---

type sqliteRows struct {
	rows *sql.Rows
}

func (r *sqliteRows) Next() bool             { return r.rows.Next() }
func (r *sqliteRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *sqliteRows) Close()                 { _ = r.rows.Close() }
func (r *sqliteRows) Err() error             { return r.rows.Err() }

type sqliteRow struct {
	row *sql.Row
}

func (r *sqliteRow) Scan(dest ...any) error {
	if err := r.row.Scan(dest...); err != nil {
		return mapError(err, "scan failed")
	}
	return nil
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &sqliteRows{rows: rows}, nil
}

func (t *sqliteTx) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return &sqliteRow{row: t.tx.QueryRowContext(ctx, query, args...)}
}

func (t *sqliteTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(err, "exec failed")
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (t *sqliteTx) Commit(_ context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return mapError(err, "commit failed")
	}
	return nil
}

func (t *sqliteTx) Rollback(_ context.Context) error {
	if err := t.tx.Rollback(); err != nil {
		return mapError(err, "rollback failed")
	}
	return nil
}
