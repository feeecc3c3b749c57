// Package database defines the connection contract shared by all MigRi
// database drivers.
//
// All layers above this package (introspection, migration runner, server)
// talk only to the DB interface — they never import the postgres, mysql,
// or sqlite packages directly.
package database

import "context"

// DB is the central contract for all database operations.
type DB interface {
	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the connection pool.
	Close()

	// Query executes a SQL statement that returns multiple rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// QueryRow executes a SQL statement that returns at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// Exec executes a statement that returns no rows (DDL, INSERT, DELETE)
	// and reports the number of affected rows where the engine provides it.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)

	// Begin starts a transaction. The migration runner wraps every
	// migration file in one.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is an in-progress transaction. Exactly one of Commit or Rollback
// must be called.
type Tx interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// Row is an abstraction over a single database row.
type Row interface {
	Scan(dest ...any) error
}
