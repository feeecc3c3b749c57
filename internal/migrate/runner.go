package migrate

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/koustreak/MigRi/internal/database"
	"github.com/koustreak/MigRi/internal/errs"
	"github.com/koustreak/MigRi/internal/logger"
)

// DefaultTable is the bookkeeping table used when none is configured.
const DefaultTable = "schema_migrations"

// appliedAtFormat is how applied_at is stored. The column is plain text so
// every supported engine scans it identically.
const appliedAtFormat = time.RFC3339

// Applied is one row of the bookkeeping table.
type Applied struct {
	Version   string
	Name      string
	AppliedAt time.Time
}

// Status pairs a migration file with its applied state.
type Status struct {
	Version   string
	Name      string
	Applied   bool
	AppliedAt time.Time // zero when not applied
}

// Runner applies and reverts migration files against one database. Each
// migration runs inside its own transaction together with its bookkeeping
// row, so a failed statement leaves no half-recorded version.
//
// Engines that auto-commit DDL (MySQL) cannot roll the schema change itself
// back; the bookkeeping row still stays consistent with what committed.
type Runner struct {
	db      database.DB
	dialect database.Dialect
	dir     string
	table   string
	log     *logger.Logger
}

// NewRunner returns a Runner over the migrations in dir. An empty table
// falls back to DefaultTable.
func NewRunner(db database.DB, dialect database.Dialect, dir, table string, log *logger.Logger) *Runner {
	if table == "" {
		table = DefaultTable
	}
	if log == nil {
		log = logger.New(logger.DefaultConfig())
	}
	return &Runner{db: db, dialect: dialect, dir: dir, table: table, log: log}
}

// ensureTable creates the bookkeeping table when it does not exist yet.
// The shape is deliberately engine-neutral: text columns only.
func (r *Runner) ensureTable(ctx context.Context) error {
	sql := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (version VARCHAR(64) PRIMARY KEY, name VARCHAR(255) NOT NULL, applied_at VARCHAR(64) NOT NULL)",
		r.table)
	if _, err := r.db.Exec(ctx, sql); err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to create migrations table", err)
	}
	return nil
}

// Applied returns the bookkeeping rows ordered by version.
func (r *Runner) Applied(ctx context.Context) ([]Applied, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}

	sql, args, err := database.Select(r.table, r.dialect).
		Columns("version", "name", "applied_at").
		OrderBy("version", database.Asc).
		Build()
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to build applied query", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Applied
	for rows.Next() {
		var a Applied
		var appliedAt string
		if err := rows.Scan(&a.Version, &a.Name, &appliedAt); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to scan migration row", err)
		}
		a.AppliedAt, _ = time.Parse(appliedAtFormat, appliedAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Up applies every pending migration in version order, oldest first.
// It returns the versions it applied.
func (r *Runner) Up(ctx context.Context) ([]string, error) {
	files, applied, err := r.plan(ctx)
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, f := range files {
		if _, ok := applied[f.Version]; ok {
			continue
		}
		log := r.log.With().Str("version", f.Version).Str("name", f.Name).Logger()
		log.Info("applying migration")

		if err := r.apply(ctx, f); err != nil {
			return ran, err
		}
		ran = append(ran, f.Version)
	}

	if len(ran) == 0 {
		r.log.Info("no pending migrations")
	}
	return ran, nil
}

// Down reverts up to steps applied migrations, newest first. steps <= 0
// means revert exactly one.
func (r *Runner) Down(ctx context.Context, steps int) ([]string, error) {
	if steps <= 0 {
		steps = 1
	}

	files, applied, err := r.plan(ctx)
	if err != nil {
		return nil, err
	}

	var reverted []string
	for i := len(files) - 1; i >= 0 && len(reverted) < steps; i-- {
		f := files[i]
		if _, ok := applied[f.Version]; !ok {
			continue
		}
		log := r.log.With().Str("version", f.Version).Str("name", f.Name).Logger()
		log.Info("reverting migration")

		if err := r.revert(ctx, f); err != nil {
			return reverted, err
		}
		reverted = append(reverted, f.Version)
	}
	return reverted, nil
}

// Status returns one entry per migration file, flagged with whether it has
// been applied and when.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	files, applied, err := r.plan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Status, 0, len(files))
	for _, f := range files {
		s := Status{Version: f.Version, Name: f.Name}
		if a, ok := applied[f.Version]; ok {
			s.Applied = true
			s.AppliedAt = a.AppliedAt
		}
		out = append(out, s)
	}
	return out, nil
}

// plan loads the migration files and the applied set in one shot.
func (r *Runner) plan(ctx context.Context) ([]File, map[string]Applied, error) {
	files, err := LoadDir(r.dir)
	if err != nil {
		return nil, nil, err
	}
	rows, err := r.Applied(ctx)
	if err != nil {
		return nil, nil, err
	}
	applied := make(map[string]Applied, len(rows))
	for _, a := range rows {
		applied[a.Version] = a
	}
	return files, applied, nil
}

// apply runs one migration's up statements and records its version, all in
// one transaction.
func (r *Runner) apply(ctx context.Context, f File) error {
	stmts, err := readStatements(f.UpPath)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			tx.Rollback(ctx)
			return errs.Wrap(errs.ErrKindQueryFailed,
				fmt.Sprintf("migration %s_%s failed", f.Version, f.Name), err)
		}
	}

	insert := fmt.Sprintf("INSERT INTO %s (version, name, applied_at) VALUES (%s, %s, %s)",
		r.table, r.placeholder(1), r.placeholder(2), r.placeholder(3))
	if _, err := tx.Exec(ctx, insert, f.Version, f.Name, time.Now().UTC().Format(appliedAtFormat)); err != nil {
		tx.Rollback(ctx)
		return errs.Wrap(errs.ErrKindQueryFailed,
			fmt.Sprintf("failed to record migration %s", f.Version), err)
	}

	return tx.Commit(ctx)
}

// revert runs one migration's down statements and deletes its version row.
func (r *Runner) revert(ctx context.Context, f File) error {
	stmts, err := readStatements(f.DownPath)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			tx.Rollback(ctx)
			return errs.Wrap(errs.ErrKindQueryFailed,
				fmt.Sprintf("revert of %s_%s failed", f.Version, f.Name), err)
		}
	}

	del := fmt.Sprintf("DELETE FROM %s WHERE version = %s", r.table, r.placeholder(1))
	if _, err := tx.Exec(ctx, del, f.Version); err != nil {
		tx.Rollback(ctx)
		return errs.Wrap(errs.ErrKindQueryFailed,
			fmt.Sprintf("failed to unrecord migration %s", f.Version), err)
	}

	return tx.Commit(ctx)
}

func (r *Runner) placeholder(n int) string {
	if r.dialect == database.DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// readStatements loads a migration file and splits it into executable
// statements.
func readStatements(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindNotFound, fmt.Sprintf("migration file %s", path), err)
	}
	return splitStatements(string(raw)), nil
}
