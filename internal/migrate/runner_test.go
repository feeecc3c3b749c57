package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/MigRi/internal/database"
)

// fakeDB records every executed statement and serves canned bookkeeping
// rows. It stands in for all three real drivers, which share the same
// database.DB contract.
type fakeDB struct {
	executed   []string          // statements run outside transactions
	txExecuted []string          // statements run inside committed transactions
	applied    [][3]string       // rows served for the bookkeeping query
	failOn     string            // substring that makes Exec fail
	rolledBack int
	committed  int
}

func (f *fakeDB) Ping(context.Context) error { return nil }
func (f *fakeDB) Close()                     {}

func (f *fakeDB) Query(_ context.Context, sql string, _ ...any) (database.Rows, error) {
	f.executed = append(f.executed, sql)
	return &fakeRows{rows: f.applied}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, _ ...any) database.Row {
	f.executed = append(f.executed, sql)
	return &fakeRow{}
}

func (f *fakeDB) Exec(_ context.Context, sql string, _ ...any) (int64, error) {
	f.executed = append(f.executed, sql)
	return 0, nil
}

func (f *fakeDB) Begin(context.Context) (database.Tx, error) {
	return &fakeTx{db: f}, nil
}

type fakeTx struct {
	db      *fakeDB
	pending []string
}

func (t *fakeTx) Query(_ context.Context, sql string, _ ...any) (database.Rows, error) {
	return &fakeRows{}, nil
}

func (t *fakeTx) QueryRow(_ context.Context, sql string, _ ...any) database.Row {
	return &fakeRow{}
}

func (t *fakeTx) Exec(_ context.Context, sql string, _ ...any) (int64, error) {
	if t.db.failOn != "" && strings.Contains(sql, t.db.failOn) {
		return 0, fmt.Errorf("forced failure on %q", t.db.failOn)
	}
	t.pending = append(t.pending, sql)
	return 0, nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.db.txExecuted = append(t.db.txExecuted, t.pending...)
	t.db.committed++
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.db.rolledBack++
	return nil
}

type fakeRows struct {
	rows [][3]string
	pos  int
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	for i, d := range dest {
		*(d.(*string)) = row[i]
	}
	return nil
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return nil }

type fakeRow struct{}

func (r *fakeRow) Scan(...any) error { return nil }

// writePair drops a migration file pair into dir.
func writePair(t *testing.T, dir, version, name, up, down string) {
	t.Helper()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, fmt.Sprintf("%s_%s.up.sql", version, name)), []byte(up), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, fmt.Sprintf("%s_%s.down.sql", version, name)), []byte(down), 0o644))
}

func TestRunnerUpAppliesPendingInOrder(t *testing.T) {
	dir := t.TempDir()
	writePair(t, dir, "20240102000000", "add_posts",
		"CREATE TABLE \"posts\" (\n  \"id\" SERIAL PRIMARY KEY\n);\n",
		`DROP TABLE IF EXISTS "posts";`)
	writePair(t, dir, "20240101000000", "add_users",
		`CREATE TABLE "users" (
  "id" SERIAL PRIMARY KEY
);

CREATE UNIQUE INDEX "idx_users_email" ON "users" ("email");`,
		`DROP INDEX "idx_users_email";

DROP TABLE IF EXISTS "users";`)

	db := &fakeDB{}
	r := NewRunner(db, database.DialectPostgres, dir, "", nil)

	ran, err := r.Up(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"20240101000000", "20240102000000"}, ran)
	assert.Equal(t, 2, db.committed)

	// Two statements for the first migration, one for the second, plus one
	// bookkeeping insert each.
	require.Len(t, db.txExecuted, 5)
	assert.Contains(t, db.txExecuted[0], `CREATE TABLE "users"`)
	assert.Contains(t, db.txExecuted[1], "CREATE UNIQUE INDEX")
	assert.Contains(t, db.txExecuted[2], "INSERT INTO schema_migrations")
	assert.Contains(t, db.txExecuted[3], `CREATE TABLE "posts"`)
	assert.Contains(t, db.txExecuted[4], "INSERT INTO schema_migrations")
}

func TestRunnerUpSkipsApplied(t *testing.T) {
	dir := t.TempDir()
	writePair(t, dir, "20240101000000", "add_users", `CREATE TABLE "users" ("id" INTEGER);`, `DROP TABLE IF EXISTS "users";`)

	db := &fakeDB{applied: [][3]string{
		{"20240101000000", "add_users", "2024-01-01T00:00:00Z"},
	}}
	r := NewRunner(db, database.DialectPostgres, dir, "", nil)

	ran, err := r.Up(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ran)
	assert.Zero(t, db.committed)
}

func TestRunnerUpRollsBackOnFailure(t *testing.T) {
	dir := t.TempDir()
	writePair(t, dir, "20240101000000", "bad", `CREATE TABLE "a" ("id" INTEGER);

CREATE TABLE "boom" ("id" INTEGER);`, `DROP TABLE IF EXISTS "a";`)

	db := &fakeDB{failOn: "boom"}
	r := NewRunner(db, database.DialectPostgres, dir, "", nil)

	ran, err := r.Up(context.Background())
	require.Error(t, err)
	assert.Empty(t, ran)
	assert.Equal(t, 1, db.rolledBack)
	assert.Zero(t, db.committed)
	assert.Empty(t, db.txExecuted)
}

func TestRunnerDownRevertsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	writePair(t, dir, "20240101000000", "add_users", `CREATE TABLE "users" ("id" INTEGER);`, `DROP TABLE IF EXISTS "users";`)
	writePair(t, dir, "20240102000000", "add_posts", `CREATE TABLE "posts" ("id" INTEGER);`, `DROP TABLE IF EXISTS "posts";`)

	db := &fakeDB{applied: [][3]string{
		{"20240101000000", "add_users", "2024-01-01T00:00:00Z"},
		{"20240102000000", "add_posts", "2024-01-02T00:00:00Z"},
	}}
	r := NewRunner(db, database.DialectMySQL, dir, "migri_versions", nil)

	reverted, err := r.Down(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"20240102000000"}, reverted)

	require.Len(t, db.txExecuted, 2)
	assert.Contains(t, db.txExecuted[0], `DROP TABLE IF EXISTS "posts"`)
	assert.Contains(t, db.txExecuted[1], "DELETE FROM migri_versions")
	// MySQL placeholders, not $n.
	assert.Contains(t, db.txExecuted[1], "?")
}

func TestRunnerStatus(t *testing.T) {
	dir := t.TempDir()
	writePair(t, dir, "20240101000000", "add_users", `CREATE TABLE "users" ("id" INTEGER);`, `DROP TABLE IF EXISTS "users";`)
	writePair(t, dir, "20240102000000", "add_posts", `CREATE TABLE "posts" ("id" INTEGER);`, `DROP TABLE IF EXISTS "posts";`)

	db := &fakeDB{applied: [][3]string{
		{"20240101000000", "add_users", "2024-01-01T12:30:00Z"},
	}}
	r := NewRunner(db, database.DialectSQLite, dir, "", nil)

	statuses, err := r.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	assert.True(t, statuses[0].Applied)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC), statuses[0].AppliedAt)
	assert.False(t, statuses[1].Applied)
	assert.True(t, statuses[1].AppliedAt.IsZero())
}

func TestRunnerEnsuresBookkeepingTable(t *testing.T) {
	dir := t.TempDir()
	db := &fakeDB{}
	r := NewRunner(db, database.DialectPostgres, dir, "", nil)

	_, err := r.Applied(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, db.executed)
	assert.Contains(t, db.executed[0], "CREATE TABLE IF NOT EXISTS schema_migrations")
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "single statement",
			content: `DROP TABLE IF EXISTS "users";`,
			want:    []string{`DROP TABLE IF EXISTS "users";`},
		},
		{
			name: "multiline statement",
			content: `CREATE TABLE "users" (
  "id" SERIAL PRIMARY KEY
);`,
			want: []string{"CREATE TABLE \"users\" (\n  \"id\" SERIAL PRIMARY KEY\n);"},
		},
		{
			name:    "comment lines are dropped",
			content: "-- SQLite does not support DROP COLUMN; manual migration required to drop users.email\n",
			want:    nil,
		},
		{
			name: "mixed comments and statements",
			content: `-- header
CREATE INDEX "i" ON "t" ("c");

-- SQLite does not support DROP COLUMN; manual migration required to drop t.x

DROP INDEX "i";`,
			want: []string{`CREATE INDEX "i" ON "t" ("c");`, `DROP INDEX "i";`},
		},
		{
			name:    "empty file",
			content: "\n\n",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitStatements(tt.content))
		})
	}
}

func TestLoadDirErrors(t *testing.T) {
	t.Run("missing down file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "20240101000000_x.up.sql"), []byte("SELECT 1;"), 0o644))
		_, err := LoadDir(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no down file")
	})

	t.Run("version reused with different name", func(t *testing.T) {
		dir := t.TempDir()
		writePair(t, dir, "20240101000000", "a", "SELECT 1;", "SELECT 1;")
		require.NoError(t, os.WriteFile(filepath.Join(dir, "20240101000000_b.up.sql"), []byte("SELECT 1;"), 0o644))
		_, err := LoadDir(dir)
		require.Error(t, err)
	})

	t.Run("unrelated files ignored", func(t *testing.T) {
		dir := t.TempDir()
		writePair(t, dir, "20240101000000", "a", "SELECT 1;", "SELECT 1;")
		require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0o644))
		files, err := LoadDir(dir)
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})
}
