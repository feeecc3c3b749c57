package snapshot

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/MigRi/internal/database"
	"github.com/koustreak/MigRi/internal/errs"
	"github.com/koustreak/MigRi/internal/schema"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Ping(context.Context) error { return nil }
func (m *memStore) Close() error               { return nil }

func (m *memStore) Put(_ context.Context, key string, data []byte) error {
	m.objects[key] = data
	return nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "snapshot "+key)
	}
	return data, nil
}

func (m *memStore) List(_ context.Context, prefix string) ([]Info, error) {
	var out []Info
	for key, data := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, Info{Key: key, Size: int64(len(data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func sampleDatabase() *schema.Database {
	db := schema.NewDatabase()
	db.AddTable(&schema.Table{
		Name: "users",
		Columns: []schema.Column{
			{Name: "id", Type: "integer", PrimaryKey: true, AutoIncrement: true},
			{Name: "email", Type: "varchar", NotNull: true},
		},
		Indexes:    []schema.Index{{Name: "idx_users_email", Columns: []string{"email"}, Unique: true}},
		PrimaryKey: []string{"id"},
	})
	db.AddTable(&schema.Table{
		Name: "posts",
		Columns: []schema.Column{
			{Name: "id", Type: "integer", PrimaryKey: true},
			{Name: "user_id", Type: "integer", NotNull: true},
		},
		ForeignKeys: []schema.ForeignKey{
			{Name: "fk_posts_user_id", Column: "user_id", RefTable: "users", RefColumn: "id", OnDelete: "CASCADE"},
		},
		PrimaryKey: []string{"id"},
	})
	return db
}

func TestArchiverCaptureRestoreRoundTrip(t *testing.T) {
	store := newMemStore()
	arch := NewArchiver(store)
	arch.now = func() time.Time {
		return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	}

	original := sampleDatabase()
	key, err := arch.Capture(context.Background(), database.DialectPostgres, original)
	require.NoError(t, err)
	assert.Equal(t, "snapshots/postgresql/20240301T100000Z.json", key)

	restored, snap, err := arch.Restore(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "postgresql", snap.Dialect)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), snap.CapturedAt)

	// Table order survives the round trip, and the restored state diffs
	// clean against the original.
	assert.Equal(t, original.Names(), restored.Names())
	assert.Empty(t, schema.Diff(original, restored))
}

func TestArchiverCaptureNilDatabase(t *testing.T) {
	arch := NewArchiver(newMemStore())
	_, err := arch.Capture(context.Background(), database.DialectSQLite, nil)
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestArchiverRestoreMissingKey(t *testing.T) {
	arch := NewArchiver(newMemStore())
	_, _, err := arch.Restore(context.Background(), "snapshots/postgresql/nope.json")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestArchiverRestoreCorruptSnapshot(t *testing.T) {
	store := newMemStore()
	store.objects["snapshots/mysql/bad.json"] = []byte("{not json")

	arch := NewArchiver(store)
	_, _, err := arch.Restore(context.Background(), "snapshots/mysql/bad.json")
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestArchiverListFiltersByDialect(t *testing.T) {
	store := newMemStore()
	arch := NewArchiver(store)

	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, d := range []database.Dialect{database.DialectPostgres, database.DialectMySQL, database.DialectPostgres} {
		arch.now = func() time.Time { return ts.Add(time.Duration(i) * time.Hour) }
		_, err := arch.Capture(context.Background(), d, sampleDatabase())
		require.NoError(t, err)
	}

	pg, err := arch.List(context.Background(), database.DialectPostgres)
	require.NoError(t, err)
	assert.Len(t, pg, 2)

	all, err := arch.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Lexical key order is chronological order.
	assert.True(t, sort.SliceIsSorted(pg, func(i, j int) bool { return pg[i].Key < pg[j].Key }))
}
