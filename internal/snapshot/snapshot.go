package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/koustreak/MigRi/internal/database"
	"github.com/koustreak/MigRi/internal/errs"
	"github.com/koustreak/MigRi/internal/schema"
)

// keyTimeFormat orders snapshot keys chronologically when sorted lexically.
const keyTimeFormat = "20060102T150405Z"

// Snapshot is the stored document: the full table set of one database at one
// instant, plus enough metadata to interpret it.
type Snapshot struct {
	Dialect    string          `json:"dialect"`
	CapturedAt time.Time       `json:"capturedAt"`
	Tables     []*schema.Table `json:"tables"`
}

// Archiver reads and writes snapshots through a Store.
type Archiver struct {
	store Store

	// now is overridable for tests.
	now func() time.Time
}

// NewArchiver returns an Archiver over store.
func NewArchiver(store Store) *Archiver {
	return &Archiver{store: store, now: time.Now}
}

// Capture serializes db and stores it under a timestamped key, which it
// returns.
func (a *Archiver) Capture(ctx context.Context, dialect database.Dialect, db *schema.Database) (string, error) {
	if db == nil {
		return "", errs.New(errs.ErrKindInvalidInput, "cannot capture a nil database")
	}

	captured := a.now().UTC()
	snap := Snapshot{
		Dialect:    string(dialect),
		CapturedAt: captured,
		Tables:     db.Tables(),
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "failed to serialize snapshot", err)
	}

	key := Key(dialect, captured)
	if err := a.store.Put(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}

// Restore loads the snapshot at key and rebuilds its Database, preserving
// the captured table order.
func (a *Archiver) Restore(ctx context.Context, key string) (*schema.Database, *Snapshot, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil, errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("snapshot %s is not valid JSON", key), err)
	}

	db := schema.NewDatabase()
	for _, t := range snap.Tables {
		db.AddTable(t)
	}
	return db, &snap, nil
}

// List returns the stored snapshots for one dialect, oldest first. An empty
// dialect lists everything.
func (a *Archiver) List(ctx context.Context, dialect database.Dialect) ([]Info, error) {
	prefix := "snapshots/"
	if dialect != "" {
		prefix += string(dialect) + "/"
	}
	return a.store.List(ctx, prefix)
}

// Key builds the storage key for a snapshot of dialect taken at ts.
func Key(dialect database.Dialect, ts time.Time) string {
	return fmt.Sprintf("snapshots/%s/%s.json", dialect, ts.UTC().Format(keyTimeFormat))
}
