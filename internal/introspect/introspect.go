// Package introspect reads a live database's catalog into the normalized
// schema model. One introspector variant exists per dialect; they share no
// logic beyond the output shape, because the three catalogs have nothing in
// common.
package introspect

import (
	"context"
	"fmt"

	"github.com/koustreak/MigRi/internal/database"
	"github.com/koustreak/MigRi/internal/errs"
	"github.com/koustreak/MigRi/internal/schema"
)

// Introspector produces the current-state schema model for one database.
//
// Introspect is all-or-nothing: any catalog query failure propagates to the
// caller and no partial schema is returned. An empty database yields an
// empty model, not an error. Tables are returned in sorted name order so
// repeated runs produce identical diffs.
type Introspector interface {
	Introspect(ctx context.Context) (*schema.Database, error)
}

// New returns the introspector variant for the given dialect.
// migrationsTable names the bookkeeping table to exclude from results.
func New(db database.DB, dialect database.Dialect, migrationsTable string) (Introspector, error) {
	switch dialect {
	case database.DialectPostgres:
		return &postgresIntrospector{db: db, skip: migrationsTable}, nil
	case database.DialectMySQL:
		return &mysqlIntrospector{db: db, skip: migrationsTable}, nil
	case database.DialectSQLite:
		return &sqliteIntrospector{db: db, skip: migrationsTable}, nil
	}
	return nil, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unsupported dialect %q", dialect))
}

// noAction normalizes the engines' "engine default" referential action
// sentinel to the model's empty-string representation.
func noAction(rule string) string {
	if rule == "NO ACTION" {
		return ""
	}
	return rule
}
