package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/koustreak/MigRi/internal/database"
	"github.com/koustreak/MigRi/internal/schema"
)

// sqliteIntrospector reads structure from sqlite_master and the table
// pragmas. PRAGMA arguments cannot be bound, so identifiers are quoted and
// interpolated.
type sqliteIntrospector struct {
	db   database.DB
	skip string
}

func (s *sqliteIntrospector) Introspect(ctx context.Context) (*schema.Database, error) {
	tables, err := s.listTables(ctx)
	if err != nil {
		return nil, err
	}

	db := schema.NewDatabase()
	for _, t := range tables {
		table, err := s.inspectTable(ctx, t.name, t.sql)
		if err != nil {
			return nil, fmt.Errorf("inspecting table %q: %w", t.name, err)
		}
		db.AddTable(table)
	}
	return db, nil
}

type sqliteMasterRow struct {
	name string
	sql  string // original CREATE TABLE text, kept for the AUTOINCREMENT check
}

func (s *sqliteIntrospector) listTables(ctx context.Context) ([]sqliteMasterRow, error) {
	const q = `
		SELECT name, sql
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []sqliteMasterRow
	for rows.Next() {
		var t sqliteMasterRow
		if err := rows.Scan(&t.name, &t.sql); err != nil {
			return nil, err
		}
		if t.name == s.skip {
			continue
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (s *sqliteIntrospector) inspectTable(ctx context.Context, table, createSQL string) (*schema.Table, error) {
	columns, pks, err := s.fetchColumns(ctx, table, createSQL)
	if err != nil {
		return nil, err
	}

	indexes, err := s.fetchIndexes(ctx, table)
	if err != nil {
		return nil, err
	}

	fks, err := s.fetchForeignKeys(ctx, table)
	if err != nil {
		return nil, err
	}

	return &schema.Table{
		Name:        table,
		Columns:     columns,
		Indexes:     indexes,
		ForeignKeys: fks,
		PrimaryKey:  pks,
	}, nil
}

func (s *sqliteIntrospector) fetchColumns(ctx context.Context, table, createSQL string) ([]schema.Column, []string, error) {
	rows, err := s.db.Query(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdent(table)))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	type colRow struct {
		col   schema.Column
		pkPos int
	}
	var raw []colRow

	for rows.Next() {
		var (
			cid, notNull, pk int
			name, native     string
			def              *string
		)
		if err := rows.Scan(&cid, &name, &native, &notNull, &def, &pk); err != nil {
			return nil, nil, err
		}

		c := schema.Column{
			Name:       name,
			Type:       semanticType(sqliteTypes, native),
			NotNull:    notNull != 0,
			Default:    def,
			PrimaryKey: pk > 0,
		}
		raw = append(raw, colRow{col: c, pkPos: pk})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	// pk in table_info is the 1-based position within the primary key.
	var pks []string
	for pos := 1; ; pos++ {
		found := false
		for _, r := range raw {
			if r.pkPos == pos {
				pks = append(pks, r.col.Name)
				found = true
			}
		}
		if !found {
			break
		}
	}

	// AUTOINCREMENT only exists for a single INTEGER PRIMARY KEY, and the
	// pragmas never report it — the stored CREATE text is the only witness.
	autoinc := len(pks) == 1 && strings.Contains(strings.ToUpper(createSQL), "AUTOINCREMENT")

	cols := make([]schema.Column, len(raw))
	for i, r := range raw {
		cols[i] = r.col
		if autoinc && r.col.Name == pks[0] && r.col.Type == "integer" {
			cols[i].AutoIncrement = true
			cols[i].Default = nil
		}
	}
	return cols, pks, nil
}

func (s *sqliteIntrospector) fetchIndexes(ctx context.Context, table string) ([]schema.Index, error) {
	rows, err := s.db.Query(ctx, fmt.Sprintf(`PRAGMA index_list(%s)`, quoteIdent(table)))
	if err != nil {
		return nil, err
	}

	type idxRow struct {
		name   string
		unique bool
	}
	var list []idxRow
	for rows.Next() {
		var (
			seq, unique, partial int
			name, origin         string
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, err
		}
		// Skip the implicit indexes SQLite creates for PRIMARY KEY and
		// UNIQUE constraints; only user-created indexes are diffable.
		if origin != "c" || strings.HasPrefix(name, "sqlite_autoindex_") {
			continue
		}
		list = append(list, idxRow{name: name, unique: unique != 0})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	var indexes []schema.Index
	for _, idx := range list {
		cols, err := s.fetchIndexColumns(ctx, idx.name)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, schema.Index{Name: idx.name, Columns: cols, Unique: idx.unique})
	}
	return indexes, nil
}

func (s *sqliteIntrospector) fetchIndexColumns(ctx context.Context, index string) ([]string, error) {
	rows, err := s.db.Query(ctx, fmt.Sprintf(`PRAGMA index_info(%s)`, quoteIdent(index)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			seqno, cid int
			name       string
		)
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func (s *sqliteIntrospector) fetchForeignKeys(ctx context.Context, table string) ([]schema.ForeignKey, error) {
	rows, err := s.db.Query(ctx, fmt.Sprintf(`PRAGMA foreign_key_list(%s)`, quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []schema.ForeignKey
	for rows.Next() {
		var (
			id, seq                   int
			refTable, from, to        string
			onUpdate, onDelete, match string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		fks = append(fks, schema.ForeignKey{
			// SQLite foreign keys are anonymous; synthesize a stable name.
			Name:      fmt.Sprintf("fk_%s_%s", table, from),
			Column:    from,
			RefTable:  refTable,
			RefColumn: to,
			OnDelete:  noAction(onDelete),
			OnUpdate:  noAction(onUpdate),
		})
	}
	return fks, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
