package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/koustreak/MigRi/internal/database"
	"github.com/koustreak/MigRi/internal/schema"
)

// mysqlIntrospector reads the current database's structure through
// information_schema, filtered by DATABASE().
//
// Catalog values are scanned as text and compared in Go: the binary protocol
// types information_schema responds with vary between server versions.
type mysqlIntrospector struct {
	db   database.DB
	skip string
}

func (m *mysqlIntrospector) Introspect(ctx context.Context) (*schema.Database, error) {
	tables, err := m.listTables(ctx)
	if err != nil {
		return nil, err
	}

	db := schema.NewDatabase()
	for _, name := range tables {
		t, err := m.inspectTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("inspecting table %q: %w", name, err)
		}
		db.AddTable(t)
	}
	return db, nil
}

func (m *mysqlIntrospector) listTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type   = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := m.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if name == m.skip {
			continue
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (m *mysqlIntrospector) inspectTable(ctx context.Context, table string) (*schema.Table, error) {
	columns, pks, err := m.fetchColumns(ctx, table)
	if err != nil {
		return nil, err
	}

	indexes, err := m.fetchIndexes(ctx, table)
	if err != nil {
		return nil, err
	}

	fks, err := m.fetchForeignKeys(ctx, table)
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

func (m *mysqlIntrospector) fetchColumns(ctx context.Context, table string) ([]schema.Column, []string, error) {
	const q = `
		SELECT column_name,
		       data_type,
		       is_nullable,
		       column_default,
		       column_key,
		       extra
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		  AND table_name   = ?
		ORDER BY ordinal_position`

	rows, err := m.db.Query(ctx, q, table)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var (
		cols []schema.Column
		pks  []string
	)
	for rows.Next() {
		var (
			col                          schema.Column
			native, nullable, key, extra string
			def                          *string
		)
		if err := rows.Scan(&col.Name, &native, &nullable, &def, &key, &extra); err != nil {
			return nil, nil, err
		}

		col.Type = semanticType(mysqlTypes, native)
		col.NotNull = nullable == "NO"
		col.PrimaryKey = key == "PRI"
		col.AutoIncrement = strings.Contains(strings.ToLower(extra), "auto_increment")
		if !col.AutoIncrement {
			col.Default = def
		}

		if col.PrimaryKey {
			pks = append(pks, col.Name)
		}
		cols = append(cols, col)
	}
	return cols, pks, rows.Err()
}

// fetchIndexes reads secondary indexes from the statistics table. The
// PRIMARY pseudo-index is the primary key and is skipped.
func (m *mysqlIntrospector) fetchIndexes(ctx context.Context, table string) ([]schema.Index, error) {
	const q = `
		SELECT index_name,
		       column_name,
		       non_unique
		FROM information_schema.statistics
		WHERE table_schema = DATABASE()
		  AND table_name   = ?
		  AND index_name  != 'PRIMARY'
		ORDER BY index_name, seq_in_index`

	rows, err := m.db.Query(ctx, q, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		indexes []schema.Index
		byName  = make(map[string]int)
	)
	for rows.Next() {
		var (
			name, column string
			nonUnique    int
		)
		if err := rows.Scan(&name, &column, &nonUnique); err != nil {
			return nil, err
		}
		if i, ok := byName[name]; ok {
			indexes[i].Columns = append(indexes[i].Columns, column)
			continue
		}
		byName[name] = len(indexes)
		indexes = append(indexes, schema.Index{Name: name, Columns: []string{column}, Unique: nonUnique == 0})
	}
	return indexes, rows.Err()
}

func (m *mysqlIntrospector) fetchForeignKeys(ctx context.Context, table string) ([]schema.ForeignKey, error) {
	const q = `
		SELECT kcu.constraint_name,
		       kcu.column_name,
		       kcu.referenced_table_name,
		       kcu.referenced_column_name,
		       rc.delete_rule,
		       rc.update_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
		  ON rc.constraint_name   = kcu.constraint_name
		 AND rc.constraint_schema = kcu.table_schema
		WHERE kcu.table_schema               = DATABASE()
		  AND kcu.table_name                 = ?
		  AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.constraint_name`

	rows, err := m.db.Query(ctx, q, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []schema.ForeignKey
	for rows.Next() {
		var fk schema.ForeignKey
		var onDelete, onUpdate string
		if err := rows.Scan(&fk.Name, &fk.Column, &fk.RefTable, &fk.RefColumn, &onDelete, &onUpdate); err != nil {
			return nil, err
		}
		fk.OnDelete = noAction(onDelete)
		fk.OnUpdate = noAction(onUpdate)
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}
