package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/koustreak/MigRi/internal/database"
	"github.com/koustreak/MigRi/internal/schema"
)

// postgresIntrospector reads the public schema through information_schema
// and the pg_catalog index tables.
type postgresIntrospector struct {
	db   database.DB
	skip string // migrations bookkeeping table, excluded from results
}

func (p *postgresIntrospector) Introspect(ctx context.Context) (*schema.Database, error) {
	tables, err := p.listTables(ctx)
	if err != nil {
		return nil, err
	}

	db := schema.NewDatabase()
	for _, name := range tables {
		t, err := p.inspectTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("inspecting table %q: %w", name, err)
		}
		db.AddTable(t)
	}
	return db, nil
}

func (p *postgresIntrospector) listTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		  AND table_type   = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := p.db.Query(ctx, q)
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
		if name == p.skip {
			continue
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (p *postgresIntrospector) inspectTable(ctx context.Context, table string) (*schema.Table, error) {
	columns, err := p.fetchColumns(ctx, table)
	if err != nil {
		return nil, err
	}

	pks, err := p.fetchPrimaryKey(ctx, table)
	if err != nil {
		return nil, err
	}
	pkSet := make(map[string]bool, len(pks))
	for _, pk := range pks {
		pkSet[pk] = true
	}
	for i := range columns {
		if pkSet[columns[i].Name] {
			columns[i].PrimaryKey = true
		}
	}

	indexes, err := p.fetchIndexes(ctx, table)
	if err != nil {
		return nil, err
	}

	fks, err := p.fetchForeignKeys(ctx, table)
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

func (p *postgresIntrospector) fetchColumns(ctx context.Context, table string) ([]schema.Column, error) {
	const q = `
		SELECT column_name,
		       data_type,
		       is_nullable = 'NO',
		       column_default,
		       is_identity = 'YES'
		FROM information_schema.columns
		WHERE table_schema = 'public'
		  AND table_name   = $1
		ORDER BY ordinal_position`

	rows, err := p.db.Query(ctx, q, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var (
			col      schema.Column
			native   string
			def      *string
			identity bool
		)
		if err := rows.Scan(&col.Name, &native, &col.NotNull, &def, &identity); err != nil {
			return nil, err
		}

		col.Type = semanticType(postgresTypes, native)

		// Serial columns carry a nextval() default; that is the engine's
		// auto-increment machinery, not a user default.
		if identity || (def != nil && strings.HasPrefix(*def, "nextval(")) {
			col.AutoIncrement = true
		} else {
			col.Default = def
		}

		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (p *postgresIntrospector) fetchPrimaryKey(ctx context.Context, table string) ([]string, error) {
	const q = `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema    = 'public'
		  AND tc.table_name      = $1
		ORDER BY kcu.ordinal_position`

	rows, err := p.db.Query(ctx, q, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pks []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		pks = append(pks, name)
	}
	return pks, rows.Err()
}

// fetchIndexes reads non-primary indexes with their key column order from
// pg_index. information_schema has no index view, so this is pg_catalog
// territory.
func (p *postgresIntrospector) fetchIndexes(ctx context.Context, table string) ([]schema.Index, error) {
	const q = `
		SELECT i.relname,
		       a.attname,
		       ix.indisunique
		FROM pg_class t
		JOIN pg_index ix     ON t.oid = ix.indrelid
		JOIN pg_class i      ON i.oid = ix.indexrelid
		JOIN pg_attribute a  ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE t.relname  = $1
		  AND t.relkind  = 'r'
		  AND NOT ix.indisprimary
		ORDER BY i.relname, array_position(ix.indkey, a.attnum)`

	rows, err := p.db.Query(ctx, q, table)
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
			unique       bool
		)
		if err := rows.Scan(&name, &column, &unique); err != nil {
			return nil, err
		}
		if i, ok := byName[name]; ok {
			indexes[i].Columns = append(indexes[i].Columns, column)
			continue
		}
		byName[name] = len(indexes)
		indexes = append(indexes, schema.Index{Name: name, Columns: []string{column}, Unique: unique})
	}
	return indexes, rows.Err()
}

func (p *postgresIntrospector) fetchForeignKeys(ctx context.Context, table string) ([]schema.ForeignKey, error) {
	const q = `
		SELECT tc.constraint_name,
		       kcu.column_name,
		       ccu.table_name,
		       ccu.column_name,
		       rc.delete_rule,
		       rc.update_rule
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON ccu.constraint_name = tc.constraint_name
		 AND ccu.table_schema    = tc.table_schema
		JOIN information_schema.referential_constraints rc
		  ON rc.constraint_name   = tc.constraint_name
		 AND rc.constraint_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema    = 'public'
		  AND tc.table_name      = $1
		ORDER BY tc.constraint_name`

	rows, err := p.db.Query(ctx, q, table)
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
