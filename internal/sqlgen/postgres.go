package sqlgen

import (
	"fmt"

	"github.com/koustreak/MigRi/internal/schema"
)

// postgresDialect renders DDL for the Postgres family.
type postgresDialect struct {
	base
}

func newPostgres() *postgresDialect {
	return &postgresDialect{base{
		quoteChar: `"`,
		types: map[string]string{
			"integer":   "INTEGER",
			"bigint":    "BIGINT",
			"varchar":   "VARCHAR(255)",
			"text":      "TEXT",
			"boolean":   "BOOLEAN",
			"timestamp": "TIMESTAMP",
			"json":      "JSON",
			"decimal":   "DECIMAL",
		},
	}}
}

func (p *postgresDialect) columnDef(col schema.Column, inlinePK bool) string {
	if col.AutoIncrement {
		// SERIAL implies the integer type and owns the PK clause.
		return fmt.Sprintf("%s SERIAL PRIMARY KEY", p.quote(col.Name))
	}
	return genericColumnDef(p, col, inlinePK)
}

func (p *postgresDialect) createTable(t *schema.Table) string {
	return createTableSQL(p, t)
}

func (p *postgresDialect) dropTable(name string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", p.quote(name))
}

func (p *postgresDialect) addColumn(table string, col schema.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", p.quote(table), p.columnDef(col, col.PrimaryKey))
}

func (p *postgresDialect) dropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", p.quote(table), p.quote(column))
}

func (p *postgresDialect) modifyColumn(table string, col schema.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s;",
		p.quote(table), p.quote(col.Name), p.typeName(col.Type))
}

func (p *postgresDialect) createIndex(table string, idx schema.Index) string {
	return createIndexSQL(p, table, idx)
}

func (p *postgresDialect) dropIndex(_ string, idx schema.Index) string {
	return fmt.Sprintf("DROP INDEX %s;", p.quote(idx.Name))
}

func (p *postgresDialect) addForeignKey(table string, fk schema.ForeignKey) string {
	return addForeignKeySQL(p, table, fk)
}

func (p *postgresDialect) dropForeignKey(table string, fk schema.ForeignKey) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;", p.quote(table), p.quote(fk.Name))
}
