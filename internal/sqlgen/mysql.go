package sqlgen

import (
	"fmt"
	"strings"

	"github.com/koustreak/MigRi/internal/schema"
)

// mysqlDialect renders DDL for the MySQL family. Index names are scoped to
// their table, so DROP INDEX always carries an ON clause.
type mysqlDialect struct {
	base
}

func newMySQL() *mysqlDialect {
	return &mysqlDialect{base{
		quoteChar: "`",
		types: map[string]string{
			"integer":   "INT",
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

func (m *mysqlDialect) columnDef(col schema.Column, inlinePK bool) string {
	if col.AutoIncrement {
		var sb strings.Builder
		sb.WriteString(m.quote(col.Name))
		sb.WriteString(" ")
		sb.WriteString(m.typeName(col.Type))
		if col.NotNull {
			sb.WriteString(" NOT NULL")
		}
		sb.WriteString(" AUTO_INCREMENT PRIMARY KEY")
		return sb.String()
	}
	return genericColumnDef(m, col, inlinePK)
}

func (m *mysqlDialect) createTable(t *schema.Table) string {
	return createTableSQL(m, t)
}

func (m *mysqlDialect) dropTable(name string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", m.quote(name))
}

func (m *mysqlDialect) addColumn(table string, col schema.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", m.quote(table), m.columnDef(col, col.PrimaryKey))
}

func (m *mysqlDialect) dropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", m.quote(table), m.quote(column))
}

func (m *mysqlDialect) modifyColumn(table string, col schema.Column) string {
	return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;", m.quote(table), m.columnDef(col, false))
}

func (m *mysqlDialect) createIndex(table string, idx schema.Index) string {
	return createIndexSQL(m, table, idx)
}

func (m *mysqlDialect) dropIndex(table string, idx schema.Index) string {
	return fmt.Sprintf("DROP INDEX %s ON %s;", m.quote(idx.Name), m.quote(table))
}

func (m *mysqlDialect) addForeignKey(table string, fk schema.ForeignKey) string {
	return addForeignKeySQL(m, table, fk)
}

func (m *mysqlDialect) dropForeignKey(table string, fk schema.ForeignKey) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;", m.quote(table), m.quote(fk.Name))
}
