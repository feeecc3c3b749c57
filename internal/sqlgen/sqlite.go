package sqlgen

import (
	"fmt"

	"github.com/koustreak/MigRi/internal/schema"
)

// sqliteDialect renders DDL for SQLite. The engine cannot drop or modify
// columns, cannot add a primary key column through ALTER, and foreign keys
// exist only at table creation time; those operations degrade to explanatory
// comments rather than invalid SQL.
type sqliteDialect struct {
	base
}

func newSQLite() *sqliteDialect {
	return &sqliteDialect{base{
		quoteChar: `"`,
		types: map[string]string{
			"integer":   "INTEGER",
			"bigint":    "INTEGER",
			"varchar":   "TEXT",
			"text":      "TEXT",
			"boolean":   "INTEGER",
			"timestamp": "TEXT",
			"json":      "TEXT",
			"decimal":   "REAL",
		},
	}}
}

func (s *sqliteDialect) columnDef(col schema.Column, inlinePK bool) string {
	if col.AutoIncrement {
		// AUTOINCREMENT requires exactly INTEGER PRIMARY KEY.
		return fmt.Sprintf("%s INTEGER PRIMARY KEY AUTOINCREMENT", s.quote(col.Name))
	}
	return genericColumnDef(s, col, inlinePK)
}

func (s *sqliteDialect) createTable(t *schema.Table) string {
	return createTableSQL(s, t)
}

func (s *sqliteDialect) dropTable(name string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", s.quote(name))
}

func (s *sqliteDialect) addColumn(table string, col schema.Column) string {
	if col.PrimaryKey || col.AutoIncrement {
		return fmt.Sprintf("-- SQLite does not support adding a PRIMARY KEY column; manual migration required for %s.%s",
			table, col.Name)
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", s.quote(table), s.columnDef(col, false))
}

func (s *sqliteDialect) dropColumn(table, column string) string {
	return fmt.Sprintf("-- SQLite does not support DROP COLUMN; manual migration required to drop %s.%s",
		table, column)
}

func (s *sqliteDialect) modifyColumn(table string, col schema.Column) string {
	return fmt.Sprintf("-- SQLite does not support modifying columns; manual migration required for %s.%s",
		table, col.Name)
}

func (s *sqliteDialect) createIndex(table string, idx schema.Index) string {
	return createIndexSQL(s, table, idx)
}

func (s *sqliteDialect) dropIndex(_ string, idx schema.Index) string {
	return fmt.Sprintf("DROP INDEX %s;", s.quote(idx.Name))
}

func (s *sqliteDialect) addForeignKey(table string, fk schema.ForeignKey) string {
	return fmt.Sprintf("-- SQLite only supports foreign keys at table creation; cannot add %s on %s",
		fk.Name, table)
}

func (s *sqliteDialect) dropForeignKey(table string, fk schema.ForeignKey) string {
	return fmt.Sprintf("-- SQLite does not support dropping foreign keys; cannot drop %s on %s",
		fk.Name, table)
}
