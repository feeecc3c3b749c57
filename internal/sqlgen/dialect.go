package sqlgen

import (
	"fmt"
	"strings"

	"github.com/koustreak/MigRi/internal/schema"
)

// dialect is the capability surface one engine family must provide. Each
// method returns a complete, independently executable statement — or, where
// the engine cannot express the operation, an explanatory SQL comment.
type dialect interface {
	quote(ident string) string
	typeName(semantic string) string
	columnDef(col schema.Column, inlinePK bool) string

	createTable(t *schema.Table) string
	dropTable(name string) string
	addColumn(table string, col schema.Column) string
	dropColumn(table, column string) string
	modifyColumn(table string, col schema.Column) string
	createIndex(table string, idx schema.Index) string
	dropIndex(table string, idx schema.Index) string
	addForeignKey(table string, fk schema.ForeignKey) string
	dropForeignKey(table string, fk schema.ForeignKey) string
}

// base carries the pieces shared by all dialects: identifier quoting
// characters and the semantic→native type table.
type base struct {
	quoteChar string
	types     map[string]string
}

func (b base) quote(ident string) string {
	return b.quoteChar + ident + b.quoteChar
}

// typeName maps a semantic type to the engine's spelling. The map is total:
// anything unmapped passes through uppercased.
func (b base) typeName(semantic string) string {
	if native, ok := b.types[strings.ToLower(semantic)]; ok {
		return native
	}
	return strings.ToUpper(semantic)
}

// --- shared rendering helpers ---

// pkColumns returns the table's ordered primary key column list, deriving it
// from per-column flags when the table-level list is absent.
func pkColumns(t *schema.Table) []string {
	if len(t.PrimaryKey) > 0 {
		return t.PrimaryKey
	}
	var pks []string
	for i := range t.Columns {
		if t.Columns[i].PrimaryKey {
			pks = append(pks, t.Columns[i].Name)
		}
	}
	return pks
}

// createTableSQL renders the CREATE TABLE statement shared by every dialect:
// column definitions in order, plus a composite PRIMARY KEY clause when the
// key spans more than one column.
func createTableSQL(d dialect, t *schema.Table) string {
	pks := pkColumns(t)
	single := len(pks) == 1

	defs := make([]string, 0, len(t.Columns)+1)
	for _, col := range t.Columns {
		defs = append(defs, "  "+d.columnDef(col, single && col.PrimaryKey))
	}
	if len(pks) > 1 {
		quoted := make([]string, len(pks))
		for i, pk := range pks {
			quoted[i] = d.quote(pk)
		}
		defs = append(defs, fmt.Sprintf("  PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", d.quote(t.Name), strings.Join(defs, ",\n"))
}

// createIndexSQL renders CREATE [UNIQUE] INDEX, identical across dialects up
// to quoting.
func createIndexSQL(d dialect, table string, idx schema.Index) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		cols[i] = d.quote(c)
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s);",
		unique, d.quote(idx.Name), d.quote(table), strings.Join(cols, ", "))
}

// addForeignKeySQL renders ALTER TABLE … ADD CONSTRAINT … FOREIGN KEY for
// the engines that support it.
func addForeignKeySQL(d dialect, table string, fk schema.ForeignKey) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s)",
		d.quote(table), d.quote(fk.Name), d.quote(fk.Column), d.quote(fk.RefTable), d.quote(fk.RefColumn))
	if fk.OnDelete != "" {
		fmt.Fprintf(&sb, " ON DELETE %s", fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		fmt.Fprintf(&sb, " ON UPDATE %s", fk.OnUpdate)
	}
	sb.WriteString(";")
	return sb.String()
}

// genericColumnDef renders the common column definition shape:
// name, type, NOT NULL, inline PRIMARY KEY, DEFAULT. Auto-increment columns
// are handled by each dialect before falling through to this.
func genericColumnDef(d dialect, col schema.Column, inlinePK bool) string {
	var sb strings.Builder
	sb.WriteString(d.quote(col.Name))
	sb.WriteString(" ")
	sb.WriteString(d.typeName(col.Type))
	if col.NotNull {
		sb.WriteString(" NOT NULL")
	}
	if inlinePK {
		sb.WriteString(" PRIMARY KEY")
	}
	if col.Default != nil {
		// Defaults are dialect-native raw text; rendered verbatim.
		sb.WriteString(" DEFAULT ")
		sb.WriteString(*col.Default)
	}
	return sb.String()
}
