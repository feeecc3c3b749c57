package schema

import "strings"

// Diff compares two databases and returns the ordered list of changes that
// turn current into desired. It is a pure function: no I/O, deterministic for
// the same inputs (table iteration follows each database's insertion order).
//
// The returned order is not execution-safe across tables — the SQL generator
// reorders globally by change rank before rendering.
func Diff(current, desired *Database) []Change {
	if current == nil {
		current = NewDatabase()
	}
	if desired == nil {
		desired = NewDatabase()
	}

	var changes []Change

	// Tables only in current: dropped. The full definition rides along so the
	// down migration can recreate the table.
	for _, name := range current.Names() {
		if !desired.Has(name) {
			changes = append(changes, Change{
				Type:      ChangeDropTable,
				TableName: name,
				Table:     current.Table(name),
			})
		}
	}

	// Tables only in desired: created, along with every index and foreign key
	// they declare (a brand-new table has no drop/alter counterparts yet).
	for _, name := range desired.Names() {
		if current.Has(name) {
			continue
		}
		t := desired.Table(name)
		changes = append(changes, Change{
			Type:      ChangeCreateTable,
			TableName: name,
			Table:     t,
		})
		for i := range t.Indexes {
			changes = append(changes, Change{
				Type:      ChangeCreateIndex,
				TableName: name,
				Index:     &t.Indexes[i],
			})
		}
		for i := range t.ForeignKeys {
			changes = append(changes, Change{
				Type:       ChangeAddForeignKey,
				TableName:  name,
				ForeignKey: &t.ForeignKeys[i],
			})
		}
	}

	// Tables in both: column, index, and foreign key level comparison.
	for _, name := range desired.Names() {
		if !current.Has(name) {
			continue
		}
		cur, des := current.Table(name), desired.Table(name)

		if cc := diffColumns(cur, des); len(cc) > 0 {
			changes = append(changes, Change{
				Type:      ChangeAlterTable,
				TableName: name,
				Columns:   cc,
			})
		}
		changes = append(changes, diffIndexes(cur, des)...)
		changes = append(changes, diffForeignKeys(cur, des)...)
	}

	return changes
}

// diffColumns compares the column sets of two versions of one table.
// Additions and modifications follow desired column order; drops follow
// current column order.
func diffColumns(cur, des *Table) []ColumnChange {
	var out []ColumnChange

	for i := range des.Columns {
		d := &des.Columns[i]
		c := cur.Column(d.Name)
		switch {
		case c == nil:
			out = append(out, ColumnChange{Type: AddColumn, New: d})
		case !columnsEqual(c, d):
			out = append(out, ColumnChange{Type: ModifyColumn, Old: c, New: d})
		}
	}

	for i := range cur.Columns {
		c := &cur.Columns[i]
		if des.Column(c.Name) == nil {
			out = append(out, ColumnChange{Type: DropColumn, Old: c})
		}
	}

	return out
}

// diffIndexes matches indexes by name. A changed index is always a drop of
// the old definition immediately followed by a create of the new one — no
// engine supports altering an index in place.
func diffIndexes(cur, des *Table) []Change {
	var out []Change

	for i := range des.Indexes {
		d := &des.Indexes[i]
		c := cur.Index(d.Name)
		switch {
		case c == nil:
			out = append(out, Change{Type: ChangeCreateIndex, TableName: cur.Name, Index: d})
		case !indexesEqual(c, d):
			out = append(out,
				Change{Type: ChangeDropIndex, TableName: cur.Name, Index: c},
				Change{Type: ChangeCreateIndex, TableName: cur.Name, Index: d},
			)
		}
	}

	for i := range cur.Indexes {
		c := &cur.Indexes[i]
		if des.Index(c.Name) == nil {
			out = append(out, Change{Type: ChangeDropIndex, TableName: cur.Name, Index: c})
		}
	}

	return out
}

// diffForeignKeys matches foreign keys by name, with the same drop+recreate
// treatment as indexes.
func diffForeignKeys(cur, des *Table) []Change {
	var out []Change

	for i := range des.ForeignKeys {
		d := &des.ForeignKeys[i]
		c := cur.ForeignKey(d.Name)
		switch {
		case c == nil:
			out = append(out, Change{Type: ChangeAddForeignKey, TableName: cur.Name, ForeignKey: d})
		case *c != *d:
			out = append(out,
				Change{Type: ChangeDropForeignKey, TableName: cur.Name, ForeignKey: c},
				Change{Type: ChangeAddForeignKey, TableName: cur.Name, ForeignKey: d},
			)
		}
	}

	for i := range cur.ForeignKeys {
		c := &cur.ForeignKeys[i]
		if des.ForeignKey(c.Name) == nil {
			out = append(out, Change{Type: ChangeDropForeignKey, TableName: cur.Name, ForeignKey: c})
		}
	}

	return out
}

// columnsEqual reports whether two column definitions are the same for
// diffing purposes. Types are compared lowercased with whitespace stripped;
// defaults are compared as opaque text after trimming surrounding quotes and
// whitespace from each side.
func columnsEqual(a, b *Column) bool {
	return normalizeType(a.Type) == normalizeType(b.Type) &&
		a.NotNull == b.NotNull &&
		a.PrimaryKey == b.PrimaryKey &&
		defaultsEqual(a.Default, b.Default)
}

func normalizeType(t string) string {
	return strings.ReplaceAll(strings.ToLower(t), " ", "")
}

func defaultsEqual(a, b *string) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return normalizeDefault(*a) == normalizeDefault(*b)
}

func normalizeDefault(v string) string {
	v = strings.TrimSpace(v)
	v = strings.Trim(v, `'"`)
	return strings.TrimSpace(v)
}

func indexesEqual(a, b *Index) bool {
	if a.Unique != b.Unique || len(a.Columns) != len(b.Columns) {
		return false
	}
	for i := range a.Columns {
		if a.Columns[i] != b.Columns[i] {
			return false
		}
	}
	return true
}
