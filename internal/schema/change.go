package schema

// ChangeType tags a top-level schema change.
type ChangeType string

const (
	ChangeCreateTable    ChangeType = "create_table"
	ChangeDropTable      ChangeType = "drop_table"
	ChangeAlterTable     ChangeType = "alter_table"
	ChangeCreateIndex    ChangeType = "create_index"
	ChangeDropIndex      ChangeType = "drop_index"
	ChangeAddForeignKey  ChangeType = "add_foreign_key"
	ChangeDropForeignKey ChangeType = "drop_foreign_key"
)

// Change is one typed schema change produced by Diff. Exactly the payload
// fields matching Type are set.
//
// Drop variants retain the full dropped definition (Table, Index, ForeignKey)
// so the SQL generator can synthesize an exact inverse — once the forward
// change is applied the original state is no longer derivable.
type Change struct {
	Type      ChangeType `json:"type"`
	TableName string     `json:"table"`

	Table      *Table         `json:"tableDef,omitempty"`    // create_table, drop_table
	Columns    []ColumnChange `json:"columns,omitempty"`     // alter_table
	Index      *Index         `json:"index,omitempty"`       // create_index, drop_index
	ForeignKey *ForeignKey    `json:"foreign_key,omitempty"` // add_foreign_key, drop_foreign_key
}

// ColumnChangeType tags a column-level change nested in an alter_table.
type ColumnChangeType string

const (
	AddColumn    ColumnChangeType = "add_column"
	DropColumn   ColumnChangeType = "drop_column"
	ModifyColumn ColumnChangeType = "modify_column"
)

// ColumnChange is one column-level change inside an alter_table.
// Old carries the pre-change definition (drop_column, modify_column) so the
// down migration can restore it; New carries the desired definition
// (add_column, modify_column).
type ColumnChange struct {
	Type ColumnChangeType `json:"type"`
	Old  *Column          `json:"old,omitempty"`
	New  *Column          `json:"new,omitempty"`
}
