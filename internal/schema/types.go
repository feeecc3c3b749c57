// Package schema holds the normalized, dialect-agnostic schema model and the
// diff engine that compares two model instances.
//
// All types here are immutable value snapshots: they describe schema state at
// one instant and carry no database connection. Instances are built either by
// the introspect package (current state) or the YAML loader (desired state)
// and handed straight to Diff.
package schema

// Column describes a single table column.
//
// Type is the normalized semantic type ("integer", "varchar", "text",
// "boolean", "timestamp", "json", "decimal", …). Dialect-specific spellings
// are translated to and from this vocabulary at the introspector and SQL
// generator boundaries. Default is kept in dialect-native syntax and compared
// as opaque text.
type Column struct {
	Name          string  `yaml:"name" json:"name"`
	Type          string  `yaml:"type" json:"type"`
	NotNull       bool    `yaml:"not_null" json:"notNull"`
	Default       *string `yaml:"default" json:"default,omitempty"`
	PrimaryKey    bool    `yaml:"primary_key" json:"primaryKey"`
	AutoIncrement bool    `yaml:"auto_increment" json:"autoIncrement"`
}

// Index describes a secondary index. Column order is the index key order.
type Index struct {
	Name    string   `yaml:"name" json:"name"`
	Columns []string `yaml:"columns" json:"columns"`
	Unique  bool     `yaml:"unique" json:"unique"`
}

// ForeignKey describes a single-column foreign key constraint.
// Empty OnDelete/OnUpdate means the engine default (NO ACTION).
type ForeignKey struct {
	Name      string `yaml:"name" json:"name"`
	Column    string `yaml:"column" json:"column"`
	RefTable  string `yaml:"ref_table" json:"refTable"`
	RefColumn string `yaml:"ref_column" json:"refColumn"`
	OnDelete  string `yaml:"on_delete" json:"onDelete,omitempty"`
	OnUpdate  string `yaml:"on_update" json:"onUpdate,omitempty"`
}

// Table describes one table: columns in DDL order, indexes and foreign keys
// keyed by name, and the ordered primary key column list (more than one entry
// means a composite key).
type Table struct {
	Name        string       `yaml:"name" json:"name"`
	Columns     []Column     `yaml:"columns" json:"columns"`
	Indexes     []Index      `yaml:"indexes" json:"indexes,omitempty"`
	ForeignKeys []ForeignKey `yaml:"foreign_keys" json:"foreignKeys,omitempty"`
	PrimaryKey  []string     `yaml:"primary_key" json:"primaryKey,omitempty"`
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// Index returns the index with the given name, or nil.
func (t *Table) Index(name string) *Index {
	for i := range t.Indexes {
		if t.Indexes[i].Name == name {
			return &t.Indexes[i]
		}
	}
	return nil
}

// ForeignKey returns the foreign key with the given name, or nil.
func (t *Table) ForeignKey(name string) *ForeignKey {
	for i := range t.ForeignKeys {
		if t.ForeignKeys[i].Name == name {
			return &t.ForeignKeys[i]
		}
	}
	return nil
}

// Database is the complete unit of comparison: a set of tables with a fixed
// iteration order, so diffs are reproducible run to run.
type Database struct {
	tables map[string]*Table
	order  []string
}

// NewDatabase returns an empty Database.
func NewDatabase() *Database {
	return &Database{tables: make(map[string]*Table)}
}

// AddTable registers t, replacing any previous table with the same name.
// First-add order is preserved for iteration.
func (d *Database) AddTable(t *Table) {
	if _, ok := d.tables[t.Name]; !ok {
		d.order = append(d.order, t.Name)
	}
	d.tables[t.Name] = t
}

// Table returns the table with the given name, or nil.
func (d *Database) Table(name string) *Table {
	return d.tables[name]
}

// Has reports whether a table with the given name exists.
func (d *Database) Has(name string) bool {
	_, ok := d.tables[name]
	return ok
}

// Tables returns all tables in insertion order.
func (d *Database) Tables() []*Table {
	out := make([]*Table, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.tables[name])
	}
	return out
}

// Names returns all table names in insertion order.
func (d *Database) Names() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Len returns the number of tables.
func (d *Database) Len() int {
	return len(d.tables)
}
