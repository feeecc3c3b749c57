package schema

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/MigRi/internal/errs"
)

// schemaFile is the YAML document shape for declarative schema files.
type schemaFile struct {
	Tables []*Table `yaml:"tables"`
}

// Load reads a declarative YAML schema file and returns the desired-state
// Database. Table iteration order is the file's declaration order.
func Load(path string) (*Database, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindNotFound, fmt.Sprintf("schema file %s", path), err)
	}
	return Parse(raw)
}

// Parse parses YAML schema bytes into a Database.
func Parse(raw []byte) (*Database, error) {
	var f schemaFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid schema YAML", err)
	}

	db := NewDatabase()
	for _, t := range f.Tables {
		if t.Name == "" {
			return nil, errs.New(errs.ErrKindInvalidInput, "schema file declares a table without a name")
		}
		if db.Has(t.Name) {
			return nil, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("duplicate table %q in schema file", t.Name))
		}
		if err := normalizeTable(t); err != nil {
			return nil, err
		}
		db.AddTable(t)
	}
	return db, nil
}

// normalizeTable validates t and reconciles the table-level primary key list
// with the per-column flags. A file may declare either; after normalization
// both views agree.
func normalizeTable(t *Table) error {
	seen := make(map[string]bool, len(t.Columns))
	for i := range t.Columns {
		name := t.Columns[i].Name
		if name == "" {
			return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("table %q declares a column without a name", t.Name))
		}
		if seen[name] {
			return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("table %q declares column %q twice", t.Name, name))
		}
		seen[name] = true
	}

	if len(t.PrimaryKey) > 0 {
		for _, pk := range t.PrimaryKey {
			col := t.Column(pk)
			if col == nil {
				return errs.New(errs.ErrKindInvalidInput,
					fmt.Sprintf("table %q primary key references unknown column %q", t.Name, pk))
			}
			col.PrimaryKey = true
		}
	} else {
		for i := range t.Columns {
			if t.Columns[i].PrimaryKey {
				t.PrimaryKey = append(t.PrimaryKey, t.Columns[i].Name)
			}
		}
	}

	names := make(map[string]bool, len(t.Indexes))
	for i := range t.Indexes {
		idx := &t.Indexes[i]
		if names[idx.Name] {
			return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("table %q declares index %q twice", t.Name, idx.Name))
		}
		names[idx.Name] = true
		for _, col := range idx.Columns {
			if !seen[col] {
				return errs.New(errs.ErrKindInvalidInput,
					fmt.Sprintf("index %q on table %q references unknown column %q", idx.Name, t.Name, col))
			}
		}
	}

	fkNames := make(map[string]bool, len(t.ForeignKeys))
	for i := range t.ForeignKeys {
		fk := &t.ForeignKeys[i]
		if fkNames[fk.Name] {
			return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("table %q declares foreign key %q twice", t.Name, fk.Name))
		}
		fkNames[fk.Name] = true
		if !seen[fk.Column] {
			return errs.New(errs.ErrKindInvalidInput,
				fmt.Sprintf("foreign key %q on table %q references unknown column %q", fk.Name, t.Name, fk.Column))
		}
	}

	return nil
}
