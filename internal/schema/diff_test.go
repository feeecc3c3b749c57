package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func usersTable() *Table {
	return &Table{
		Name: "users",
		Columns: []Column{
			{Name: "id", Type: "integer", PrimaryKey: true, AutoIncrement: true},
			{Name: "email", Type: "varchar", NotNull: true},
		},
		Indexes: []Index{
			{Name: "idx_users_email", Columns: []string{"email"}, Unique: true},
		},
		PrimaryKey: []string{"id"},
	}
}

func postsTable() *Table {
	return &Table{
		Name: "posts",
		Columns: []Column{
			{Name: "id", Type: "integer", PrimaryKey: true, AutoIncrement: true},
			{Name: "user_id", Type: "integer", NotNull: true},
		},
		ForeignKeys: []ForeignKey{
			{Name: "fk_posts_user_id", Column: "user_id", RefTable: "users", RefColumn: "id", OnDelete: "CASCADE"},
		},
		PrimaryKey: []string{"id"},
	}
}

func dbWith(tables ...*Table) *Database {
	db := NewDatabase()
	for _, t := range tables {
		db.AddTable(t)
	}
	return db
}

func TestDiffSelfIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		db   *Database
	}{
		{"empty", NewDatabase()},
		{"single table", dbWith(usersTable())},
		{"table with fk and index", dbWith(usersTable(), postsTable())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, Diff(tt.db, tt.db))
		})
	}
}

func TestDiffNilInputs(t *testing.T) {
	assert.Empty(t, Diff(nil, nil))

	changes := Diff(nil, dbWith(usersTable()))
	require.Len(t, changes, 2) // create_table + create_index
	assert.Equal(t, ChangeCreateTable, changes[0].Type)
}

func TestDiffCreateTable(t *testing.T) {
	changes := Diff(NewDatabase(), dbWith(postsTable()))

	require.Len(t, changes, 2)
	assert.Equal(t, ChangeCreateTable, changes[0].Type)
	assert.Equal(t, "posts", changes[0].TableName)
	require.NotNil(t, changes[0].Table)

	// A brand-new table's foreign keys ride along as separate changes.
	assert.Equal(t, ChangeAddForeignKey, changes[1].Type)
	assert.Equal(t, "fk_posts_user_id", changes[1].ForeignKey.Name)
}

func TestDiffCreateTableEmitsIndexes(t *testing.T) {
	changes := Diff(NewDatabase(), dbWith(usersTable()))

	require.Len(t, changes, 2)
	assert.Equal(t, ChangeCreateTable, changes[0].Type)
	assert.Equal(t, ChangeCreateIndex, changes[1].Type)
	assert.Equal(t, "idx_users_email", changes[1].Index.Name)
}

func TestDiffDropTable(t *testing.T) {
	changes := Diff(dbWith(usersTable()), NewDatabase())

	require.Len(t, changes, 1)
	assert.Equal(t, ChangeDropTable, changes[0].Type)
	assert.Equal(t, "users", changes[0].TableName)
	// The dropped definition is retained for the down migration.
	require.NotNil(t, changes[0].Table)
	assert.Len(t, changes[0].Table.Columns, 2)
}

func TestDiffColumnAddDropSymmetry(t *testing.T) {
	withEmail := usersTable()
	withoutEmail := &Table{
		Name: "users",
		Columns: []Column{
			{Name: "id", Type: "integer", PrimaryKey: true, AutoIncrement: true},
		},
		Indexes:    withEmail.Indexes,
		PrimaryKey: []string{"id"},
	}

	changes := Diff(dbWith(withoutEmail), dbWith(withEmail))
	require.Len(t, changes, 1)
	require.Equal(t, ChangeAlterTable, changes[0].Type)
	require.Len(t, changes[0].Columns, 1)
	cc := changes[0].Columns[0]
	assert.Equal(t, AddColumn, cc.Type)
	assert.Equal(t, "email", cc.New.Name)

	reverse := Diff(dbWith(withEmail), dbWith(withoutEmail))
	require.Len(t, reverse, 1)
	require.Len(t, reverse[0].Columns, 1)
	cc = reverse[0].Columns[0]
	assert.Equal(t, DropColumn, cc.Type)
	assert.Equal(t, "email", cc.Old.Name)
}

func TestDiffModifyColumn(t *testing.T) {
	tests := []struct {
		name     string
		current  Column
		desired  Column
		modified bool
	}{
		{
			name:     "type change",
			current:  Column{Name: "age", Type: "integer"},
			desired:  Column{Name: "age", Type: "bigint"},
			modified: true,
		},
		{
			name:     "type differs only in case and spacing",
			current:  Column{Name: "age", Type: "Big Int"},
			desired:  Column{Name: "age", Type: "bigint"},
			modified: false,
		},
		{
			name:     "not null change",
			current:  Column{Name: "age", Type: "integer"},
			desired:  Column{Name: "age", Type: "integer", NotNull: true},
			modified: true,
		},
		{
			name:     "primary key change",
			current:  Column{Name: "age", Type: "integer"},
			desired:  Column{Name: "age", Type: "integer", PrimaryKey: true},
			modified: true,
		},
		{
			name:     "default change",
			current:  Column{Name: "age", Type: "integer", Default: strPtr("0")},
			desired:  Column{Name: "age", Type: "integer", Default: strPtr("18")},
			modified: true,
		},
		{
			name:     "default differs only in quoting",
			current:  Column{Name: "status", Type: "varchar", Default: strPtr("'active'")},
			desired:  Column{Name: "status", Type: "varchar", Default: strPtr("active")},
			modified: false,
		},
		{
			name:     "default added",
			current:  Column{Name: "age", Type: "integer"},
			desired:  Column{Name: "age", Type: "integer", Default: strPtr("0")},
			modified: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := dbWith(&Table{Name: "t", Columns: []Column{tt.current}})
			des := dbWith(&Table{Name: "t", Columns: []Column{tt.desired}})

			changes := Diff(cur, des)
			if !tt.modified {
				assert.Empty(t, changes)
				return
			}
			require.Len(t, changes, 1)
			require.Equal(t, ChangeAlterTable, changes[0].Type)
			require.Len(t, changes[0].Columns, 1)

			cc := changes[0].Columns[0]
			assert.Equal(t, ModifyColumn, cc.Type)
			// Both versions are retained so the inverse can restore the original.
			assert.Equal(t, tt.current, *cc.Old)
			assert.Equal(t, tt.desired, *cc.New)
		})
	}
}

func TestDiffIndexModifyIsDropThenCreate(t *testing.T) {
	nonUnique := &Table{
		Name:    "users",
		Columns: []Column{{Name: "email", Type: "varchar"}},
		Indexes: []Index{{Name: "idx_x", Columns: []string{"email"}}},
	}
	unique := &Table{
		Name:    "users",
		Columns: []Column{{Name: "email", Type: "varchar"}},
		Indexes: []Index{{Name: "idx_x", Columns: []string{"email"}, Unique: true}},
	}

	changes := Diff(dbWith(nonUnique), dbWith(unique))

	require.Len(t, changes, 2)
	assert.Equal(t, ChangeDropIndex, changes[0].Type)
	assert.False(t, changes[0].Index.Unique)
	assert.Equal(t, ChangeCreateIndex, changes[1].Type)
	assert.True(t, changes[1].Index.Unique)
}

func TestDiffIndexColumnOrderSignificant(t *testing.T) {
	ab := &Table{
		Name:    "t",
		Columns: []Column{{Name: "a", Type: "integer"}, {Name: "b", Type: "integer"}},
		Indexes: []Index{{Name: "idx", Columns: []string{"a", "b"}}},
	}
	ba := &Table{
		Name:    "t",
		Columns: []Column{{Name: "a", Type: "integer"}, {Name: "b", Type: "integer"}},
		Indexes: []Index{{Name: "idx", Columns: []string{"b", "a"}}},
	}

	changes := Diff(dbWith(ab), dbWith(ba))
	require.Len(t, changes, 2)
	assert.Equal(t, ChangeDropIndex, changes[0].Type)
	assert.Equal(t, ChangeCreateIndex, changes[1].Type)
}

func TestDiffForeignKeys(t *testing.T) {
	withFK := postsTable()
	withoutFK := &Table{
		Name:       "posts",
		Columns:    withFK.Columns,
		PrimaryKey: withFK.PrimaryKey,
	}

	added := Diff(dbWith(withoutFK, usersTable()), dbWith(withFK, usersTable()))
	require.Len(t, added, 1)
	assert.Equal(t, ChangeAddForeignKey, added[0].Type)
	assert.Equal(t, "fk_posts_user_id", added[0].ForeignKey.Name)

	removed := Diff(dbWith(withFK, usersTable()), dbWith(withoutFK, usersTable()))
	require.Len(t, removed, 1)
	assert.Equal(t, ChangeDropForeignKey, removed[0].Type)

	changedAction := postsTable()
	changedAction.ForeignKeys[0].OnDelete = "SET NULL"
	modified := Diff(dbWith(withFK, usersTable()), dbWith(changedAction, usersTable()))
	require.Len(t, modified, 2)
	assert.Equal(t, ChangeDropForeignKey, modified[0].Type)
	assert.Equal(t, "CASCADE", modified[0].ForeignKey.OnDelete)
	assert.Equal(t, ChangeAddForeignKey, modified[1].Type)
	assert.Equal(t, "SET NULL", modified[1].ForeignKey.OnDelete)
}

func TestDiffDeterministicOrder(t *testing.T) {
	current := dbWith(usersTable(), postsTable())

	desired := NewDatabase()
	desired.AddTable(&Table{
		Name:    "comments",
		Columns: []Column{{Name: "id", Type: "integer", PrimaryKey: true}},
	})
	desired.AddTable(usersTable())

	first := Diff(current, desired)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Diff(current, desired))
	}
}
