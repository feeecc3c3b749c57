// Package sqlgen renders typed schema changes into dialect-specific DDL, in
// both directions: an "up" sequence that applies the changes and a "down"
// sequence that exactly undoes them.
package sqlgen

import (
	"fmt"
	"sort"

	"github.com/koustreak/MigRi/internal/database"
	"github.com/koustreak/MigRi/internal/errs"
	"github.com/koustreak/MigRi/internal/schema"
)

// Migration is a pair of statement sequences. Down is always the exact
// reverse of Up: Down[i] undoes Up[len(Up)-1-i], so len(Up) == len(Down).
// Statements that a dialect cannot express (SQLite column drops, …) are
// rendered as explanatory SQL comments so the counts still match.
type Migration struct {
	Up   []string `json:"up"`
	Down []string `json:"down"`
}

// Generator renders schema changes for one target dialect, selected once at
// construction.
type Generator struct {
	d dialect
}

// New returns a Generator for the given dialect.
func New(d database.Dialect) (*Generator, error) {
	switch d {
	case database.DialectPostgres:
		return &Generator{d: newPostgres()}, nil
	case database.DialectMySQL:
		return &Generator{d: newMySQL()}, nil
	case database.DialectSQLite:
		return &Generator{d: newSQLite()}, nil
	}
	return nil, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unsupported dialect %q", d))
}

// changeRank fixes the global execution order: foreign keys and indexes
// referencing soon-to-be-dropped structures go first, new tables are created
// before anything that targets them.
var changeRank = map[schema.ChangeType]int{
	schema.ChangeDropForeignKey: 0,
	schema.ChangeDropIndex:      1,
	schema.ChangeAlterTable:     2,
	schema.ChangeDropTable:      3,
	schema.ChangeCreateTable:    4,
	schema.ChangeCreateIndex:    5,
	schema.ChangeAddForeignKey:  6,
}

// Generate renders every change into its up statement and exact down inverse.
// Changes are stable-sorted by rank first, so the differ's emission order
// never needs to be execution-safe. Generate never fails for well-formed
// changes: dialect capability gaps degrade to comments, unmapped types fall
// back to an uppercased passthrough.
func (g *Generator) Generate(changes []schema.Change) Migration {
	sorted := make([]schema.Change, len(changes))
	copy(sorted, changes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return changeRank[sorted[i].Type] < changeRank[sorted[j].Type]
	})

	var up, down []string
	for _, c := range sorted {
		u, d := g.render(c)
		up = append(up, u...)
		down = append(down, d...)
	}

	// Down runs in exactly the reverse dependency order of Up.
	for i, j := 0, len(down)-1; i < j; i, j = i+1, j-1 {
		down[i], down[j] = down[j], down[i]
	}

	return Migration{Up: up, Down: down}
}

// render returns parallel statement lists for one change: down[i] is the
// inverse of up[i].
func (g *Generator) render(c schema.Change) (up, down []string) {
	switch c.Type {
	case schema.ChangeCreateTable:
		return []string{g.d.createTable(c.Table)},
			[]string{g.d.dropTable(c.TableName)}

	case schema.ChangeDropTable:
		return []string{g.d.dropTable(c.TableName)},
			[]string{g.d.createTable(c.Table)}

	case schema.ChangeAlterTable:
		for _, cc := range c.Columns {
			switch cc.Type {
			case schema.AddColumn:
				up = append(up, g.d.addColumn(c.TableName, *cc.New))
				down = append(down, g.d.dropColumn(c.TableName, cc.New.Name))
			case schema.DropColumn:
				up = append(up, g.d.dropColumn(c.TableName, cc.Old.Name))
				down = append(down, g.d.addColumn(c.TableName, *cc.Old))
			case schema.ModifyColumn:
				up = append(up, g.d.modifyColumn(c.TableName, *cc.New))
				down = append(down, g.d.modifyColumn(c.TableName, *cc.Old))
			}
		}
		return up, down

	case schema.ChangeCreateIndex:
		return []string{g.d.createIndex(c.TableName, *c.Index)},
			[]string{g.d.dropIndex(c.TableName, *c.Index)}

	case schema.ChangeDropIndex:
		return []string{g.d.dropIndex(c.TableName, *c.Index)},
			[]string{g.d.createIndex(c.TableName, *c.Index)}

	case schema.ChangeAddForeignKey:
		return []string{g.d.addForeignKey(c.TableName, *c.ForeignKey)},
			[]string{g.d.dropForeignKey(c.TableName, *c.ForeignKey)}

	case schema.ChangeDropForeignKey:
		return []string{g.d.dropForeignKey(c.TableName, *c.ForeignKey)},
			[]string{g.d.addForeignKey(c.TableName, *c.ForeignKey)}
	}
	return nil, nil
}
