package database

import (
	"fmt"
	"strings"
)

// validOps is the allowlist of comparison operators for WHERE clauses.
// The operator position cannot be parameterized, so anything outside this
// list is rejected to keep injection out of generated SQL.
var validOps = map[string]bool{
	"=":  true,
	"!=": true,
	"<>": true,
	"<":  true,
	">":  true,
	"<=": true,
	">=": true,
}

// SelectBuilder constructs a parameterized SELECT query using a fluent API.
// Values are never interpolated into the SQL string — always passed as args.
// Postgres gets $1, $2, … placeholders; MySQL and SQLite get ?.
//
// The migration runner uses it for its bookkeeping-table reads:
//
//	sql, args, err := Select("schema_migrations", DialectPostgres).
//	    Columns("version", "applied_at").
//	    OrderBy("version", Asc).
//	    Build()
type SelectBuilder struct {
	table   string
	dialect Dialect
	columns []string
	where   []whereClause
	orderBy []orderClause
	limit   *int
}

// SortDirection controls the ORDER BY direction.
type SortDirection bool

const (
	Asc  SortDirection = false
	Desc SortDirection = true
)

type whereClause struct {
	column string
	op     string
	value  any
}

type orderClause struct {
	column string
	dir    SortDirection
}

// Select starts a new SelectBuilder for the given table and dialect.
func Select(table string, d Dialect) *SelectBuilder {
	return &SelectBuilder{table: table, dialect: d}
}

// Columns restricts the SELECT to the specified columns.
func (b *SelectBuilder) Columns(cols ...string) *SelectBuilder {
	b.columns = append(b.columns, cols...)
	return b
}

// Where adds a comparison clause. Clauses are ANDed together.
func (b *SelectBuilder) Where(column, op string, value any) *SelectBuilder {
	b.where = append(b.where, whereClause{column: column, op: op, value: value})
	return b
}

// OrderBy adds an ORDER BY clause.
func (b *SelectBuilder) OrderBy(column string, dir SortDirection) *SelectBuilder {
	b.orderBy = append(b.orderBy, orderClause{column: column, dir: dir})
	return b
}

// Limit caps the number of returned rows.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = &n
	return b
}

// Build renders the SQL string and its ordered argument list.
func (b *SelectBuilder) Build() (string, []any, error) {
	if b.table == "" {
		return "", nil, fmt.Errorf("select builder: table name is required")
	}

	cols := "*"
	if len(b.columns) > 0 {
		cols = strings.Join(b.columns, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", cols, b.table)

	var args []any
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		for i, w := range b.where {
			if !validOps[w.op] {
				return "", nil, fmt.Errorf("select builder: invalid operator %q", w.op)
			}
			if i > 0 {
				sb.WriteString(" AND ")
			}
			args = append(args, w.value)
			fmt.Fprintf(&sb, "%s %s %s", w.column, w.op, b.placeholder(len(args)))
		}
	}

	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		for i, o := range b.orderBy {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(o.column)
			if o.dir == Desc {
				sb.WriteString(" DESC")
			}
		}
	}

	if b.limit != nil {
		fmt.Fprintf(&sb, " LIMIT %d", *b.limit)
	}

	return sb.String(), args, nil
}

// placeholder renders the n-th bind placeholder for the builder's dialect.
func (b *SelectBuilder) placeholder(n int) string {
	if b.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
