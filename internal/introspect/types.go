package introspect

import "strings"

// Per-dialect native→semantic type tables. Each table is total: a native
// type with no entry passes through lowercased, so introspection never fails
// on an exotic column type.

var postgresTypes = map[string]string{
	"integer":                     "integer",
	"int":                         "integer",
	"int4":                        "integer",
	"smallint":                    "integer",
	"serial":                      "integer",
	"bigint":                      "bigint",
	"int8":                        "bigint",
	"bigserial":                   "bigint",
	"character varying":           "varchar",
	"varchar":                     "varchar",
	"character":                   "varchar",
	"text":                        "text",
	"boolean":                     "boolean",
	"bool":                        "boolean",
	"timestamp without time zone": "timestamp",
	"timestamp with time zone":    "timestamp",
	"timestamp":                   "timestamp",
	"timestamptz":                 "timestamp",
	"date":                        "timestamp",
	"json":                        "json",
	"jsonb":                       "json",
	"numeric":                     "decimal",
	"decimal":                     "decimal",
	"double precision":            "decimal",
	"real":                        "decimal",
}

var mysqlTypes = map[string]string{
	"int":        "integer",
	"integer":    "integer",
	"smallint":   "integer",
	"mediumint":  "integer",
	"bigint":     "bigint",
	"varchar":    "varchar",
	"char":       "varchar",
	"text":       "text",
	"tinytext":   "text",
	"mediumtext": "text",
	"longtext":   "text",
	"tinyint":    "boolean",
	"boolean":    "boolean",
	"timestamp":  "timestamp",
	"datetime":   "timestamp",
	"date":       "timestamp",
	"json":       "json",
	"decimal":    "decimal",
	"numeric":    "decimal",
	"double":     "decimal",
	"float":      "decimal",
}

var sqliteTypes = map[string]string{
	"integer":   "integer",
	"int":       "integer",
	"bigint":    "bigint",
	"varchar":   "varchar",
	"text":      "text",
	"clob":      "text",
	"boolean":   "boolean",
	"datetime":  "timestamp",
	"timestamp": "timestamp",
	"json":      "json",
	"real":      "decimal",
	"numeric":   "decimal",
	"decimal":   "decimal",
	"double":    "decimal",
	"float":     "decimal",
}

// semanticType maps a native type string through the dialect table.
// Length/precision arguments are stripped first, so "varchar(255)" and
// "decimal(10,2)" hit their base entries.
func semanticType(table map[string]string, native string) string {
	key := strings.ToLower(strings.TrimSpace(native))
	if i := strings.IndexByte(key, '('); i >= 0 {
		key = strings.TrimSpace(key[:i])
	}
	if sem, ok := table[key]; ok {
		return sem
	}
	return key
}
