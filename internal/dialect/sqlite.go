package dialect

import "github.com/vellum-sql/sqlqc/internal/ast"

// sqliteDialect covers both sqlite-minimal and sqlite-3.44-extensions.
// The only behavioral difference between the two, per this spec, is
// REGEXP operator availability: 3.44-extensions assumes the regexp
// loadable extension is present (an Open Question in §9 resolved in
// DESIGN.md), sqlite-minimal does not.
type sqliteDialect struct {
	extensions bool
}

func (d sqliteDialect) Name() Name {
	if d.extensions {
		return SQLite344Extensions
	}
	return SQLiteMinimal
}

func (sqliteDialect) IsSQLite() bool { return true }

func (sqliteDialect) QuoteIdentifier(s string) string {
	return `"` + s + `"`
}

func (sqliteDialect) BoolLiteral(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (sqliteDialect) DateLiteralSuffix() string      { return "" }
func (sqliteDialect) TimestampLiteralSuffix() string { return "" }
func (sqliteDialect) UUIDLiteralSuffix() string      { return "" }
func (sqliteDialect) JSONBLiteralSuffix() string     { return "" }

func (sqliteDialect) JSONArrow() string { return "->" }
func (sqliteDialect) JSONText() string  { return "->>" }

func (sqliteDialect) StorageType(ft ast.FieldType) string {
	switch ft {
	case ast.TypeString:
		return "TEXT"
	case ast.TypeNumber:
		return "REAL"
	case ast.TypeBoolean:
		return "BOOLEAN"
	case ast.TypeUUID:
		return "TEXT"
	case ast.TypeDate:
		return "DATE"
	case ast.TypeDateTime:
		return "TIMESTAMP"
	case ast.TypeObject:
		return "JSON"
	default:
		return "TEXT"
	}
}

func (sqliteDialect) StringAggName() string { return "GROUP_CONCAT" }

func (d sqliteDialect) SupportsRegex() bool { return d.extensions }

func (sqliteDialect) ILikeOperator() string { return "LIKE" }
