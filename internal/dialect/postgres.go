package dialect

import "github.com/vellum-sql/sqlqc/internal/ast"

type postgresDialect struct{}

func (postgresDialect) Name() Name     { return Postgres }
func (postgresDialect) IsSQLite() bool { return false }

func (postgresDialect) QuoteIdentifier(s string) string {
	return `"` + s + `"`
}

func (postgresDialect) BoolLiteral(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (postgresDialect) DateLiteralSuffix() string      { return "::DATE" }
func (postgresDialect) TimestampLiteralSuffix() string { return "::TIMESTAMP" }
func (postgresDialect) UUIDLiteralSuffix() string      { return "::UUID" }
func (postgresDialect) JSONBLiteralSuffix() string     { return "::JSONB" }

func (postgresDialect) JSONArrow() string { return "->" }
func (postgresDialect) JSONText() string  { return "->>" }

func (postgresDialect) StorageType(ft ast.FieldType) string {
	switch ft {
	case ast.TypeString:
		return "TEXT"
	case ast.TypeNumber:
		return "FLOAT"
	case ast.TypeBoolean:
		return "BOOLEAN"
	case ast.TypeUUID:
		return "UUID"
	case ast.TypeDate:
		return "DATE"
	case ast.TypeDateTime:
		return "TIMESTAMP"
	case ast.TypeObject:
		return "JSONB"
	default:
		return "TEXT"
	}
}

func (postgresDialect) StringAggName() string { return "STRING_AGG" }
func (postgresDialect) SupportsRegex() bool    { return true }
func (postgresDialect) ILikeOperator() string  { return "ILIKE" }
