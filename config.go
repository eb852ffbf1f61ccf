package sqlqc

import "github.com/vellum-sql/sqlqc/internal/schema"

// Dialect is the SQL dialect enum from §3.
type Dialect = schema.Dialect

const (
	Postgres            = schema.Postgres
	SQLiteMinimal        = schema.SQLiteMinimal
	SQLite344Extensions  = schema.SQLite344Extensions
)

// FieldType is the domain-level type of a schema field.
type FieldType = schema.FieldType

const (
	TypeString   = schema.TypeString
	TypeNumber   = schema.TypeNumber
	TypeBoolean  = schema.TypeBoolean
	TypeUUID     = schema.TypeUUID
	TypeDate     = schema.TypeDate
	TypeDateTime = schema.TypeDateTime
	TypeObject   = schema.TypeObject
)

// Field, Table, Relationship, DataTable and Config mirror §3's schema
// model; DecodeConfig normalizes the two accepted relationship shapes.
type (
	Field        = schema.Field
	Table        = schema.Table
	Relationship = schema.Relationship
	DataTable    = schema.DataTable
	Config       = schema.Config
)

var DecodeConfig = schema.DecodeConfig
