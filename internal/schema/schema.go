package schema

import (
	"encoding/json"
	"regexp"

	"github.com/mitchellh/mapstructure"

	"github.com/vellum-sql/sqlqc/internal/ast"
	"github.com/vellum-sql/sqlqc/internal/dialect"
	"github.com/vellum-sql/sqlqc/internal/errs"
)

// Dialect is the SQL dialect enum from §3.
type Dialect = dialect.Name

const (
	Postgres           = dialect.Postgres
	SQLiteMinimal       = dialect.SQLiteMinimal
	SQLite344Extensions = dialect.SQLite344Extensions
)

// FieldType is the domain-level type of a schema field.
type FieldType = ast.FieldType

const (
	TypeString   = ast.TypeString
	TypeNumber   = ast.TypeNumber
	TypeBoolean  = ast.TypeBoolean
	TypeUUID     = ast.TypeUUID
	TypeDate     = ast.TypeDate
	TypeDateTime = ast.TypeDateTime
	TypeObject   = ast.TypeObject
)

// Field describes one allowed column of a Table.
type Field struct {
	Name     string    `mapstructure:"name"`
	Type     FieldType `mapstructure:"type"`
	Nullable bool      `mapstructure:"nullable"`
}

var fieldNameRe = regexp.MustCompile(`^[a-z][A-Za-z0-9_]*$`)

// Table is the caller-supplied schema entry for one allowed table: an
// ordered sequence of allowed fields (§3).
type Table struct {
	AllowedFields []Field `mapstructure:"allowedFields"`
}

// Relationship is the normalized directed pair between two tables. Two
// surface shapes are accepted by DecodeConfig and collapse to this form
// (SPEC_FULL §3): the explicit struct shape, and a shorthand single-key
// map `{ "<table>.<field>": "<toTable>.<toField>" }`. The optional Type
// tag is accepted for backwards compatibility but ignored by the
// compiler — only the directed (Table,Field)->(ToTable,ToField) pair
// matters.
type Relationship struct {
	Table   string `mapstructure:"table"`
	Field   string `mapstructure:"field"`
	ToTable string `mapstructure:"toTable"`
	ToField string `mapstructure:"toField"`
	Type    string `mapstructure:"type"`
}

// DataTable configures the "every logical row is one JSON blob" rewrite
// mode described in §3.
type DataTable struct {
	Table           string   `mapstructure:"table"`
	DataField       string   `mapstructure:"dataField"`
	TableField      string   `mapstructure:"tableField"`
	WhereConditions []string `mapstructure:"whereConditions"`
}

// Config is the immutable, caller-supplied snapshot every parse/compile
// call takes as input (§5): it is never mutated during a build.
type Config struct {
	Dialect       Dialect             `mapstructure:"dialect"`
	Tables        map[string]Table    `mapstructure:"tables"`
	Variables     map[string]ast.Expr `mapstructure:"-"`
	Relationships []Relationship      `mapstructure:"relationships"`
	DataTable     *DataTable          `mapstructure:"dataTable"`
}

// rawConfig mirrors Config but leaves Relationships as `any` so the two
// accepted shapes can be told apart before mapstructure decodes them,
// and leaves Variables untyped for the same reason ($date/$uuid/...
// need Expr's own JSON-tag decoding, which mapstructure knows nothing
// about).
type rawConfig struct {
	Dialect       Dialect                `mapstructure:"dialect"`
	Tables        map[string]Table       `mapstructure:"tables"`
	Variables     map[string]interface{} `mapstructure:"variables"`
	Relationships interface{}            `mapstructure:"relationships"`
	DataTable     *DataTable             `mapstructure:"dataTable"`
}

// DecodeConfig builds a Config from an untyped map — the shape you get
// back from unmarshalling a JSON or YAML document into
// map[string]interface{} — using github.com/mitchellh/mapstructure the
// way the teacher decodes its own Config. This is the one place the two
// accepted relationship shapes are normalized into []Relationship.
func DecodeConfig(raw map[string]interface{}) (*Config, error) {
	var rc rawConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rc,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errs.Wrap(errs.Config, err, "invalid configuration")
	}
	if err := dec.Decode(raw); err != nil {
		return nil, errs.Wrap(errs.Config, err, "invalid configuration")
	}

	rels, err := normalizeRelationships(rc.Relationships)
	if err != nil {
		return nil, err
	}

	vars := make(map[string]ast.Expr, len(rc.Variables))
	for name, v := range rc.Variables {
		ex, err := decodeVarValue(v)
		if err != nil {
			return nil, errs.Wrap(errs.Config, err, "variable %q: invalid value", name)
		}
		vars[name] = ex
	}

	cfg := &Config{
		Dialect:       rc.Dialect,
		Tables:        rc.Tables,
		Variables:     vars,
		Relationships: rels,
		DataTable:     rc.DataTable,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeVarValue re-marshals a generically-decoded value (string,
// float64, bool, nil, or a one-key map like {"$date": "..."}) back to
// JSON so it can go through ast.Expr's own tagged decoder; this keeps
// variable values subject to exactly the same typed-scalar rules as
// literals appearing directly in a query.
func decodeVarValue(v interface{}) (ast.Expr, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return ast.Expr{}, err
	}
	var ex ast.Expr
	if err := ex.UnmarshalJSON(b); err != nil {
		return ast.Expr{}, err
	}
	return ex, nil
}

// normalizeRelationships accepts either:
//   - []Relationship-shaped entries (struct/map form with
//     table/field/toTable/toField keys), or
//   - a single-key shorthand map `{"table.field": "toTable.toField"}`
//     (possibly several such maps in a list).
func normalizeRelationships(raw interface{}) ([]Relationship, error) {
	if raw == nil {
		return nil, nil
	}

	items, ok := raw.([]interface{})
	if !ok {
		return nil, errs.New(errs.Config, "relationships must be an array")
	}

	var out []Relationship
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, errs.New(errs.Config, "invalid relationship entry")
		}
		if _, hasTable := m["table"]; hasTable {
			var rel Relationship
			if err := mapstructure.Decode(m, &rel); err != nil {
				return nil, errs.Wrap(errs.Config, err, "invalid relationship entry")
			}
			out = append(out, rel)
			continue
		}
		// Shorthand shape: exactly one "table.field": "toTable.toField" pair.
		for k, v := range m {
			vs, ok := v.(string)
			if !ok {
				return nil, errs.New(errs.Config, "invalid relationship shorthand value for %q", k)
			}
			rel, err := parseRelationshipShorthand(k, vs)
			if err != nil {
				return nil, err
			}
			out = append(out, rel)
		}
	}
	return out, nil
}

func parseRelationshipShorthand(from, to string) (Relationship, error) {
	ft, ff, ok := splitOnce(from, '.')
	if !ok {
		return Relationship{}, errs.New(errs.Config, "invalid relationship key %q, expected table.field", from)
	}
	tt, tf, ok := splitOnce(to, '.')
	if !ok {
		return Relationship{}, errs.New(errs.Config, "invalid relationship value %q, expected table.field", to)
	}
	return Relationship{Table: ft, Field: ff, ToTable: tt, ToField: tf}, nil
}

func splitOnce(s string, sep byte) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

// Validate checks structural invariants of the config itself (I4-ish at
// the schema level, plus field-name format) independent of any query.
func (c *Config) Validate() error {
	switch c.Dialect {
	case Postgres, SQLiteMinimal, SQLite344Extensions:
	default:
		return errs.New(errs.Config, "invalid dialect: %q", c.Dialect)
	}
	for tname, t := range c.Tables {
		for _, f := range t.AllowedFields {
			if !fieldNameRe.MatchString(f.Name) {
				return errs.New(errs.Config, "invalid field name %q in table %q", f.Name, tname)
			}
			switch f.Type {
			case TypeString, TypeNumber, TypeBoolean, TypeUUID, TypeDate, TypeDateTime, TypeObject:
			default:
				return errs.New(errs.Config, "invalid field type %q for %q.%q", f.Type, tname, f.Name)
			}
		}
	}
	return nil
}

// GetColumn looks up a field within a table by name.
func (t Table) GetColumn(name string) (Field, bool) {
	for _, f := range t.AllowedFields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
