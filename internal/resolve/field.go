// Package resolve implements the field-path resolver (§4.2): turning a
// textual reference like "table.column" or "table.column->a->b" into a
// physical SQL fragment, an output alias and an inferred type, against
// the schema and the active data-table rewrite.
package resolve

import (
	"fmt"
	"strings"

	"github.com/vellum-sql/sqlqc/internal/ast"
	"github.com/vellum-sql/sqlqc/internal/errs"
	"github.com/vellum-sql/sqlqc/internal/schema"
	"github.com/vellum-sql/sqlqc/internal/state"
)

// Resolved is the outcome of resolving one field-path reference.
type Resolved struct {
	SQL        string        // the physical SQL expression, e.g. "users.name" or "sales.data->>'region'"
	Alias      string        // output column alias (root-stripped raw path)
	TargetType ast.ExprType  // inferred expression type
	Table      string        // logical table name
	Field      string        // column name
	JSONPath   []string      // JSON path segments after the column, if any
	FieldCfg   schema.Field  // the matched field config
}

// ParsePath splits a raw field-path string into its table, column and
// JSON-path segments (§4.2 step 1 and 3).
func ParsePath(raw string) (table, column string, jsonPath []string, err error) {
	dot := strings.IndexByte(raw, '.')
	if dot <= 0 || dot == len(raw)-1 {
		return "", "", nil, errs.New(errs.Schema, "Invalid field reference")
	}
	table = raw[:dot]
	rest := raw[dot+1:]

	segs := strings.Split(rest, "->")
	column = segs[0]
	if column == "" || strings.ContainsRune(column, '.') {
		return "", "", nil, errs.New(errs.Schema, "Invalid field reference")
	}
	jsonPath = segs[1:]
	return table, column, jsonPath, nil
}

// Field resolves a field-path reference against the parser state. A
// reference with no "table." prefix is taken to mean a column on the
// query's own root table — the shorthand a mutation's condition map
// uses (§8 S3: `condition:{active:true}` against `table:"users"`
// resolves to `users.active`).
func Field(raw string, st *state.State) (*Resolved, error) {
	tableName, col, path, err := ParsePath(raw)
	if err != nil {
		if !strings.Contains(raw, ".") {
			segs := strings.Split(raw, "->")
			if segs[0] != "" {
				tableName, col, path, err = st.RootTable, segs[0], segs[1:], nil
			}
		}
		if err != nil {
			return nil, err
		}
	}

	tbl, ok := st.Table(tableName)
	if !ok {
		return nil, errs.New(errs.Schema, "Table '%s' is not allowed or does not exist", tableName)
	}

	fieldCfg, ok := tbl.GetColumn(col)
	if !ok {
		return nil, errs.New(errs.Schema, "Field '%s' is not allowed or does not exist in '%s'", col, tableName)
	}

	if len(path) > 0 && fieldCfg.Type != schema.TypeObject {
		return nil, errs.New(errs.Schema,
			"JSON path access '->%s' is only allowed on JSON fields, but field '%s' is of type '%s'",
			strings.Join(path, "->"), col, fieldCfg.Type)
	}

	d := st.Dialect
	var sqlExpr string
	targetType := ast.FromFieldType(fieldCfg.Type)

	if dt := st.DataTable(); dt != nil && dt.Table != "" {
		base := fmt.Sprintf("%s.%s", tableName, dt.DataField)
		if len(path) == 0 {
			sqlExpr = base + d.JSONText() + quoteKey(col)
			if fieldCfg.Type != schema.TypeString {
				sqlExpr = fmt.Sprintf("CAST(%s AS %s)", sqlExpr, d.StorageType(fieldCfg.Type))
			}
		} else {
			var b strings.Builder
			b.WriteString(base)
			b.WriteString(d.JSONArrow())
			b.WriteString(quoteKey(col))
			for i, seg := range path {
				if i == len(path)-1 {
					b.WriteString(d.JSONText())
				} else {
					b.WriteString(d.JSONArrow())
				}
				b.WriteString(quoteKey(seg))
			}
			sqlExpr = b.String()
			targetType = ast.ExprObject
		}
	} else {
		if len(path) == 0 {
			sqlExpr = fmt.Sprintf("%s.%s", tableName, col)
		} else {
			var b strings.Builder
			b.WriteString(tableName)
			b.WriteByte('.')
			b.WriteString(col)
			for i, seg := range path {
				if i == len(path)-1 {
					b.WriteString(d.JSONText())
				} else {
					b.WriteString(d.JSONArrow())
				}
				b.WriteString(quoteKey(seg))
			}
			sqlExpr = b.String()
			targetType = ast.ExprObject
		}
	}

	alias := raw
	if tableName == st.RootTable {
		alias = strings.TrimPrefix(raw, tableName+".")
	}

	return &Resolved{
		SQL:        sqlExpr,
		Alias:      alias,
		TargetType: targetType,
		Table:      tableName,
		Field:      col,
		JSONPath:   path,
		FieldCfg:   fieldCfg,
	}, nil
}

func quoteKey(k string) string { return "'" + strings.ReplaceAll(k, "'", "''") + "'" }

// FromClause renders the FROM/JOIN source for one logical table: the
// physical data-table name aliased to the logical name in data-table
// mode (§3 I7), or the logical table name itself otherwise.
func FromClause(logicalTable string, st *state.State) string {
	if dt := st.DataTable(); dt != nil && dt.Table != "" {
		return fmt.Sprintf(`%s AS "%s"`, dt.Table, logicalTable)
	}
	return logicalTable
}

// DataTableCondition renders the implicit discriminator condition ANDed
// into every query against a logical table in data-table mode (§3): the
// `tableField = '<logical>'` equality plus any configured raw SQL
// fragments. Returns "" when data-table mode isn't active.
func DataTableCondition(logicalTable string, st *state.State) string {
	dt := st.DataTable()
	if dt == nil || dt.Table == "" {
		return ""
	}
	parts := []string{fmt.Sprintf("%s.%s = '%s'", logicalTable, dt.TableField, strings.ReplaceAll(logicalTable, "'", "''"))}
	parts = append(parts, dt.WhereConditions...)
	return strings.Join(parts, " AND ")
}
