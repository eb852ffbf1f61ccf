package sqlqc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vellum-sql/sqlqc/internal/ast"
	"github.com/vellum-sql/sqlqc/internal/dialect"
	"github.com/vellum-sql/sqlqc/internal/errs"
	"github.com/vellum-sql/sqlqc/internal/escape"
	"github.com/vellum-sql/sqlqc/internal/query"
	"github.com/vellum-sql/sqlqc/internal/staticeval"
	"github.com/vellum-sql/sqlqc/internal/state"
)

// ParsedInsert is the validated, rendered form of an INSERT query.
type ParsedInsert struct {
	table   string
	columns []string
	values  []string
}

// ParseInsertQuery validates q against cfg, resolves every row value and
// statically checks the optional condition (§4.8). raw is the caller's
// original query JSON text: newRow is decoded directly from it so the
// "provided columns first, in the order given" rule has an order to
// work from.
func ParseInsertQuery(raw json.RawMessage, cfg *Config, opts ...Option) (*ParsedInsert, error) {
	o := resolveOptions(opts)
	var q query.InsertQuery
	if err := query.DecodeAny(raw, &q); err != nil {
		return nil, errs.Wrap(errs.Shape, err, "invalid insert query")
	}

	st, err := state.New(cfg, q.Table, o.logger)
	if err != nil {
		return nil, err
	}
	tbl, _ := st.Table(q.Table)

	row := map[string]*ast.Expr{}
	var providedCols []string
	if q.NewRow != nil {
		for i, key := range q.NewRow.Keys {
			if _, ok := tbl.GetColumn(key); !ok {
				return nil, errs.New(errs.Schema, "Field '%s' is not allowed or does not exist in '%s'", key, q.Table)
			}
			v := &ast.Expr{}
			if err := v.UnmarshalJSON(q.NewRow.Vals[i]); err != nil {
				return nil, errs.Wrap(errs.Shape, err, "invalid newRow value for field '%s'", key)
			}
			row[key] = v
			providedCols = append(providedCols, key)
		}
	}

	if q.Condition != nil {
		ok, err := staticeval.Eval(q.Condition, q.Table, row)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errs.New(errs.UpdateCond, "Insert condition not met")
		}
	}

	provided := map[string]bool{}
	for _, c := range providedCols {
		provided[c] = true
	}

	columns := append([]string{}, providedCols...)
	for _, f := range tbl.AllowedFields {
		if !provided[f.Name] {
			columns = append(columns, f.Name)
		}
	}

	values := make([]string, len(columns))
	for i, c := range columns {
		if v, ok := row[c]; ok {
			s, err := literalSQL(v, st.Dialect)
			if err != nil {
				return nil, err
			}
			values[i] = s
		} else {
			values[i] = "NULL"
		}
	}

	return &ParsedInsert{table: q.Table, columns: columns, values: values}, nil
}

// literalSQL escapes a newRow value, which must be a scalar or typed
// scalar per §4.8 (no $field/$var/$func/$cond allowed in a row literal).
func literalSQL(e *ast.Expr, d dialect.Dialect) (string, error) {
	switch e.Kind {
	case ast.KindNull:
		return escape.Null(), nil
	case ast.KindString:
		return escape.String(e.Str), nil
	case ast.KindNumber:
		return escape.Number(e.Num)
	case ast.KindBoolean:
		return escape.Bool(e.Bool, d), nil
	case ast.KindDate:
		return escape.Date(e.Str, d)
	case ast.KindTimestamp:
		return escape.Timestamp(e.Str, d)
	case ast.KindUUID:
		return escape.UUID(e.Str, d)
	default:
		return "", errs.New(errs.Shape, "newRow values must be scalar or typed scalar literals")
	}
}

// CompileInsertQuery assembles a ParsedInsert into SQL text.
func CompileInsertQuery(p *ParsedInsert, _ Dialect) (string, error) {
	quoted := make([]string, len(p.columns))
	for i, c := range p.columns {
		quoted[i] = fmt.Sprintf(`"%s"`, c)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		p.table, strings.Join(quoted, ", "), strings.Join(p.values, ", ")), nil
}

// BuildInsertQuery is the parse+compile convenience wrapper.
func BuildInsertQuery(raw json.RawMessage, cfg *Config, opts ...Option) (string, error) {
	p, err := ParseInsertQuery(raw, cfg, opts...)
	if err != nil {
		return "", err
	}
	return CompileInsertQuery(p, cfg.Dialect)
}
