package sqlqc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vellum-sql/sqlqc/internal/ast"
	"github.com/vellum-sql/sqlqc/internal/errs"
	"github.com/vellum-sql/sqlqc/internal/eval"
	"github.com/vellum-sql/sqlqc/internal/newrow"
	"github.com/vellum-sql/sqlqc/internal/query"
	"github.com/vellum-sql/sqlqc/internal/resolve"
	"github.com/vellum-sql/sqlqc/internal/state"
)

// ParsedUpdate is the validated, rendered form of an UPDATE query.
type ParsedUpdate struct {
	table string
	sets  []string
	where string
}

// ParseUpdateQuery validates q against cfg, resolves every SET expression
// and rewrites the condition's NEW_ROW references (§4.8). raw is the
// caller's original query JSON text, decoded directly so updates keeps
// its declared key order.
func ParseUpdateQuery(raw json.RawMessage, cfg *Config, opts ...Option) (*ParsedUpdate, error) {
	o := resolveOptions(opts)
	var q query.UpdateQuery
	if err := query.DecodeAny(raw, &q); err != nil {
		return nil, errs.Wrap(errs.Shape, err, "invalid update query")
	}

	st, err := state.New(cfg, q.Table, o.logger)
	if err != nil {
		return nil, err
	}
	tbl, _ := st.Table(q.Table)

	if q.Updates == nil || len(q.Updates.Keys) == 0 {
		return nil, errs.New(errs.Shape, "Update must set at least one field")
	}

	updateExprs := map[string]*ast.Expr{}
	var sets []string
	for i, key := range q.Updates.Keys {
		if _, ok := tbl.GetColumn(key); !ok {
			return nil, errs.New(errs.Schema, "Field '%s' is not allowed or does not exist in '%s'", key, q.Table)
		}
		ex := &ast.Expr{}
		if err := ex.UnmarshalJSON(q.Updates.Vals[i]); err != nil {
			return nil, errs.Wrap(errs.Shape, err, "invalid update value for field '%s'", key)
		}
		sql, _, err := eval.Expr(ex, st)
		if err != nil {
			return nil, err
		}
		updateExprs[key] = ex
		sets = append(sets, fmt.Sprintf(`"%s" = %s`, key, sql))
	}

	where := ""
	if q.Condition != nil {
		rewritten, err := newrow.Rewrite(q.Condition, q.Table, updateExprs)
		if err != nil {
			return nil, err
		}
		if rewritten != nil {
			st.IsUpdate = true
			st.NewRowUpdates = updateExprs
			w, err := eval.Cond(rewritten, st)
			if err != nil {
				return nil, err
			}
			where = w
		}
	}
	if dtCond := resolve.DataTableCondition(q.Table, st); dtCond != "" {
		if where == "" {
			where = dtCond
		} else {
			where = "(" + dtCond + " AND " + where + ")"
		}
	}

	return &ParsedUpdate{table: q.Table, sets: sets, where: where}, nil
}

// CompileUpdateQuery assembles a ParsedUpdate into SQL text.
func CompileUpdateQuery(p *ParsedUpdate, _ Dialect) (string, error) {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(p.table)
	b.WriteString(" SET ")
	b.WriteString(strings.Join(p.sets, ", "))
	if p.where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(p.where)
	}
	return b.String(), nil
}

// BuildUpdateQuery is the parse+compile convenience wrapper.
func BuildUpdateQuery(raw json.RawMessage, cfg *Config, opts ...Option) (string, error) {
	p, err := ParseUpdateQuery(raw, cfg, opts...)
	if err != nil {
		return "", err
	}
	return CompileUpdateQuery(p, cfg.Dialect)
}
