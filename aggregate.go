package sqlqc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vellum-sql/sqlqc/internal/ast"
	"github.com/vellum-sql/sqlqc/internal/errs"
	"github.com/vellum-sql/sqlqc/internal/eval"
	"github.com/vellum-sql/sqlqc/internal/fn"
	"github.com/vellum-sql/sqlqc/internal/query"
	"github.com/vellum-sql/sqlqc/internal/resolve"
	"github.com/vellum-sql/sqlqc/internal/state"
)

// ParsedAggregation is the validated, partially-rendered form of an
// aggregation query produced by ParseAggregationQuery.
type ParsedAggregation struct {
	selectList []string
	from       []string
	joins      []string
	where      string
	groupBy    []string
}

// ParseAggregationQuery validates q against cfg and resolves every group
// key and aggregated field into SQL fragments (§4.7). raw is the
// caller's original query JSON text, decoded directly so aggregatedFields
// keeps the caller's declared key order.
func ParseAggregationQuery(raw json.RawMessage, cfg *Config, opts ...Option) (*ParsedAggregation, error) {
	o := resolveOptions(opts)
	var q query.AggregationQuery
	if err := query.DecodeAny(raw, &q); err != nil {
		return nil, errs.Wrap(errs.Shape, err, "invalid aggregation query")
	}

	if len(q.GroupBy) == 0 && len(q.AggregatedFields) == 0 {
		return nil, errs.New(errs.Shape, "Aggregation query must have at least one group by field or aggregated field")
	}

	st, err := state.New(cfg, q.Table, o.logger)
	if err != nil {
		return nil, err
	}

	p := &ParsedAggregation{from: []string{resolve.FromClause(q.Table, st)}}
	extraFrom := map[string]bool{}

	ensureJoined := func(fieldTable string) error {
		if fieldTable == q.Table {
			return nil
		}
		if st.DataTable() != nil {
			// I7: no relationship JOINs across logical tables sharing
			// one physical data table; each appears as its own alias.
			if !extraFrom[fieldTable] {
				extraFrom[fieldTable] = true
				p.from = append(p.from, resolve.FromClause(fieldTable, st))
			}
			return nil
		}
		added, err := st.AddJoin(q.Table, fieldTable)
		if err != nil {
			return err
		}
		if added {
			p.joins = append(p.joins, buildJoinClause(st.Joins[len(st.Joins)-1], st))
		}
		return nil
	}

	for _, gb := range q.GroupBy {
		tbl, _, _, err := resolve.ParsePath(gb)
		if err != nil {
			return nil, err
		}
		if err := ensureJoined(tbl); err != nil {
			return nil, err
		}
		r, err := resolve.Field(gb, st)
		if err != nil {
			return nil, err
		}
		p.selectList = append(p.selectList, fmt.Sprintf(`%s AS "%s"`, r.SQL, r.Alias))
		p.groupBy = append(p.groupBy, r.SQL)
	}

	for _, af := range q.AggregatedFields {
		sql, err := renderAggregatedField(af, q.Table, st, ensureJoined)
		if err != nil {
			return nil, err
		}
		p.selectList = append(p.selectList, fmt.Sprintf(`%s AS "%s"`, sql, af.Alias))
	}

	if q.Condition != nil {
		w, err := eval.Cond(q.Condition, st)
		if err != nil {
			return nil, err
		}
		p.where = w
	}
	if dtCond := resolve.DataTableCondition(q.Table, st); dtCond != "" {
		if p.where == "" {
			p.where = dtCond
		} else {
			p.where = "(" + dtCond + " AND " + p.where + ")"
		}
	}

	return p, nil
}

func renderAggregatedField(af query.AggregatedField, rootTable string, st *state.State, ensureJoined func(string) error) (string, error) {
	entry, ok := fn.Lookup(af.Function)
	if !ok {
		return "", errs.New(errs.Domain, "Unknown function or operator: \"%s\"", af.Function)
	}

	var args []fn.Arg
	if af.Field == "*" {
		if af.Function != "COUNT" {
			return "", errs.New(errs.Arity, "Aggregation function '%s' cannot be used with '*'. Only COUNT(*) is supported.", af.Function)
		}
		args = append(args, fn.Arg{SQL: "*", Type: ast.ExprAny})
	} else {
		tbl, _, _, err := resolve.ParsePath(af.Field)
		if err != nil {
			return "", err
		}
		if err := ensureJoined(tbl); err != nil {
			return "", err
		}
		r, err := resolve.Field(af.Field, st)
		if err != nil {
			return "", err
		}
		args = append(args, fn.Arg{SQL: r.SQL, Type: r.TargetType})
	}

	for _, extra := range af.AdditionalArguments {
		sql, typ, err := eval.Expr(extra, st)
		if err != nil {
			return "", err
		}
		args = append(args, fn.Arg{SQL: sql, Type: typ, Node: extra})
	}

	if err := fn.CheckArity(entry, len(args)); err != nil {
		return "", err
	}
	args, err := fn.CheckArgTypes(entry, args, st.Dialect)
	if err != nil {
		return "", err
	}
	return entry.Emit(args, st.Dialect)
}

// CompileAggregationQuery assembles a ParsedAggregation into SQL text:
// SELECT ... FROM ... [JOINs] [WHERE ...] [GROUP BY ...], no HAVING, no
// ORDER BY (§4.7).
func CompileAggregationQuery(p *ParsedAggregation, _ Dialect) (string, error) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(p.selectList, ", "))
	b.WriteString(" FROM ")
	b.WriteString(strings.Join(p.from, ", "))
	for _, j := range p.joins {
		b.WriteString(" ")
		b.WriteString(j)
	}
	if p.where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(p.where)
	}
	if len(p.groupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(p.groupBy, ", "))
	}
	return b.String(), nil
}

// BuildAggregationQuery is the parse+compile convenience wrapper.
func BuildAggregationQuery(raw json.RawMessage, cfg *Config, opts ...Option) (string, error) {
	p, err := ParseAggregationQuery(raw, cfg, opts...)
	if err != nil {
		return "", err
	}
	return CompileAggregationQuery(p, cfg.Dialect)
}
