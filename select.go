package sqlqc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/vellum-sql/sqlqc/internal/ast"
	"github.com/vellum-sql/sqlqc/internal/errs"
	"github.com/vellum-sql/sqlqc/internal/eval"
	"github.com/vellum-sql/sqlqc/internal/query"
	"github.com/vellum-sql/sqlqc/internal/resolve"
	"github.com/vellum-sql/sqlqc/internal/state"
)

// ParsedSelect is the validated, partially-rendered form of a SELECT
// query produced by ParseSelectQuery; CompileSelectQuery assembles it
// into the final SQL text.
type ParsedSelect struct {
	selectList []string
	from       string
	joins      []string
	where      string
	limit      *float64
	offset     *float64
}

// ParseSelectQuery validates q against cfg and resolves every selection
// leaf, join and condition into SQL fragments (§4.6). raw is the
// caller's original query JSON text — it is decoded directly, never
// re-serialized, so the order of selection/field keys it declares
// survives into the emitted SQL.
func ParseSelectQuery(raw json.RawMessage, cfg *Config, opts ...Option) (*ParsedSelect, error) {
	o := resolveOptions(opts)
	var q query.SelectQuery
	if err := query.DecodeAny(raw, &q); err != nil {
		return nil, errs.Wrap(errs.Shape, err, "invalid select query")
	}

	st, err := state.New(cfg, q.RootTable, o.logger)
	if err != nil {
		return nil, err
	}

	if q.Selection == nil || len(q.Selection.Entries) == 0 {
		return nil, errs.New(errs.Shape, "Selection cannot be empty")
	}

	selectList, joins, err := resolveSelection(q.Selection, q.RootTable, "", st)
	if err != nil {
		return nil, err
	}

	where := ""
	if q.Condition != nil {
		w, err := eval.Cond(q.Condition, st)
		if err != nil {
			return nil, err
		}
		where = w
	}
	if dtCond := resolve.DataTableCondition(q.RootTable, st); dtCond != "" {
		if where == "" {
			where = dtCond
		} else {
			where = "(" + dtCond + " AND " + where + ")"
		}
	}

	return &ParsedSelect{
		selectList: selectList,
		from:       resolve.FromClause(q.RootTable, st),
		joins:      joins,
		where:      where,
		limit:      q.Limit,
		offset:     q.Offset,
	}, nil
}

// CompileSelectQuery assembles a ParsedSelect into final SQL text. The
// dialect parameter mirrors the external interface from §6; every
// dialect-dependent fragment was already rendered during parse, so this
// step only assembles clauses in the fixed order from §4.6.
func CompileSelectQuery(p *ParsedSelect, _ Dialect) (string, error) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(p.selectList, ", "))
	b.WriteString(" FROM ")
	b.WriteString(p.from)
	for _, j := range p.joins {
		b.WriteString(" ")
		b.WriteString(j)
	}
	if p.where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(p.where)
	}
	if p.limit != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(formatNumber(*p.limit))
	}
	if p.offset != nil {
		b.WriteString(" OFFSET ")
		b.WriteString(formatNumber(*p.offset))
	}
	return b.String(), nil
}

// BuildSelectQuery is the parse+compile convenience wrapper from §6.
func BuildSelectQuery(raw json.RawMessage, cfg *Config, opts ...Option) (string, error) {
	p, err := ParseSelectQuery(raw, cfg, opts...)
	if err != nil {
		return "", err
	}
	return CompileSelectQuery(p, cfg.Dialect)
}

// resolveSelection walks a selection tree, returning the select-list
// fragments ("expr AS \"alias\"") for this level plus every subtree, and
// the LEFT JOIN clauses needed to reach any child tables it references.
func resolveSelection(sel *ast.Selection, currentTable, aliasPrefix string, st *state.State) ([]string, []string, error) {
	var selectItems []string
	var joins []string

	for _, entry := range sel.Entries {
		switch {
		case entry.Include:
			r, err := resolve.Field(currentTable+"."+entry.Key, st)
			if err != nil {
				return nil, nil, err
			}
			alias := r.Alias
			if aliasPrefix != "" {
				alias = aliasPrefix + "." + entry.Key
			}
			selectItems = append(selectItems, fmt.Sprintf(`%s AS "%s"`, r.SQL, alias))

		case entry.Expr != nil:
			sql, _, err := eval.Expr(entry.Expr, st)
			if err != nil {
				return nil, nil, err
			}
			alias := entry.Key
			if aliasPrefix != "" {
				alias = aliasPrefix + "." + entry.Key
			}
			selectItems = append(selectItems, fmt.Sprintf(`%s AS "%s"`, sql, alias))

		case entry.Nested != nil:
			childTable := entry.Key
			added, err := st.AddJoin(currentTable, childTable)
			if err != nil {
				return nil, nil, err
			}
			if added {
				j := st.Joins[len(st.Joins)-1]
				joins = append(joins, buildJoinClause(j, st))
			}
			childAliasPrefix := childTable
			if aliasPrefix != "" {
				childAliasPrefix = aliasPrefix + "." + childTable
			}
			childItems, childJoins, err := resolveSelection(entry.Nested, childTable, childAliasPrefix, st)
			if err != nil {
				return nil, nil, err
			}
			selectItems = append(selectItems, childItems...)
			joins = append(joins, childJoins...)
		}
	}

	return selectItems, joins, nil
}

// buildJoinClause renders one LEFT JOIN, casting both sides to UUID in
// postgres when the joined columns are both UUID-typed (§4.6).
func buildJoinClause(j state.Join, st *state.State) string {
	parentTbl, _ := st.Table(j.ParentTable)
	childTbl, _ := st.Table(j.ChildTable)
	pf, _ := parentTbl.GetColumn(j.ParentField)
	cf, _ := childTbl.GetColumn(j.ChildField)

	lhs := fmt.Sprintf("%s.%s", j.ParentTable, j.ParentField)
	rhs := fmt.Sprintf("%s.%s", j.ChildTable, j.ChildField)
	if !st.Dialect.IsSQLite() && pf.Type == ast.TypeUUID && cf.Type == ast.TypeUUID {
		lhs = fmt.Sprintf("CAST(%s AS UUID)", lhs)
		rhs = fmt.Sprintf("CAST(%s AS UUID)", rhs)
	}

	from := resolve.FromClause(j.ChildTable, st)
	cond := fmt.Sprintf("%s = %s", lhs, rhs)
	if dt := resolve.DataTableCondition(j.ChildTable, st); dt != "" {
		cond = "(" + cond + " AND " + dt + ")"
	}
	return fmt.Sprintf("LEFT JOIN %s ON %s", from, cond)
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
