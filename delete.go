package sqlqc

import (
	"encoding/json"
	"strings"

	"github.com/vellum-sql/sqlqc/internal/errs"
	"github.com/vellum-sql/sqlqc/internal/eval"
	"github.com/vellum-sql/sqlqc/internal/query"
	"github.com/vellum-sql/sqlqc/internal/resolve"
	"github.com/vellum-sql/sqlqc/internal/state"
)

// ParsedDelete is the validated, rendered form of a DELETE query.
type ParsedDelete struct {
	table string
	where string
}

// ParseDeleteQuery validates q against cfg and resolves its optional
// condition (§4.8). raw is the caller's original query JSON text,
// decoded directly per the other four operations' public entry points.
func ParseDeleteQuery(raw json.RawMessage, cfg *Config, opts ...Option) (*ParsedDelete, error) {
	o := resolveOptions(opts)
	var q query.DeleteQuery
	if err := query.DecodeAny(raw, &q); err != nil {
		return nil, errs.Wrap(errs.Shape, err, "invalid delete query")
	}

	st, err := state.New(cfg, q.Table, o.logger)
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
	if dtCond := resolve.DataTableCondition(q.Table, st); dtCond != "" {
		if where == "" {
			where = dtCond
		} else {
			where = "(" + dtCond + " AND " + where + ")"
		}
	}

	return &ParsedDelete{table: q.Table, where: where}, nil
}

// CompileDeleteQuery assembles a ParsedDelete into SQL text.
func CompileDeleteQuery(p *ParsedDelete, _ Dialect) (string, error) {
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(p.table)
	if p.where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(p.where)
	}
	return b.String(), nil
}

// BuildDeleteQuery is the parse+compile convenience wrapper.
func BuildDeleteQuery(raw json.RawMessage, cfg *Config, opts ...Option) (string, error) {
	p, err := ParseDeleteQuery(raw, cfg, opts...)
	if err != nil {
		return "", err
	}
	return CompileDeleteQuery(p, cfg.Dialect)
}
