package sqlqc

import (
	"encoding/json"

	"github.com/vellum-sql/sqlqc/internal/ast"
	"github.com/vellum-sql/sqlqc/internal/errs"
	"github.com/vellum-sql/sqlqc/internal/eval"
	"github.com/vellum-sql/sqlqc/internal/state"
)

// ParseExpression renders a single expression-AST value to SQL against
// rootTable, without wrapping it in any query shape. It exists for tests
// and advanced callers that want to exercise the evaluator directly
// (§6), independent of the five query builders above. raw is the
// caller's original expression JSON text, decoded directly: a $jsonb
// literal's key order only survives if raw was never re-serialized
// through a Go map.
func ParseExpression(raw json.RawMessage, cfg *Config, rootTable string, opts ...Option) (string, error) {
	o := resolveOptions(opts)

	ex := &ast.Expr{}
	if err := ex.UnmarshalJSON(raw); err != nil {
		return "", errs.Wrap(errs.Shape, err, "invalid expression")
	}

	st, err := state.New(cfg, rootTable, o.logger)
	if err != nil {
		return "", err
	}

	sql, _, err := eval.Expr(ex, st)
	return sql, err
}
