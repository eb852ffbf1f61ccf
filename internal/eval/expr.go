// Package eval is the expression & condition evaluator (§4.3/§4.5): it
// walks the tagged AST, enforces type rules, calls into the resolver
// and function catalog, and emits dialect-correct SQL fragments.
package eval

import (
	"encoding/json"
	"fmt"

	"github.com/vellum-sql/sqlqc/internal/ast"
	"github.com/vellum-sql/sqlqc/internal/errs"
	"github.com/vellum-sql/sqlqc/internal/escape"
	"github.com/vellum-sql/sqlqc/internal/fn"
	"github.com/vellum-sql/sqlqc/internal/resolve"
	"github.com/vellum-sql/sqlqc/internal/state"
	"github.com/vellum-sql/sqlqc/internal/util"
)

// Expr evaluates an expression node, returning its SQL text and
// inferred type, and memoizes the type under the node's canonical key.
func Expr(e *ast.Expr, st *state.State) (sql string, typ ast.ExprType, err error) {
	sql, typ, err = evalExpr(e, st)
	if err != nil {
		return "", "", err
	}
	if key, kerr := util.CanonicalExprKey(e); kerr == nil {
		st.MemoType(key, typ)
	}
	return sql, typ, nil
}

func evalExpr(e *ast.Expr, st *state.State) (string, ast.ExprType, error) {
	switch e.Kind {
	case ast.KindString:
		return escape.String(e.Str), ast.ExprString, nil

	case ast.KindNumber:
		s, err := escape.Number(e.Num)
		if err != nil {
			return "", "", err
		}
		return s, ast.ExprNumber, nil

	case ast.KindBoolean:
		return escape.Bool(e.Bool, st.Dialect), ast.ExprBoolean, nil

	case ast.KindNull:
		return escape.Null(), ast.ExprNull, nil

	case ast.KindDate:
		s, err := escape.Date(e.Str, st.Dialect)
		if err != nil {
			return "", "", err
		}
		return s, ast.ExprDate, nil

	case ast.KindTimestamp:
		s, err := escape.Timestamp(e.Str, st.Dialect)
		if err != nil {
			return "", "", err
		}
		return s, ast.ExprDateTime, nil

	case ast.KindUUID:
		s, err := escape.UUID(e.Str, st.Dialect)
		if err != nil {
			return "", "", err
		}
		return s, ast.ExprUUID, nil

	case ast.KindJSONB:
		return evalJSONB(e, st)

	case ast.KindField:
		r, err := resolve.Field(e.Str, st)
		if err != nil {
			return "", "", err
		}
		return r.SQL, r.TargetType, nil

	case ast.KindVar:
		v, ok := st.Config.Variables[e.Str]
		if !ok {
			return "", "", errs.New(errs.Config, "Unknown variable '%s'", e.Str)
		}
		return Expr(&v, st)

	case ast.KindFunc:
		return evalFunc(e, st)

	case ast.KindCond:
		condSQL, err := Cond(e.CondIf, st)
		if err != nil {
			return "", "", err
		}
		thenSQL, thenType, err := Expr(e.CondThen, st)
		if err != nil {
			return "", "", err
		}
		elseSQL, elseType, err := Expr(e.CondElse, st)
		if err != nil {
			return "", "", err
		}
		typ := thenType
		if thenType == ast.ExprNull {
			typ = elseType
		}
		return fmt.Sprintf("(CASE WHEN %s THEN %s ELSE %s END)", condSQL, thenSQL, elseSQL), typ, nil

	default:
		return "", "", errs.New(errs.Shape, "unrecognized expression node")
	}
}

func evalFunc(e *ast.Expr, st *state.State) (string, ast.ExprType, error) {
	entry, ok := fn.Lookup(e.FuncName)
	if !ok {
		return "", "", errs.New(errs.Domain, "Unknown function or operator: \"%s\"", e.FuncName)
	}
	if err := fn.CheckArity(entry, len(e.FuncArgs)); err != nil {
		return "", "", err
	}

	args := make([]fn.Arg, len(e.FuncArgs))
	for i, a := range e.FuncArgs {
		sql, typ, err := Expr(a, st)
		if err != nil {
			return "", "", err
		}
		args[i] = fn.Arg{SQL: sql, Type: typ, Node: a}
	}

	args, err := fn.CheckArgTypes(entry, args, st.Dialect)
	if err != nil {
		return "", "", err
	}

	sql, err := entry.Emit(args, st.Dialect)
	if err != nil {
		return "", "", err
	}
	return sql, entry.ResultType, nil
}

func evalJSONB(e *ast.Expr, st *state.State) (string, ast.ExprType, error) {
	vals := make(map[string]json.RawMessage, len(e.JSONB.Keys))
	for i, k := range e.JSONB.Keys {
		raw, err := literalJSON(e.JSONB.Vals[i], st)
		if err != nil {
			return "", "", err
		}
		vals[k] = raw
	}
	s, err := escape.JSONB(vals, e.JSONB.Keys, st.Dialect)
	if err != nil {
		return "", "", err
	}
	return s, ast.ExprObject, nil
}

// literalJSON renders a literal-only Expr subtree ($jsonb payload) back
// to a raw JSON value. A $var reference one level deep is resolved
// against the config's variables and literalized in turn; $field/$func/
// $cond aren't legal here since a $jsonb blob is serialized as a single
// escaped string literal, and a live column or function reference has no
// sound literal form to embed in it.
func literalJSON(e *ast.Expr, st *state.State) (json.RawMessage, error) {
	switch e.Kind {
	case ast.KindVar:
		v, ok := st.Config.Variables[e.Str]
		if !ok {
			return nil, errs.New(errs.Config, "Unknown variable '%s'", e.Str)
		}
		return literalJSON(&v, st)
	case ast.KindString:
		b, _ := json.Marshal(e.Str)
		return b, nil
	case ast.KindNumber:
		b, _ := json.Marshal(e.Num)
		return b, nil
	case ast.KindBoolean:
		b, _ := json.Marshal(e.Bool)
		return b, nil
	case ast.KindNull:
		return json.RawMessage("null"), nil
	case ast.KindDate, ast.KindTimestamp, ast.KindUUID:
		b, _ := json.Marshal(e.Str)
		return b, nil
	case ast.KindJSONB:
		obj := make(map[string]json.RawMessage, len(e.JSONB.Keys))
		for i, k := range e.JSONB.Keys {
			v, err := literalJSON(e.JSONB.Vals[i], st)
			if err != nil {
				return nil, err
			}
			obj[k] = v
		}
		var b []byte
		b = append(b, '{')
		for i, k := range e.JSONB.Keys {
			if i > 0 {
				b = append(b, ',')
			}
			kb, _ := json.Marshal(k)
			b = append(b, kb...)
			b = append(b, ':')
			b = append(b, obj[k]...)
		}
		b = append(b, '}')
		return b, nil
	default:
		return nil, errs.New(errs.Domain, "Invalid jsonb value")
	}
}
