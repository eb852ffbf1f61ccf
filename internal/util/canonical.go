// Package util holds small cross-cutting helpers shared by the resolver,
// evaluator and builders that don't belong to any one of them.
package util

import (
	"encoding/json"

	"github.com/vellum-sql/sqlqc/internal/ast"
)

// CanonicalExprKey builds the deterministic serialization of an
// expression node used to key the type-inference memo (§4.3/§9):
// "a deterministic recursive serializer that sorts map keys; do not use
// address/identity-based hashing since the same subtree may appear
// multiple times with different identities." encoding/json already
// sorts map[string]interface{} keys on Marshal, so building a plain Go
// value tree and marshaling it gives exactly that property for free.
func CanonicalExprKey(e *ast.Expr) (string, error) {
	b, err := json.Marshal(canonExpr(e))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func canonExpr(e *ast.Expr) interface{} {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ast.KindString:
		return m("string", e.Str)
	case ast.KindNumber:
		return m("number", e.Num)
	case ast.KindBoolean:
		return m("boolean", e.Bool)
	case ast.KindNull:
		return map[string]interface{}{"kind": "null"}
	case ast.KindDate:
		return m("date", e.Str)
	case ast.KindTimestamp:
		return m("timestamp", e.Str)
	case ast.KindUUID:
		return m("uuid", e.Str)
	case ast.KindJSONB:
		fields := map[string]interface{}{}
		if e.JSONB != nil {
			for i, k := range e.JSONB.Keys {
				fields[k] = canonExpr(e.JSONB.Vals[i])
			}
		}
		return map[string]interface{}{"kind": "jsonb", "fields": fields}
	case ast.KindField:
		return m("field", e.Str)
	case ast.KindVar:
		return m("var", e.Str)
	case ast.KindFunc:
		args := make([]interface{}, len(e.FuncArgs))
		for i, a := range e.FuncArgs {
			args[i] = canonExpr(a)
		}
		return map[string]interface{}{"kind": "func", "name": e.FuncName, "args": args}
	case ast.KindCond:
		return map[string]interface{}{
			"kind": "cond",
			"if":   canonCond(e.CondIf),
			"then": canonExpr(e.CondThen),
			"else": canonExpr(e.CondElse),
		}
	default:
		return map[string]interface{}{"kind": "unknown"}
	}
}

func canonCond(c *ast.Cond) interface{} {
	if c == nil {
		return nil
	}
	switch c.Kind {
	case ast.CondAnd, ast.CondOr:
		children := make([]interface{}, len(c.Children))
		for i, ch := range c.Children {
			children[i] = canonCond(ch)
		}
		kind := "and"
		if c.Kind == ast.CondOr {
			kind = "or"
		}
		return map[string]interface{}{"kind": kind, "children": children}
	case ast.CondNot:
		return map[string]interface{}{"kind": "not", "child": canonCond(c.Children[0])}
	case ast.CondExists:
		return map[string]interface{}{"kind": "exists", "table": c.ExistsTable, "condition": canonCond(c.ExistsCond)}
	case ast.CondBoolExpr:
		return map[string]interface{}{"kind": "boolExpr", "expr": canonExpr(c.BoolExpr)}
	case ast.CondFieldMap:
		fields := make([]interface{}, len(c.Fields))
		for i, f := range c.Fields {
			entry := map[string]interface{}{"field": f.Field}
			if f.Expr != nil {
				entry["expr"] = canonExpr(f.Expr)
			}
			if len(f.Ops) > 0 {
				ops := make([]interface{}, len(f.Ops))
				for j, op := range f.Ops {
					if len(op.Values) > 0 {
						vals := make([]interface{}, len(op.Values))
						for k, v := range op.Values {
							vals[k] = canonExpr(v)
						}
						ops[j] = map[string]interface{}{"op": op.Op, "values": vals}
					} else {
						ops[j] = map[string]interface{}{"op": op.Op, "value": canonExpr(op.Value)}
					}
				}
				entry["ops"] = ops
			}
			fields[i] = entry
		}
		return map[string]interface{}{"kind": "fieldMap", "fields": fields}
	default:
		return map[string]interface{}{"kind": "unknown"}
	}
}

func m(kind string, value interface{}) map[string]interface{} {
	return map[string]interface{}{"kind": kind, "value": value}
}
