// Package newrow implements the NEW_ROW evaluator for UPDATE (§4.8/§9):
// a pre-pass over an UPDATE's condition tree that substitutes
// NEW_ROW.<f> references by the field's update value, statically
// decides any subcondition that becomes a pure literal comparison, and
// rewrites everything else to the pre-update column reference.
package newrow

import (
	"strings"

	"github.com/vellum-sql/sqlqc/internal/ast"
	"github.com/vellum-sql/sqlqc/internal/errs"
)

// Rewrite walks cond, resolving every NEW_ROW.<f> field-map key against
// updates (the UPDATE's new values for table). A subcondition that
// folds to a literal false aborts with UpdateConditionError; one that
// folds to true is elided (nil, nil is returned up the tree for a node
// that vanished entirely).
func Rewrite(cond *ast.Cond, table string, updates map[string]*ast.Expr) (*ast.Cond, error) {
	if cond == nil {
		return nil, nil
	}
	switch cond.Kind {
	case ast.CondFieldMap:
		return rewriteFieldMap(cond, table, updates)

	case ast.CondAnd, ast.CondOr:
		var kept []*ast.Cond
		anyTrue := false
		for _, ch := range cond.Children {
			rc, err := Rewrite(ch, table, updates)
			if err != nil {
				return nil, err
			}
			if rc == nil {
				anyTrue = true
				continue
			}
			kept = append(kept, rc)
		}
		if cond.Kind == ast.CondOr && anyTrue {
			return nil, nil
		}
		if len(kept) == 0 {
			return nil, nil
		}
		if len(kept) == 1 {
			return kept[0], nil
		}
		return &ast.Cond{Kind: cond.Kind, Children: kept}, nil

	case ast.CondNot:
		rc, err := Rewrite(cond.Children[0], table, updates)
		if err != nil {
			return nil, err
		}
		if rc == nil {
			return nil, errs.New(errs.UpdateCond, "Update condition not met")
		}
		return &ast.Cond{Kind: ast.CondNot, Children: []*ast.Cond{rc}}, nil

	default:
		// $exists and bare boolean expressions don't carry NEW_ROW
		// references (I6 scopes NEW_ROW to field-map keys only).
		return cond, nil
	}
}

func rewriteFieldMap(cond *ast.Cond, table string, updates map[string]*ast.Expr) (*ast.Cond, error) {
	var kept []ast.FieldCond
	for _, fc := range cond.Fields {
		if !strings.HasPrefix(fc.Field, "NEW_ROW.") {
			kept = append(kept, fc)
			continue
		}
		f := strings.TrimPrefix(fc.Field, "NEW_ROW.")

		uv, ok := updates[f]
		if !ok {
			fc.Field = table + "." + f
			kept = append(kept, fc)
			continue
		}

		decided, val, err := decide(fc, uv)
		if err != nil {
			return nil, err
		}
		if decided {
			if !val {
				return nil, errs.New(errs.UpdateCond, "Update condition not met")
			}
			continue // folds away
		}

		fc.LHSExpr = uv
		kept = append(kept, fc)
	}
	if len(kept) == 0 {
		return nil, nil
	}
	return &ast.Cond{Kind: ast.CondFieldMap, Fields: kept}, nil
}

// decide attempts to statically resolve a single field clause once its
// NEW_ROW reference has been substituted by literal. Only a bare
// equality or a single $eq/$ne operator against another literal can be
// folded; anything else (another operator, a non-literal comparison
// value) is left symbolic.
func decide(fc ast.FieldCond, literal *ast.Expr) (decided, val bool, err error) {
	if len(fc.Ops) == 0 {
		if fc.Expr == nil || !isLiteral(fc.Expr) {
			return false, false, nil
		}
		return true, literalsEqual(literal, fc.Expr), nil
	}
	if len(fc.Ops) == 1 && (fc.Ops[0].Op == "$eq" || fc.Ops[0].Op == "$ne") {
		rhs := fc.Ops[0].Value
		if rhs == nil || !isLiteral(rhs) {
			return false, false, nil
		}
		eq := literalsEqual(literal, rhs)
		if fc.Ops[0].Op == "$ne" {
			eq = !eq
		}
		return true, eq, nil
	}
	return false, false, nil
}

func isLiteral(e *ast.Expr) bool {
	switch e.Kind {
	case ast.KindString, ast.KindNumber, ast.KindBoolean, ast.KindNull, ast.KindDate, ast.KindTimestamp, ast.KindUUID:
		return true
	default:
		return false
	}
}

func literalsEqual(a, b *ast.Expr) bool {
	if a.Kind == ast.KindNull || b.Kind == ast.KindNull {
		return a.Kind == b.Kind
	}
	switch a.Kind {
	case ast.KindNumber:
		return b.Kind == ast.KindNumber && a.Num == b.Num
	case ast.KindBoolean:
		return b.Kind == ast.KindBoolean && a.Bool == b.Bool
	case ast.KindString, ast.KindDate, ast.KindTimestamp, ast.KindUUID:
		return (b.Kind == ast.KindString || b.Kind == ast.KindDate || b.Kind == ast.KindTimestamp || b.Kind == ast.KindUUID) && a.Str == b.Str
	default:
		return false
	}
}
