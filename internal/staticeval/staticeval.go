// Package staticeval statically evaluates a condition tree against a
// map of literal values without emitting any SQL, used by the INSERT
// builder's optional condition (§4.8): "evaluated statically against
// literal values only (no SQL is emitted for it)".
package staticeval

import (
	"strings"

	"github.com/vellum-sql/sqlqc/internal/ast"
	"github.com/vellum-sql/sqlqc/internal/errs"
	"github.com/vellum-sql/sqlqc/internal/resolve"
)

// Eval statically decides a condition tree against row, the literal
// values supplied for an INSERT's newRow (keyed by column name).
func Eval(c *ast.Cond, table string, row map[string]*ast.Expr) (bool, error) {
	switch c.Kind {
	case ast.CondAnd:
		for _, ch := range c.Children {
			ok, err := Eval(ch, table, row)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil

	case ast.CondOr:
		for _, ch := range c.Children {
			ok, err := Eval(ch, table, row)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case ast.CondNot:
		ok, err := Eval(c.Children[0], table, row)
		if err != nil {
			return false, err
		}
		return !ok, nil

	case ast.CondExists:
		return false, errs.New(errs.Domain, "$exists is not supported in a static insert condition")

	case ast.CondBoolExpr:
		return boolOf(c.BoolExpr, table, row)

	case ast.CondFieldMap:
		for _, fc := range c.Fields {
			lhs, err := lookupField(fc.Field, table, row)
			if err != nil {
				return false, err
			}
			if len(fc.Ops) == 0 {
				ok, err := compare("$eq", lhs, fc.Expr)
				if err != nil || !ok {
					return false, err
				}
				continue
			}
			for _, op := range fc.Ops {
				ok, err := evalOp(op, lhs)
				if err != nil || !ok {
					return false, err
				}
			}
		}
		return true, nil

	default:
		return false, errs.New(errs.Shape, "unrecognized condition node in static insert condition")
	}
}

func lookupField(field, table string, row map[string]*ast.Expr) (*ast.Expr, error) {
	tbl, col, path, err := resolve.ParsePath(field)
	if err != nil {
		return nil, err
	}
	if tbl != table {
		return nil, errs.New(errs.Schema, "Table '%s' is not allowed or does not exist", tbl)
	}
	if len(path) > 0 {
		return nil, errs.New(errs.Domain, "JSON path access is not supported in a static insert condition")
	}
	v, ok := row[col]
	if !ok {
		return &ast.Expr{Kind: ast.KindNull}, nil
	}
	return v, nil
}

func boolOf(e *ast.Expr, table string, row map[string]*ast.Expr) (bool, error) {
	switch e.Kind {
	case ast.KindBoolean:
		return e.Bool, nil
	case ast.KindField:
		_, col, _, err := resolve.ParsePath(e.Str)
		if err != nil {
			return false, err
		}
		v, ok := row[col]
		if !ok || v.Kind != ast.KindBoolean {
			return false, errs.New(errs.Type, "static insert condition expression must be boolean")
		}
		return v.Bool, nil
	default:
		return false, errs.New(errs.Type, "static insert condition expression must be boolean")
	}
}

func evalOp(op ast.OpClause, lhs *ast.Expr) (bool, error) {
	if op.Op == "$in" || op.Op == "$nin" {
		found := false
		for _, v := range op.Values {
			if literalsEqual(lhs, v) {
				found = true
				break
			}
		}
		if op.Op == "$in" {
			return found, nil
		}
		return !found, nil
	}
	return compare(op.Op, lhs, op.Value)
}

func compare(op string, lhs, rhs *ast.Expr) (bool, error) {
	switch op {
	case "$eq":
		return literalsEqual(lhs, rhs), nil
	case "$ne":
		return !literalsEqual(lhs, rhs), nil
	case "$gt", "$gte", "$lt", "$lte":
		return literalsOrdered(op, lhs, rhs)
	default:
		return false, errs.New(errs.Domain, "operator %q is not supported in a static insert condition", op)
	}
}

func literalsEqual(a, b *ast.Expr) bool {
	if a.Kind == ast.KindNull || b.Kind == ast.KindNull {
		return a.Kind == b.Kind
	}
	if a.Kind == ast.KindNumber && b.Kind == ast.KindNumber {
		return a.Num == b.Num
	}
	if a.Kind == ast.KindBoolean && b.Kind == ast.KindBoolean {
		return a.Bool == b.Bool
	}
	return isTextual(a) && isTextual(b) && a.Str == b.Str
}

func isTextual(e *ast.Expr) bool {
	switch e.Kind {
	case ast.KindString, ast.KindDate, ast.KindTimestamp, ast.KindUUID:
		return true
	default:
		return false
	}
}

func literalsOrdered(op string, a, b *ast.Expr) (bool, error) {
	var cmp int
	switch {
	case a.Kind == ast.KindNumber && b.Kind == ast.KindNumber:
		switch {
		case a.Num < b.Num:
			cmp = -1
		case a.Num > b.Num:
			cmp = 1
		}
	case isTextual(a) && isTextual(b):
		cmp = strings.Compare(a.Str, b.Str)
	default:
		return false, errs.New(errs.Type, "mismatched operand types in static insert condition")
	}
	switch op {
	case "$gt":
		return cmp > 0, nil
	case "$gte":
		return cmp >= 0, nil
	case "$lt":
		return cmp < 0, nil
	case "$lte":
		return cmp <= 0, nil
	}
	return false, nil
}
