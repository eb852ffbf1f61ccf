package eval

import (
	"fmt"
	"strings"

	"github.com/vellum-sql/sqlqc/internal/ast"
	"github.com/vellum-sql/sqlqc/internal/errs"
	"github.com/vellum-sql/sqlqc/internal/resolve"
	"github.com/vellum-sql/sqlqc/internal/state"
)

// canonicalOps is the fixed emission order for a field-operator map
// with more than one operator (§4.5).
var canonicalOps = []string{"$ne", "$eq", "$gt", "$gte", "$lt", "$lte", "$like", "$ilike", "$regex", "$in", "$nin"}

// Cond evaluates a condition node, returning a Boolean SQL fragment.
func Cond(c *ast.Cond, st *state.State) (string, error) {
	switch c.Kind {
	case ast.CondAnd, ast.CondOr:
		if len(c.Children) == 0 {
			if c.Kind == ast.CondAnd {
				return "", errs.New(errs.Shape, "$and condition should be a non-empty array.")
			}
			return "", errs.New(errs.Shape, "$or condition should be a non-empty array.")
		}
		joiner := " AND "
		if c.Kind == ast.CondOr {
			joiner = " OR "
		}
		parts := make([]string, len(c.Children))
		for i, ch := range c.Children {
			s, err := Cond(ch, st)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "(" + strings.Join(parts, joiner) + ")", nil

	case ast.CondNot:
		inner, err := Cond(c.Children[0], st)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("NOT (%s)", inner), nil

	case ast.CondExists:
		return evalExists(c, st)

	case ast.CondBoolExpr:
		sql, typ, err := Expr(c.BoolExpr, st)
		if err != nil {
			return "", err
		}
		if typ != ast.ExprBoolean && typ != ast.ExprAny {
			return "", errs.New(errs.Type, "Condition expression must be of type boolean, got %s", typ)
		}
		return sql, nil

	case ast.CondFieldMap:
		parts := make([]string, 0, len(c.Fields))
		for _, fc := range c.Fields {
			s, err := evalFieldCond(fc, st)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		if len(parts) == 1 {
			return parts[0], nil
		}
		return "(" + strings.Join(parts, " AND ") + ")", nil

	default:
		return "", errs.New(errs.Shape, "unrecognized condition node")
	}
}

func evalExists(c *ast.Cond, st *state.State) (string, error) {
	if _, ok := st.Table(c.ExistsTable); !ok {
		return "", errs.New(errs.Schema, "Table '%s' is not allowed or does not exist", c.ExistsTable)
	}
	nested, err := state.New(st.Config, c.ExistsTable, st.Log)
	if err != nil {
		return "", err
	}
	nested.IsUpdate = st.IsUpdate
	nested.NewRowUpdates = st.NewRowUpdates

	inner, err := Cond(c.ExistsCond, nested)
	if err != nil {
		return "", err
	}
	if dtCond := resolve.DataTableCondition(c.ExistsTable, nested); dtCond != "" {
		inner = "(" + dtCond + " AND " + inner + ")"
	}
	from := resolve.FromClause(c.ExistsTable, nested)
	return fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s)", from, inner), nil
}

func evalFieldCond(fc ast.FieldCond, st *state.State) (string, error) {
	field := fc.Field
	if strings.HasPrefix(field, "NEW_ROW.") && fc.LHSExpr == nil {
		if !st.IsUpdate {
			return "", errs.New(errs.Schema, "NEW_ROW reference is only allowed inside an UPDATE's condition")
		}
		return "", errs.New(errs.Schema, "unresolved NEW_ROW reference %q", field)
	}

	var lhsSQL string
	var lhsType ast.ExprType
	var nullable bool

	if fc.LHSExpr != nil {
		sql, typ, err := Expr(fc.LHSExpr, st)
		if err != nil {
			return "", err
		}
		lhsSQL, lhsType, nullable = sql, typ, true
	} else {
		r, err := resolve.Field(field, st)
		if err != nil {
			return "", err
		}
		lhsSQL, lhsType, nullable = r.SQL, r.TargetType, r.FieldCfg.Nullable
	}

	if len(fc.Ops) == 0 {
		rhsSQL, rhsType, err := Expr(fc.Expr, st)
		if err != nil {
			return "", err
		}
		if rhsType == ast.ExprNull {
			if !nullable {
				return "", errs.New(errs.Type, "Field '%s' is not nullable, and cannot be compared with NULL", field)
			}
			return lhsSQL + " IS NULL", nil
		}
		castLHS, err := matchTypes(field, "=", lhsSQL, lhsType, rhsType, st)
		if err != nil {
			return "", err
		}
		return castLHS + " = " + rhsSQL, nil
	}

	byOp := map[string]ast.OpClause{}
	for _, op := range fc.Ops {
		byOp[op.Op] = op
	}

	var clauses []string
	for _, opName := range canonicalOps {
		op, ok := byOp[opName]
		if !ok {
			continue
		}
		clause, err := renderOp(field, opName, op, lhsSQL, lhsType, nullable, st)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	if len(clauses) == 1 {
		return clauses[0], nil
	}
	return "(" + strings.Join(clauses, " AND ") + ")", nil
}

var opSQL = map[string]string{
	"$eq": "=", "$ne": "!=", "$gt": ">", "$gte": ">=", "$lt": "<", "$lte": "<=",
}

func renderOp(field, opName string, op ast.OpClause, lhsSQL string, lhsType ast.ExprType, nullable bool, st *state.State) (string, error) {
	switch opName {
	case "$eq", "$ne":
		rhsSQL, rhsType, err := Expr(op.Value, st)
		if err != nil {
			return "", err
		}
		if rhsType == ast.ExprNull {
			if !nullable {
				return "", errs.New(errs.Type, "Field '%s' is not nullable, and cannot be compared with NULL", field)
			}
			if opName == "$eq" {
				return lhsSQL + " IS NULL", nil
			}
			return lhsSQL + " IS NOT NULL", nil
		}
		castLHS, err := matchTypes(field, opName, lhsSQL, lhsType, rhsType, st)
		if err != nil {
			return "", err
		}
		return castLHS + " " + opSQL[opName] + " " + rhsSQL, nil

	case "$gt", "$gte", "$lt", "$lte":
		rhsSQL, rhsType, err := Expr(op.Value, st)
		if err != nil {
			return "", err
		}
		castLHS, err := matchTypes(field, opName, lhsSQL, lhsType, rhsType, st)
		if err != nil {
			return "", err
		}
		return castLHS + " " + opSQL[opName] + " " + rhsSQL, nil

	case "$like", "$ilike":
		rhsSQL, _, err := Expr(op.Value, st)
		if err != nil {
			return "", err
		}
		lhs := lhsSQL
		if lhsType != ast.ExprString {
			lhs = fmt.Sprintf("CAST(%s AS %s)", lhsSQL, st.Dialect.StorageType(ast.TypeString))
		}
		opText := "LIKE"
		if opName == "$ilike" {
			opText = st.Dialect.ILikeOperator()
		}
		return lhs + " " + opText + " " + rhsSQL, nil

	case "$regex":
		if !st.Dialect.SupportsRegex() {
			return "", errs.New(errs.Domain, "Operator 'REGEXP' is not supported by default in SQLite")
		}
		rhsSQL, _, err := Expr(op.Value, st)
		if err != nil {
			return "", err
		}
		if st.Dialect.IsSQLite() {
			return lhsSQL + " REGEXP " + rhsSQL, nil
		}
		return lhsSQL + " ~ " + rhsSQL, nil

	case "$in", "$nin":
		if len(op.Values) == 0 {
			return "", errs.New(errs.Shape, "%s values for field '%s' should be a non-empty array.", opName, field)
		}
		parts := make([]string, len(op.Values))
		var commonType ast.ExprType
		for i, v := range op.Values {
			sql, typ, err := Expr(v, st)
			if err != nil {
				return "", err
			}
			if i == 0 {
				commonType = typ
			} else if typ != commonType && typ != ast.ExprNull && commonType != ast.ExprNull {
				return "", errs.New(errs.Type, "Field type mismatch for '%s' comparison on '%s': expected %s, got %s", opName, field, commonType, typ)
			}
			parts[i] = sql
		}
		castLHS, err := matchTypes(field, opName, lhsSQL, lhsType, commonType, st)
		if err != nil {
			return "", err
		}
		kw := "IN"
		if opName == "$nin" {
			kw = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", castLHS, kw, strings.Join(parts, ", ")), nil

	default:
		return "", errs.New(errs.Shape, "unknown operator %q", opName)
	}
}

// matchTypes enforces §4.5's "type-matching on comparison" rule: the
// right-hand side's type must match the field's declared type; a
// mismatch is only repaired (by casting the left-hand side to text)
// when the right-hand side is a string, and date/datetime are treated
// as mutually compatible (date literals auto-promote).
func matchTypes(field, op, lhsSQL string, lhsType, rhsType ast.ExprType, st *state.State) (string, error) {
	if lhsType == rhsType || rhsType == ast.ExprAny || rhsType == ast.ExprNull {
		return lhsSQL, nil
	}
	if dateTimeCompatible(lhsType, rhsType) {
		return lhsSQL, nil
	}
	if rhsType == ast.ExprString {
		return fmt.Sprintf("CAST(%s AS %s)", lhsSQL, st.Dialect.StorageType(ast.TypeString)), nil
	}
	return "", errs.New(errs.Type, "Field type mismatch for '%s' comparison on '%s': expected %s, got %s", op, field, lhsType, rhsType)
}

func dateTimeCompatible(a, b ast.ExprType) bool {
	isDT := func(t ast.ExprType) bool { return t == ast.ExprDate || t == ast.ExprDateTime }
	return isDT(a) && isDT(b)
}
