package staticeval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellum-sql/sqlqc/internal/ast"
	"github.com/vellum-sql/sqlqc/internal/staticeval"
)

func TestEvalBareEquality(t *testing.T) {
	cond := &ast.Cond{Kind: ast.CondFieldMap, Fields: []ast.FieldCond{
		{Field: "users.age", Expr: &ast.Expr{Kind: ast.KindNumber, Num: 30}},
	}}
	row := map[string]*ast.Expr{"age": {Kind: ast.KindNumber, Num: 30}}

	ok, err := staticeval.Eval(cond, "users", row)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalMismatchIsFalse(t *testing.T) {
	cond := &ast.Cond{Kind: ast.CondFieldMap, Fields: []ast.FieldCond{
		{Field: "users.age", Expr: &ast.Expr{Kind: ast.KindNumber, Num: 30}},
	}}
	row := map[string]*ast.Expr{"age": {Kind: ast.KindNumber, Num: 31}}

	ok, err := staticeval.Eval(cond, "users", row)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvalMissingFieldIsNull(t *testing.T) {
	cond := &ast.Cond{Kind: ast.CondFieldMap, Fields: []ast.FieldCond{
		{Field: "users.nickname", Expr: &ast.Expr{Kind: ast.KindNull}},
	}}
	ok, err := staticeval.Eval(cond, "users", map[string]*ast.Expr{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalAndOrNot(t *testing.T) {
	row := map[string]*ast.Expr{
		"age":    {Kind: ast.KindNumber, Num: 30},
		"active": {Kind: ast.KindBoolean, Bool: true},
	}
	and := &ast.Cond{Kind: ast.CondAnd, Children: []*ast.Cond{
		{Kind: ast.CondFieldMap, Fields: []ast.FieldCond{{Field: "users.age", Ops: []ast.OpClause{{Op: "$gte", Value: &ast.Expr{Kind: ast.KindNumber, Num: 18}}}}}},
		{Kind: ast.CondFieldMap, Fields: []ast.FieldCond{{Field: "users.active", Expr: &ast.Expr{Kind: ast.KindBoolean, Bool: true}}}},
	}}
	ok, err := staticeval.Eval(and, "users", row)
	require.NoError(t, err)
	assert.True(t, ok)

	not := &ast.Cond{Kind: ast.CondNot, Children: []*ast.Cond{and}}
	ok, err = staticeval.Eval(not, "users", row)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvalExistsUnsupported(t *testing.T) {
	cond := &ast.Cond{Kind: ast.CondExists, ExistsTable: "posts", ExistsCond: &ast.Cond{Kind: ast.CondBoolExpr, BoolExpr: &ast.Expr{Kind: ast.KindBoolean, Bool: true}}}
	_, err := staticeval.Eval(cond, "users", map[string]*ast.Expr{})
	assert.Error(t, err)
}

func TestEvalInOperator(t *testing.T) {
	cond := &ast.Cond{Kind: ast.CondFieldMap, Fields: []ast.FieldCond{
		{Field: "users.age", Ops: []ast.OpClause{{Op: "$in", Values: []*ast.Expr{
			{Kind: ast.KindNumber, Num: 18}, {Kind: ast.KindNumber, Num: 30},
		}}}},
	}}
	row := map[string]*ast.Expr{"age": {Kind: ast.KindNumber, Num: 30}}
	ok, err := staticeval.Eval(cond, "users", row)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalWrongTableRejected(t *testing.T) {
	cond := &ast.Cond{Kind: ast.CondFieldMap, Fields: []ast.FieldCond{
		{Field: "posts.published", Expr: &ast.Expr{Kind: ast.KindBoolean, Bool: true}},
	}}
	_, err := staticeval.Eval(cond, "users", map[string]*ast.Expr{})
	assert.Error(t, err)
}
