package fn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellum-sql/sqlqc/internal/ast"
	"github.com/vellum-sql/sqlqc/internal/dialect"
	"github.com/vellum-sql/sqlqc/internal/fn"
)

func TestLookupUnknownFunction(t *testing.T) {
	_, ok := fn.Lookup("NOT_A_FUNCTION")
	assert.False(t, ok)
}

func TestCheckArityFixed(t *testing.T) {
	entry, ok := fn.Lookup("ADD")
	require.True(t, ok)
	assert.NoError(t, fn.CheckArity(entry, 2))
	err := fn.CheckArity(entry, 1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires exactly 2 argument(s), got 1")
}

func TestCheckArityVariadic(t *testing.T) {
	entry, ok := fn.Lookup("CONCAT")
	require.True(t, ok)
	assert.NoError(t, fn.CheckArity(entry, 3))
	err := fn.CheckArity(entry, 1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 2 arguments, got 1")
}

func TestCheckArgTypesCastsToStringWhenExpected(t *testing.T) {
	pg, _ := dialect.Resolve(dialect.Postgres)
	entry, ok := fn.Lookup("UPPER")
	require.True(t, ok)

	args, err := fn.CheckArgTypes(entry, []fn.Arg{{SQL: "users.age", Type: ast.ExprNumber}}, pg)
	require.NoError(t, err)
	assert.Equal(t, "CAST(users.age AS TEXT)", args[0].SQL)
}

func TestCheckArgTypesRejectsIncompatible(t *testing.T) {
	pg, _ := dialect.Resolve(dialect.Postgres)
	entry, ok := fn.Lookup("ADD")
	require.True(t, ok)

	_, err := fn.CheckArgTypes(entry, []fn.Arg{{SQL: "users.name", Type: ast.ExprString}, {SQL: "1", Type: ast.ExprNumber}}, pg)
	assert.Error(t, err)
}

func TestDivideByLiteralZero(t *testing.T) {
	pg, _ := dialect.Resolve(dialect.Postgres)
	entry, ok := fn.Lookup("DIVIDE")
	require.True(t, ok)

	args := []fn.Arg{
		{SQL: "users.age", Type: ast.ExprNumber},
		{SQL: "0", Type: ast.ExprNumber, Node: &ast.Expr{Kind: ast.KindNumber, Num: 0}},
	}
	_, err := entry.Emit(args, pg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Division by zero is not allowed")
}

func TestDivideByNonLiteralZeroIsAllowed(t *testing.T) {
	pg, _ := dialect.Resolve(dialect.Postgres)
	entry, ok := fn.Lookup("DIVIDE")
	require.True(t, ok)

	args := []fn.Arg{
		{SQL: "users.age", Type: ast.ExprNumber},
		{SQL: "users.divisor", Type: ast.ExprNumber, Node: &ast.Expr{Kind: ast.KindField, Str: "users.divisor"}},
	}
	sql, err := entry.Emit(args, pg)
	require.NoError(t, err)
	assert.Equal(t, "(users.age / users.divisor)", sql)
}

func TestStringAggUsesDialectName(t *testing.T) {
	pg, _ := dialect.Resolve(dialect.Postgres)
	sq, _ := dialect.Resolve(dialect.SQLiteMinimal)
	entry, ok := fn.Lookup("STRING_AGG")
	require.True(t, ok)

	args := []fn.Arg{{SQL: "users.name", Type: ast.ExprAny}, {SQL: "', '", Type: ast.ExprAny}}
	pgSQL, err := entry.Emit(args, pg)
	require.NoError(t, err)
	assert.Equal(t, "STRING_AGG(users.name, ', ')", pgSQL)

	sqSQL, err := entry.Emit(args, sq)
	require.NoError(t, err)
	assert.Equal(t, "GROUP_CONCAT(users.name, ', ')", sqSQL)
}
