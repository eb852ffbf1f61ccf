package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vellum-sql/sqlqc/internal/ast"
	"github.com/vellum-sql/sqlqc/internal/dialect"
)

func TestResolveUnknownDialect(t *testing.T) {
	_, err := dialect.Resolve(dialect.Name("oracle"))
	assert.Error(t, err)
}

func TestPostgresLiteralSuffixes(t *testing.T) {
	d, err := dialect.Resolve(dialect.Postgres)
	assert.NoError(t, err)
	assert.False(t, d.IsSQLite())
	assert.Equal(t, "::DATE", d.DateLiteralSuffix())
	assert.Equal(t, "::UUID", d.UUIDLiteralSuffix())
	assert.Equal(t, "UUID", d.StorageType(ast.TypeUUID))
	assert.True(t, d.SupportsRegex())
	assert.Equal(t, "ILIKE", d.ILikeOperator())
	assert.Equal(t, "STRING_AGG", d.StringAggName())
}

func TestSQLiteMinimalHasNoRegex(t *testing.T) {
	d, err := dialect.Resolve(dialect.SQLiteMinimal)
	assert.NoError(t, err)
	assert.True(t, d.IsSQLite())
	assert.False(t, d.SupportsRegex())
	assert.Equal(t, "", d.DateLiteralSuffix())
	assert.Equal(t, "TEXT", d.StorageType(ast.TypeUUID))
	assert.Equal(t, "REAL", d.StorageType(ast.TypeNumber))
	assert.Equal(t, "GROUP_CONCAT", d.StringAggName())
	assert.Equal(t, "LIKE", d.ILikeOperator())
}

func TestSQLite344ExtensionsHasRegex(t *testing.T) {
	d, err := dialect.Resolve(dialect.SQLite344Extensions)
	assert.NoError(t, err)
	assert.True(t, d.SupportsRegex())
}
