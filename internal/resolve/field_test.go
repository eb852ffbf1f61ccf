package resolve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vellum-sql/sqlqc/internal/ast"
	"github.com/vellum-sql/sqlqc/internal/resolve"
	"github.com/vellum-sql/sqlqc/internal/schema"
	"github.com/vellum-sql/sqlqc/internal/state"
)

func plainConfig() *schema.Config {
	return &schema.Config{
		Dialect: schema.Postgres,
		Tables: map[string]schema.Table{
			"users": {AllowedFields: []schema.Field{
				{Name: "id", Type: schema.TypeUUID},
				{Name: "active", Type: schema.TypeBoolean},
				{Name: "age", Type: schema.TypeNumber},
			}},
			"posts": {AllowedFields: []schema.Field{
				{Name: "user_id", Type: schema.TypeUUID},
				{Name: "published", Type: schema.TypeBoolean},
			}},
		},
		Relationships: []schema.Relationship{
			{Table: "posts", Field: "user_id", ToTable: "users", ToField: "id"},
		},
	}
}

func dataTableConfig() *schema.Config {
	cfg := plainConfig()
	cfg.Dialect = schema.SQLiteMinimal
	cfg.Tables["sales"] = schema.Table{AllowedFields: []schema.Field{
		{Name: "region", Type: schema.TypeString},
		{Name: "amount", Type: schema.TypeNumber},
		{Name: "meta", Type: schema.TypeObject},
	}}
	cfg.DataTable = &schema.DataTable{Table: "raw_data", DataField: "data", TableField: "table_name"}
	return cfg
}

func TestParsePathRequiresDot(t *testing.T) {
	_, _, _, err := resolve.ParsePath("active")
	assert.Error(t, err)
}

func TestParsePathWithJSONSegments(t *testing.T) {
	tbl, col, path, err := resolve.ParsePath("sales.data->region->city")
	require.NoError(t, err)
	assert.Equal(t, "sales", tbl)
	assert.Equal(t, "data", col)
	assert.Equal(t, []string{"region", "city"}, path)
}

func TestFieldQualified(t *testing.T) {
	st, err := state.New(plainConfig(), "users", zap.NewNop())
	require.NoError(t, err)

	r, err := resolve.Field("users.active", st)
	require.NoError(t, err)
	assert.Equal(t, "users.active", r.SQL)
	assert.Equal(t, "active", r.Alias)
	assert.Equal(t, ast.ExprBoolean, r.TargetType)
}

func TestFieldBareDefaultsToRootTable(t *testing.T) {
	st, err := state.New(plainConfig(), "users", zap.NewNop())
	require.NoError(t, err)

	r, err := resolve.Field("active", st)
	require.NoError(t, err)
	assert.Equal(t, "users.active", r.SQL)
	assert.Equal(t, "users", r.Table)
}

func TestFieldUnknownTable(t *testing.T) {
	st, err := state.New(plainConfig(), "users", zap.NewNop())
	require.NoError(t, err)
	_, err = resolve.Field("ghosts.id", st)
	assert.Error(t, err)
}

func TestFieldUnknownColumn(t *testing.T) {
	st, err := state.New(plainConfig(), "users", zap.NewNop())
	require.NoError(t, err)
	_, err = resolve.Field("users.nope", st)
	assert.Error(t, err)
}

func TestFieldDataTableCastsNonStringColumns(t *testing.T) {
	st, err := state.New(dataTableConfig(), "sales", zap.NewNop())
	require.NoError(t, err)

	r, err := resolve.Field("sales.amount", st)
	require.NoError(t, err)
	assert.Equal(t, `CAST(sales.data->>'amount' AS REAL)`, r.SQL)

	r, err = resolve.Field("sales.region", st)
	require.NoError(t, err)
	assert.Equal(t, `sales.data->>'region'`, r.SQL)
}

func TestFieldDataTableJSONPath(t *testing.T) {
	st, err := state.New(dataTableConfig(), "sales", zap.NewNop())
	require.NoError(t, err)

	r, err := resolve.Field("sales.meta->city", st)
	require.NoError(t, err)
	assert.Equal(t, `sales.data->'meta'->>'city'`, r.SQL)
}

func TestFromClauseAndDataTableCondition(t *testing.T) {
	st, err := state.New(dataTableConfig(), "sales", zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, `raw_data AS "sales"`, resolve.FromClause("sales", st))
	assert.Equal(t, `sales.table_name = 'sales'`, resolve.DataTableCondition("sales", st))

	plain, err := state.New(plainConfig(), "users", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "users", resolve.FromClause("users", plain))
	assert.Equal(t, "", resolve.DataTableCondition("users", plain))
}
