package sqlqc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqlqc "github.com/vellum-sql/sqlqc"
)

func TestScenarioS1SelectWithExists(t *testing.T) {
	cfg := usersPostsConfig()
	raw := []byte(`{
		"rootTable": "users",
		"selection": {"id": true},
		"condition": {
			"$exists": {
				"table": "posts",
				"condition": {
					"posts.user_id": {"$eq": {"$field": "users.id"}},
					"posts.published": {"$eq": true}
				}
			}
		}
	}`)
	sql, err := sqlqc.BuildSelectQuery(raw, cfg)
	require.NoError(t, err)
	assert.Equal(t, `SELECT users.id AS "id" FROM users WHERE EXISTS (SELECT 1 FROM posts WHERE (posts.user_id = users.id AND posts.published = TRUE))`, sql)
}

func TestScenarioS2AggregationOnDataTable(t *testing.T) {
	cfg := salesDataTableConfig()
	raw := []byte(`{
		"table": "sales",
		"groupBy": ["sales.region"],
		"aggregatedFields": {
			"total": {"function": "SUM", "field": "sales.amount"},
			"count": {"function": "COUNT", "field": "*"}
		}
	}`)
	sql, err := sqlqc.BuildAggregationQuery(raw, cfg)
	require.NoError(t, err)
	assert.Equal(t, `SELECT sales.data->>'region' AS "region", SUM(CAST(sales.data->>'amount' AS REAL)) AS "total", COUNT(*) AS "count" FROM raw_data AS "sales" WHERE sales.table_name = 'sales' GROUP BY sales.data->>'region'`, sql)
}

func TestScenarioS3UpdateWithExpression(t *testing.T) {
	cfg := balanceConfig()
	raw := []byte(`{
		"table": "users",
		"updates": {
			"balance": {"$func": {"MULTIPLY": [{"$field": "users.balance"}, 1.1]}}
		},
		"condition": {"active": true}
	}`)
	sql, err := sqlqc.BuildUpdateQuery(raw, cfg)
	require.NoError(t, err)
	assert.Equal(t, `UPDATE users SET "balance" = (users.balance * 1.1) WHERE users.active = TRUE`, sql)
}

func TestScenarioS4ConditionalSelectionWithCase(t *testing.T) {
	cfg := &sqlqc.Config{
		Dialect: sqlqc.SQLiteMinimal,
		Tables: map[string]sqlqc.Table{
			"users": {AllowedFields: []sqlqc.Field{
				{Name: "id", Type: sqlqc.TypeUUID},
				{Name: "age", Type: sqlqc.TypeNumber},
			}},
		},
	}
	raw := []byte(`{
		"rootTable": "users",
		"selection": {
			"tier": {"$cond": {
				"if": {"users.age": {"$gte": 65}},
				"then": "Senior",
				"else": {"$cond": {
					"if": {"users.age": {"$gte": 30}},
					"then": "Adult",
					"else": "Young"
				}}
			}}
		}
	}`)
	sql, err := sqlqc.BuildSelectQuery(raw, cfg)
	require.NoError(t, err)
	assert.Contains(t, sql, `(CASE WHEN users.age >= 65 THEN 'Senior' ELSE (CASE WHEN users.age >= 30 THEN 'Adult' ELSE 'Young' END) END) AS "tier"`)
}

func TestScenarioS5PaginationOrdering(t *testing.T) {
	cfg := usersPostsConfig()
	raw := []byte(`{
		"rootTable": "users",
		"selection": {
			"id": true,
			"posts": {"title": true}
		},
		"condition": {"users.active": true},
		"limit": 15,
		"offset": 30
	}`)
	sql, err := sqlqc.BuildSelectQuery(raw, cfg)
	require.NoError(t, err)
	assert.Regexp(t, `WHERE .* LIMIT 15 OFFSET 30$`, sql)
}

func TestScenarioS6DivisionByZero(t *testing.T) {
	cfg := usersPostsConfig()
	raw := []byte(`{"$func": {"DIVIDE": [{"$field": "users.age"}, 0]}}`)
	_, err := sqlqc.ParseExpression(raw, cfg, "users")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Division by zero is not allowed")
}
