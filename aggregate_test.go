package sqlqc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqlqc "github.com/vellum-sql/sqlqc"
)

func salesDataTableConfig() *sqlqc.Config {
	return &sqlqc.Config{
		Dialect: sqlqc.SQLiteMinimal,
		Tables: map[string]sqlqc.Table{
			"sales": {AllowedFields: []sqlqc.Field{
				{Name: "region", Type: sqlqc.TypeString},
				{Name: "amount", Type: sqlqc.TypeNumber},
			}},
		},
		DataTable: &sqlqc.DataTable{Table: "raw_data", DataField: "data", TableField: "table_name"},
	}
}

func TestBuildAggregationQueryDataTable(t *testing.T) {
	raw := []byte(`{
		"table": "sales",
		"groupBy": ["sales.region"],
		"aggregatedFields": {
			"total": {"function": "SUM", "field": "sales.amount"},
			"count": {"function": "COUNT", "field": "*"}
		}
	}`)
	sql, err := sqlqc.BuildAggregationQuery(raw, salesDataTableConfig())
	require.NoError(t, err)
	// aggregatedFields is decoded straight from raw's own bytes, so it
	// keeps the query's declared key order: "total" before "count".
	assert.Equal(t, `SELECT sales.data->>'region' AS "region", SUM(CAST(sales.data->>'amount' AS REAL)) AS "total", COUNT(*) AS "count" FROM raw_data AS "sales" WHERE sales.table_name = 'sales' GROUP BY sales.data->>'region'`, sql)
}

func TestBuildAggregationQueryRequiresGroupByOrAggregatedField(t *testing.T) {
	raw := []byte(`{"table": "sales"}`)
	_, err := sqlqc.BuildAggregationQuery(raw, salesDataTableConfig())
	assert.Error(t, err)
}

func TestBuildAggregationQueryCountStarOnlyFunctionAllowedWithStar(t *testing.T) {
	raw := []byte(`{
		"table": "sales",
		"aggregatedFields": {
			"total": {"function": "SUM", "field": "*"}
		}
	}`)
	_, err := sqlqc.BuildAggregationQuery(raw, salesDataTableConfig())
	assert.Error(t, err)
}
