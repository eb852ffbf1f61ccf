package sqlqc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqlqc "github.com/vellum-sql/sqlqc"
)

func TestBuildInsertQueryFillsUnsetColumnsWithNull(t *testing.T) {
	raw := []byte(`{
		"table": "users",
		"newRow": {"name": "Ada", "age": 30}
	}`)
	sql, err := sqlqc.BuildInsertQuery(raw, usersPostsConfig())
	require.NoError(t, err)
	// Provided columns come first in the query's own declared order
	// ("name" before "age"), then every remaining allowed column in
	// schema order, filled with NULL.
	assert.Equal(t, `INSERT INTO users ("name", "age", "id", "active") VALUES ('Ada', 30, NULL, NULL)`, sql)
}

func TestBuildInsertQueryConditionNotMetFails(t *testing.T) {
	raw := []byte(`{
		"table": "users",
		"newRow": {"active": false},
		"condition": {"users.active": true}
	}`)
	_, err := sqlqc.BuildInsertQuery(raw, usersPostsConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Insert condition not met")
}

func TestBuildInsertQueryRejectsUnknownField(t *testing.T) {
	raw := []byte(`{
		"table": "users",
		"newRow": {"nickname": "Ada"}
	}`)
	_, err := sqlqc.BuildInsertQuery(raw, usersPostsConfig())
	assert.Error(t, err)
}
