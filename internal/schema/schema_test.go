package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellum-sql/sqlqc/internal/schema"
)

func TestDecodeConfigExplicitRelationship(t *testing.T) {
	raw := map[string]interface{}{
		"dialect": "postgresql",
		"tables": map[string]interface{}{
			"users": map[string]interface{}{
				"allowedFields": []interface{}{
					map[string]interface{}{"name": "id", "type": "uuid"},
				},
			},
			"posts": map[string]interface{}{
				"allowedFields": []interface{}{
					map[string]interface{}{"name": "user_id", "type": "uuid"},
				},
			},
		},
		"relationships": []interface{}{
			map[string]interface{}{"table": "posts", "field": "user_id", "toTable": "users", "toField": "id"},
		},
	}

	cfg, err := schema.DecodeConfig(raw)
	require.NoError(t, err)
	require.Len(t, cfg.Relationships, 1)
	assert.Equal(t, "posts", cfg.Relationships[0].Table)
	assert.Equal(t, "users", cfg.Relationships[0].ToTable)
}

func TestDecodeConfigShorthandRelationship(t *testing.T) {
	raw := map[string]interface{}{
		"dialect": "sqlite-minimal",
		"tables": map[string]interface{}{
			"users": map[string]interface{}{"allowedFields": []interface{}{
				map[string]interface{}{"name": "id", "type": "uuid"},
			}},
			"posts": map[string]interface{}{"allowedFields": []interface{}{
				map[string]interface{}{"name": "user_id", "type": "uuid"},
			}},
		},
		"relationships": []interface{}{
			map[string]interface{}{"posts.user_id": "users.id"},
		},
	}

	cfg, err := schema.DecodeConfig(raw)
	require.NoError(t, err)
	require.Len(t, cfg.Relationships, 1)
	rel := cfg.Relationships[0]
	assert.Equal(t, schema.Relationship{Table: "posts", Field: "user_id", ToTable: "users", ToField: "id"}, rel)
}

func TestDecodeConfigRejectsBadDialect(t *testing.T) {
	raw := map[string]interface{}{"dialect": "mysql", "tables": map[string]interface{}{}}
	_, err := schema.DecodeConfig(raw)
	assert.Error(t, err)
}

func TestDecodeConfigRejectsBadFieldName(t *testing.T) {
	raw := map[string]interface{}{
		"dialect": "postgresql",
		"tables": map[string]interface{}{
			"users": map[string]interface{}{"allowedFields": []interface{}{
				map[string]interface{}{"name": "1bad", "type": "string"},
			}},
		},
	}
	_, err := schema.DecodeConfig(raw)
	assert.Error(t, err)
}

func TestDecodeConfigVariableWithTypedScalar(t *testing.T) {
	raw := map[string]interface{}{
		"dialect": "postgresql",
		"tables":  map[string]interface{}{"users": map[string]interface{}{"allowedFields": []interface{}{}}},
		"variables": map[string]interface{}{
			"defaultStatus": "active",
			"launchedOn":    map[string]interface{}{"$date": "2024-01-01"},
		},
	}
	cfg, err := schema.DecodeConfig(raw)
	require.NoError(t, err)
	assert.Equal(t, "active", cfg.Variables["defaultStatus"].Str)
	assert.Equal(t, "2024-01-01", cfg.Variables["launchedOn"].Str)
}

func TestGetColumn(t *testing.T) {
	tbl := schema.Table{AllowedFields: []schema.Field{{Name: "id", Type: schema.TypeUUID}}}
	f, ok := tbl.GetColumn("id")
	assert.True(t, ok)
	assert.Equal(t, schema.TypeUUID, f.Type)

	_, ok = tbl.GetColumn("missing")
	assert.False(t, ok)
}
