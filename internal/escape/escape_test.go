package escape_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vellum-sql/sqlqc/internal/dialect"
	"github.com/vellum-sql/sqlqc/internal/escape"
)

func TestStringEscapesQuotes(t *testing.T) {
	assert.Equal(t, `'it''s fine'`, escape.String("it's fine"))
	assert.Equal(t, `'; DROP TABLE users; --'`, escape.String("'; DROP TABLE users; --"))
}

func TestNumber(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{3, "3"},
		{-3, "-3"},
		{3.5, "3.5"},
		{0, "0"},
	}
	for _, c := range cases {
		got, err := escape.Number(c.in)
		assert.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestNumberRejectsNaNAndInf(t *testing.T) {
	_, err := escape.Number(math_NaN())
	assert.Error(t, err)
}

func math_NaN() float64 {
	var zero float64
	return zero / zero
}

func TestBoolAndNull(t *testing.T) {
	pg, err := dialect.Resolve(dialect.Postgres)
	assert.NoError(t, err)
	assert.Equal(t, "TRUE", escape.Bool(true, pg))
	assert.Equal(t, "FALSE", escape.Bool(false, pg))
	assert.Equal(t, "NULL", escape.Null())
}

func TestDateAndTimestampByDialect(t *testing.T) {
	pg, _ := dialect.Resolve(dialect.Postgres)
	sq, _ := dialect.Resolve(dialect.SQLiteMinimal)

	d, err := escape.Date("2024-01-15", pg)
	assert.NoError(t, err)
	assert.Equal(t, "'2024-01-15'::DATE", d)

	d, err = escape.Date("2024-01-15", sq)
	assert.NoError(t, err)
	assert.Equal(t, "'2024-01-15'", d)

	_, err = escape.Date("not-a-date", pg)
	assert.Error(t, err)

	ts, err := escape.Timestamp("2024-01-15T10:30:00", pg)
	assert.NoError(t, err)
	assert.Equal(t, "'2024-01-15 10:30:00'::TIMESTAMP", ts)
}

func TestUUID(t *testing.T) {
	pg, _ := dialect.Resolve(dialect.Postgres)
	got, err := escape.UUID("550e8400-e29b-41d4-a716-446655440000", pg)
	assert.NoError(t, err)
	assert.Equal(t, "'550e8400-e29b-41d4-a716-446655440000'::UUID", got)

	_, err = escape.UUID("not-a-uuid", pg)
	assert.Error(t, err)
}

func TestJSONB(t *testing.T) {
	pg, _ := dialect.Resolve(dialect.Postgres)
	vals := map[string]json.RawMessage{
		"name": json.RawMessage(`"O'Brien"`),
		"age":  json.RawMessage(`30`),
	}
	got, err := escape.JSONB(vals, []string{"name", "age"}, pg)
	assert.NoError(t, err)
	assert.Equal(t, `'{"name":"O''Brien","age":30}'::JSONB`, got)
}

func TestIdentifier(t *testing.T) {
	pg, _ := dialect.Resolve(dialect.Postgres)
	assert.Equal(t, `"users"`, escape.Identifier("users", pg))
}
