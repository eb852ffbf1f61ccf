package sqlqc_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqlqc "github.com/vellum-sql/sqlqc"
	"github.com/vellum-sql/sqlqc/internal/testdb"
)

// TestInjectionSafetyAgainstLiveSQLite builds an INSERT whose string
// value is an adversarial payload and runs the emitted SQL against a
// real in-memory database, checking neither the statement nor the
// table survive any differently than an ordinary string insert would.
func TestInjectionSafetyAgainstLiveSQLite(t *testing.T) {
	db, err := testdb.SQLite(`CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT);`)
	require.NoError(t, err)
	defer db.Close()

	cfg := &sqlqc.Config{
		Dialect: sqlqc.SQLiteMinimal,
		Tables: map[string]sqlqc.Table{
			"notes": {AllowedFields: []sqlqc.Field{
				{Name: "id", Type: sqlqc.TypeNumber},
				{Name: "body", Type: sqlqc.TypeString},
			}},
		},
	}

	payload := "'; DROP TABLE notes; --"
	payloadJSON, err := json.Marshal(payload)
	require.NoError(t, err)
	raw := []byte(fmt.Sprintf(`{"table":"notes","newRow":{"id":1,"body":%s}}`, payloadJSON))

	sql, err := sqlqc.BuildInsertQuery(raw, cfg)
	require.NoError(t, err)

	quoteCount := strings.Count(sql, "'")
	assert.Equal(t, 4, quoteCount, "the payload's single quote must be doubled, not left to close the literal early")

	_, err = db.Exec(sql)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&count))
	assert.Equal(t, 1, count, "the table must still exist and hold exactly the one inserted row")

	var body string
	require.NoError(t, db.QueryRow(`SELECT body FROM notes WHERE id = 1`).Scan(&body))
	assert.Equal(t, payload, body, "the stored value must match the payload verbatim, proving it was never executed as SQL")
}

func TestInjectionSafetyDoublesEveryInternalQuote(t *testing.T) {
	cfg := &sqlqc.Config{
		Dialect: sqlqc.Postgres,
		Tables: map[string]sqlqc.Table{
			"notes": {AllowedFields: []sqlqc.Field{{Name: "body", Type: sqlqc.TypeString}}},
		},
	}
	raw := []byte(`{"table": "notes", "newRow": {"body": "O'Brien's UNION SELECT"}}`)
	sql, err := sqlqc.BuildInsertQuery(raw, cfg)
	require.NoError(t, err)
	assert.Contains(t, sql, `'O''Brien''s UNION SELECT'`)
}
