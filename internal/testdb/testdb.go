// Package testdb is the integration-test harness: an in-memory
// modernc.org/sqlite database always available to _test.go files, plus
// an optional github.com/jackc/pgx/v4 connection gated on
// SQLQC_POSTGRES_URL, mirroring the teacher's own pattern of probing for
// a running database container from its test suite (tests/dbint_test.go)
// scaled down to the two dialect families this compiler targets.
package testdb

import (
	"context"
	"database/sql"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"
	_ "modernc.org/sqlite"
)

// SQLite opens a fresh in-memory database and runs schema against it.
// The caller is responsible for closing the returned *sql.DB.
func SQLite(schema string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file::memory:?cache=shared")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // a private in-memory DB vanishes once the last connection closes
	if schema != "" {
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// PostgresURL returns the connection string from SQLQC_POSTGRES_URL and
// whether it was set; tests should skip the postgres half of a
// dialect-parameterized case when it isn't.
func PostgresURL() (string, bool) {
	url := os.Getenv("SQLQC_POSTGRES_URL")
	return url, url != ""
}

// Postgres connects to the database named by SQLQC_POSTGRES_URL and runs
// schema against it. Returns (nil, false, nil) when the env var isn't
// set, so callers can skip cleanly instead of failing.
func Postgres(ctx context.Context, schema string) (*pgxpool.Pool, bool, error) {
	url, ok := PostgresURL()
	if !ok {
		return nil, false, nil
	}
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, false, err
	}
	if schema != "" {
		if _, err := pool.Exec(ctx, schema); err != nil {
			pool.Close()
			return nil, false, err
		}
	}
	return pool, true, nil
}
