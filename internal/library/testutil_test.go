// internal/library/testutil_test.go
package library

import (
	"database/sql"
	_ "embed"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed testdata/schema.sql
var testSchema string

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// In-memory databases are per connection; a single connection keeps
	// every query on the same database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

func setupStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(setupTestDB(t))
}

// ptr returns a pointer to v, for filter and fixture literals.
func ptr[T any](v T) *T { return &v }

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return v
}
