// Package arrdb reads import history directly from Radarr and Sonarr
// PostgreSQL databases. The direct path survives history trimming in the
// managers' APIs and is the highest-priority date signal when configured.
// Both readers are optional: a nil reader means the deployment has no
// database access and callers fall through to the HTTP API.
package arrdb

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// History event type 3 is a completed download folder import in both
// Radarr and Sonarr schemas.
const eventTypeImported = 3

// Open opens a read-only side channel to a manager database. The pool is
// kept small: these connections compete with the manager's own.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}
