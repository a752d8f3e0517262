package arrdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RadarrDB reads import history from a Radarr PostgreSQL database.
type RadarrDB struct {
	db *sql.DB
}

// NewRadarrDB wraps an open Radarr database connection.
func NewRadarrDB(db *sql.DB) *RadarrDB {
	return &RadarrDB{db: db}
}

// Ping verifies the connection.
func (r *RadarrDB) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (r *RadarrDB) Close() error {
	return r.db.Close()
}

// ImportDate returns the earliest import event date for a movie, nil when
// the history holds none. Movie IDs match the ones the Radarr API exposes.
func (r *RadarrDB) ImportDate(ctx context.Context, movieID int64) (*time.Time, error) {
	const query = `
		SELECT MIN("Date")
		FROM "History"
		WHERE "MovieId" = $1 AND "EventType" = $2`

	var ts sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, movieID, eventTypeImported).Scan(&ts); err != nil {
		return nil, fmt.Errorf("query radarr history: %w", err)
	}
	if !ts.Valid {
		return nil, nil
	}
	t := ts.Time.UTC()
	return &t, nil
}
