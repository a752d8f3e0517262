package arrdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SonarrDB reads import history from a Sonarr PostgreSQL database.
type SonarrDB struct {
	db *sql.DB
}

// NewSonarrDB wraps an open Sonarr database connection.
func NewSonarrDB(db *sql.DB) *SonarrDB {
	return &SonarrDB{db: db}
}

// Ping verifies the connection.
func (s *SonarrDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *SonarrDB) Close() error {
	return s.db.Close()
}

// ImportDate returns the earliest import event date for an episode, nil when
// the history holds none.
func (s *SonarrDB) ImportDate(ctx context.Context, episodeID int64) (*time.Time, error) {
	const query = `
		SELECT MIN("Date")
		FROM "History"
		WHERE "EpisodeId" = $1 AND "EventType" = $2`

	var ts sql.NullTime
	if err := s.db.QueryRowContext(ctx, query, episodeID, eventTypeImported).Scan(&ts); err != nil {
		return nil, fmt.Errorf("query sonarr history: %w", err)
	}
	if !ts.Valid {
		return nil, nil
	}
	t := ts.Time.UTC()
	return &t, nil
}

// ImportDatesBySeries returns the earliest import event date per episode ID
// in a single query, for whole-series population passes.
func (s *SonarrDB) ImportDatesBySeries(ctx context.Context, seriesID int64) (map[int64]time.Time, error) {
	const query = `
		SELECT h."EpisodeId", MIN(h."Date")
		FROM "History" h
		JOIN "Episodes" e ON h."EpisodeId" = e."Id"
		WHERE e."SeriesId" = $1 AND h."EventType" = $2
		GROUP BY h."EpisodeId"`

	rows, err := s.db.QueryContext(ctx, query, seriesID, eventTypeImported)
	if err != nil {
		return nil, fmt.Errorf("query sonarr history: %w", err)
	}
	defer rows.Close()

	dates := make(map[int64]time.Time)
	for rows.Next() {
		var episodeID int64
		var ts time.Time
		if err := rows.Scan(&episodeID, &ts); err != nil {
			return nil, fmt.Errorf("scan sonarr history: %w", err)
		}
		dates[episodeID] = ts.UTC()
	}
	return dates, rows.Err()
}
