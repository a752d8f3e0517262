package library

import (
	"fmt"
	"strings"
	"time"
)

const seriesColumns = "imdb_id, title, year, path, last_updated"

func addSeries(q querier, s *Series) error {
	now := time.Now().UTC()
	_, err := q.Exec(`
		INSERT INTO series (`+seriesColumns+`)
		VALUES (?, ?, ?, ?, ?)`,
		s.IMDbID, s.Title, s.Year, s.Path, now,
	)
	if err != nil {
		return fmt.Errorf("insert series %s: %w", s.IMDbID, mapSQLiteError(err))
	}
	s.LastUpdated = now
	return nil
}

func getSeries(q querier, imdbID string) (*Series, error) {
	s := &Series{}
	err := q.QueryRow(
		"SELECT "+seriesColumns+" FROM series WHERE imdb_id = ?", imdbID,
	).Scan(&s.IMDbID, &s.Title, &s.Year, &s.Path, &s.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("get series %s: %w", imdbID, mapSQLiteError(err))
	}
	return s, nil
}

// GetSeries retrieves a series by identifier.
// Returns ErrNotFound if the series does not exist.
func (s *Store) GetSeries(imdbID string) (*Series, error) { return getSeries(s.db, imdbID) }

// GetSeries retrieves a series by identifier within a transaction.
func (t *Tx) GetSeries(imdbID string) (*Series, error) { return getSeries(t.tx, imdbID) }

func updateSeries(q querier, s *Series) error {
	now := time.Now().UTC()
	result, err := q.Exec(`
		UPDATE series SET title = ?, year = ?, path = ?, last_updated = ?
		WHERE imdb_id = ?`,
		s.Title, s.Year, s.Path, now, s.IMDbID,
	)
	if err != nil {
		return fmt.Errorf("update series %s: %w", s.IMDbID, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update series %s: %w", s.IMDbID, ErrNotFound)
	}
	s.LastUpdated = now
	return nil
}

// AddSeries inserts a new series and records an insert history row in
// the same transaction.
func (s *Store) AddSeries(sr *Series, actor string) error {
	return s.inTx(func(tx *Tx) error { return tx.AddSeries(sr, actor) })
}

// AddSeries inserts a new series within a transaction.
func (t *Tx) AddSeries(sr *Series, actor string) error {
	if err := addSeries(t.tx, sr); err != nil {
		return err
	}
	return appendHistory(t.tx, &HistoryEntry{
		EntityType: MediaTypeSeries,
		EntityKey:  sr.IMDbID,
		Action:     ActionInsert,
		NewValue:   sr.Title,
		Actor:      actor,
	})
}

// UpsertSeries inserts or updates a series, suppressing no-op writes.
// Returns (created, changed).
func (s *Store) UpsertSeries(sr *Series, actor string) (created, changed bool, err error) {
	err = s.inTx(func(tx *Tx) error {
		created, changed, err = tx.UpsertSeries(sr, actor)
		return err
	})
	return created, changed, err
}

// UpsertSeries inserts or updates a series within a transaction.
func (t *Tx) UpsertSeries(sr *Series, actor string) (created, changed bool, err error) {
	existing, err := getSeries(t.tx, sr.IMDbID)
	if err == nil {
		if seriesEqual(existing, sr) {
			sr.LastUpdated = existing.LastUpdated
			return false, false, nil
		}
		if err := updateSeries(t.tx, sr); err != nil {
			return false, false, err
		}
		err = appendHistory(t.tx, &HistoryEntry{
			EntityType: MediaTypeSeries,
			EntityKey:  sr.IMDbID,
			Action:     ActionUpdate,
			OldValue:   existing.Title,
			NewValue:   sr.Title,
			Actor:      actor,
		})
		return false, true, err
	}
	if err != nil && !isNotFound(err) {
		return false, false, err
	}
	if err := t.AddSeries(sr, actor); err != nil {
		return false, false, err
	}
	return true, true, nil
}

// DeleteSeries removes a series and all of its episodes in one
// transaction, purging their accumulated history and leaving a single
// terminal delete row. Returns the deleted series and its episodes, or
// ErrNotFound if the series does not exist.
func (s *Store) DeleteSeries(imdbID, actor string) (*Series, []*Episode, error) {
	var (
		deleted  *Series
		episodes []*Episode
	)
	err := s.inTx(func(tx *Tx) error {
		var err error
		deleted, episodes, err = tx.DeleteSeries(imdbID, actor)
		return err
	})
	return deleted, episodes, err
}

// DeleteSeries removes a series and its episodes within a transaction.
func (t *Tx) DeleteSeries(imdbID, actor string) (*Series, []*Episode, error) {
	sr, err := getSeries(t.tx, imdbID)
	if err != nil {
		return nil, nil, err
	}
	episodes, _, err := listEpisodes(t.tx, EpisodeFilter{SeriesID: &imdbID})
	if err != nil {
		return nil, nil, err
	}

	// Episodes are removed explicitly rather than relying on the
	// cascade so the delete is complete even when foreign keys are
	// disabled on the connection.
	if _, err := t.tx.Exec("DELETE FROM episodes WHERE series_id = ?", imdbID); err != nil {
		return nil, nil, fmt.Errorf("delete episodes for %s: %w", imdbID, mapSQLiteError(err))
	}
	if _, err := t.tx.Exec("DELETE FROM series WHERE imdb_id = ?", imdbID); err != nil {
		return nil, nil, fmt.Errorf("delete series %s: %w", imdbID, mapSQLiteError(err))
	}
	if err := purgeHistory(t.tx, MediaTypeSeries, imdbID); err != nil {
		return nil, nil, err
	}
	err = appendHistory(t.tx, &HistoryEntry{
		EntityType: MediaTypeSeries,
		EntityKey:  imdbID,
		Action:     ActionDelete,
		OldValue:   fmt.Sprintf("%s (%d episodes)", sr.Title, len(episodes)),
		Actor:      actor,
	})
	if err != nil {
		return nil, nil, err
	}
	return sr, episodes, nil
}

func listSeries(q querier, f SeriesFilter) ([]*Series, int, error) {
	var conditions []string
	var args []any

	if f.Search != nil {
		conditions = append(conditions, "title LIKE '%' || ? || '%'")
		args = append(args, *f.Search)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := q.QueryRow("SELECT COUNT(*) FROM series "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count series: %w", err)
	}

	query := "SELECT " + seriesColumns + " FROM series " + whereClause + " ORDER BY imdb_id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list series: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Series
	for rows.Next() {
		sr := &Series{}
		if err := rows.Scan(&sr.IMDbID, &sr.Title, &sr.Year, &sr.Path, &sr.LastUpdated); err != nil {
			return nil, 0, fmt.Errorf("scan series: %w", err)
		}
		results = append(results, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate series: %w", err)
	}

	return results, total, nil
}

// ListSeries returns series matching the filter with pagination.
// Returns (results, totalCount, error).
func (s *Store) ListSeries(f SeriesFilter) ([]*Series, int, error) { return listSeries(s.db, f) }

// ListSeries returns series matching the filter within a transaction.
func (t *Tx) ListSeries(f SeriesFilter) ([]*Series, int, error) { return listSeries(t.tx, f) }

// EntityType reports whether the identifier is tracked as a movie or a
// series. Returns ErrNotFound when the identifier is unknown.
func (s *Store) EntityType(imdbID string) (MediaType, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM movies WHERE imdb_id = ?", imdbID).Scan(&one)
	if err == nil {
		return MediaTypeMovie, nil
	}
	if mapped := mapSQLiteError(err); !isNotFound(mapped) {
		return "", fmt.Errorf("lookup movie %s: %w", imdbID, mapped)
	}
	err = s.db.QueryRow("SELECT 1 FROM series WHERE imdb_id = ?", imdbID).Scan(&one)
	if err == nil {
		return MediaTypeSeries, nil
	}
	if mapped := mapSQLiteError(err); !isNotFound(mapped) {
		return "", fmt.Errorf("lookup series %s: %w", imdbID, mapped)
	}
	return "", ErrNotFound
}
