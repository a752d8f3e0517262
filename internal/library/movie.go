package library

import (
	"fmt"
	"strings"
	"time"
)

const movieColumns = "imdb_id, title, year, path, released, date_added, source, skipped, skip_reason, has_video_file, last_updated"

func scanMovie(row interface{ Scan(...any) error }) (*Movie, error) {
	m := &Movie{}
	err := row.Scan(&m.IMDbID, &m.Title, &m.Year, &m.Path, &m.Released, &m.DateAdded,
		&m.Source, &m.Skipped, &m.SkipReason, &m.HasVideoFile, &m.LastUpdated)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func addMovie(q querier, m *Movie) error {
	now := time.Now().UTC()
	_, err := q.Exec(`
		INSERT INTO movies (`+movieColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.IMDbID, m.Title, m.Year, m.Path, m.Released, m.DateAdded,
		m.Source, m.Skipped, m.SkipReason, m.HasVideoFile, now,
	)
	if err != nil {
		return fmt.Errorf("insert movie %s: %w", m.IMDbID, mapSQLiteError(err))
	}
	m.LastUpdated = now
	return nil
}

func getMovie(q querier, imdbID string) (*Movie, error) {
	m, err := scanMovie(q.QueryRow(
		"SELECT "+movieColumns+" FROM movies WHERE imdb_id = ?", imdbID))
	if err != nil {
		return nil, fmt.Errorf("get movie %s: %w", imdbID, mapSQLiteError(err))
	}
	return m, nil
}

// GetMovie retrieves a movie by identifier.
// Returns ErrNotFound if the movie does not exist.
func (s *Store) GetMovie(imdbID string) (*Movie, error) { return getMovie(s.db, imdbID) }

// GetMovie retrieves a movie by identifier within a transaction.
func (t *Tx) GetMovie(imdbID string) (*Movie, error) { return getMovie(t.tx, imdbID) }

func updateMovie(q querier, m *Movie) error {
	now := time.Now().UTC()
	result, err := q.Exec(`
		UPDATE movies SET title = ?, year = ?, path = ?, released = ?, date_added = ?,
			source = ?, skipped = ?, skip_reason = ?, has_video_file = ?, last_updated = ?
		WHERE imdb_id = ?`,
		m.Title, m.Year, m.Path, m.Released, m.DateAdded,
		m.Source, m.Skipped, m.SkipReason, m.HasVideoFile, now, m.IMDbID,
	)
	if err != nil {
		return fmt.Errorf("update movie %s: %w", m.IMDbID, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update movie %s: %w", m.IMDbID, ErrNotFound)
	}
	m.LastUpdated = now
	return nil
}

// AddMovie inserts a new movie and records an insert (or skip) history
// row in the same transaction.
func (s *Store) AddMovie(m *Movie, actor string) error {
	return s.inTx(func(tx *Tx) error { return tx.AddMovie(m, actor) })
}

// AddMovie inserts a new movie within a transaction.
func (t *Tx) AddMovie(m *Movie, actor string) error {
	if err := addMovie(t.tx, m); err != nil {
		return err
	}
	action := ActionInsert
	if m.Skipped {
		action = ActionSkip
	}
	return appendHistory(t.tx, &HistoryEntry{
		EntityType: MediaTypeMovie,
		EntityKey:  m.IMDbID,
		Action:     action,
		NewValue:   movieValue(m),
		Actor:      actor,
	})
}

// UpsertMovie inserts or updates a movie. No-op writes are suppressed:
// when the stored record already matches, nothing is written and both
// results are false. Returns (created, changed).
func (s *Store) UpsertMovie(m *Movie, actor string) (created, changed bool, err error) {
	err = s.inTx(func(tx *Tx) error {
		created, changed, err = tx.UpsertMovie(m, actor)
		return err
	})
	return created, changed, err
}

// UpsertMovie inserts or updates a movie within a transaction.
func (t *Tx) UpsertMovie(m *Movie, actor string) (created, changed bool, err error) {
	existing, err := getMovie(t.tx, m.IMDbID)
	if err == nil {
		if movieEqual(existing, m) {
			m.LastUpdated = existing.LastUpdated
			return false, false, nil
		}
		if err := updateMovie(t.tx, m); err != nil {
			return false, false, err
		}
		action := ActionUpdate
		if m.Skipped && !existing.Skipped {
			action = ActionSkip
		}
		err = appendHistory(t.tx, &HistoryEntry{
			EntityType: MediaTypeMovie,
			EntityKey:  m.IMDbID,
			Action:     action,
			OldValue:   movieValue(existing),
			NewValue:   movieValue(m),
			Actor:      actor,
		})
		return false, true, err
	}
	if err != nil && !isNotFound(err) {
		return false, false, err
	}
	if err := t.AddMovie(m, actor); err != nil {
		return false, false, err
	}
	return true, true, nil
}

// SetMovieDate sets the date and source tag directly, recording an
// override (for manual changes) or update history row. The caller is
// responsible for any priority policy.
func (s *Store) SetMovieDate(imdbID string, date time.Time, source, actor string) error {
	return s.inTx(func(tx *Tx) error {
		m, err := tx.GetMovie(imdbID)
		if err != nil {
			return err
		}
		old := movieValue(m)
		m.DateAdded = &date
		m.Source = source
		m.Skipped = false
		m.SkipReason = ""
		if err := updateMovie(tx.tx, m); err != nil {
			return err
		}
		action := ActionUpdate
		if actor == ActorManual {
			action = ActionOverride
		}
		return appendHistory(tx.tx, &HistoryEntry{
			EntityType: MediaTypeMovie,
			EntityKey:  imdbID,
			Action:     action,
			OldValue:   old,
			NewValue:   movieValue(m),
			Actor:      actor,
		})
	})
}

// DeleteMovie removes a movie along with its accumulated history,
// leaving a single terminal delete row. Returns the deleted record, or
// ErrNotFound if the movie does not exist.
func (s *Store) DeleteMovie(imdbID, actor string) (*Movie, error) {
	var deleted *Movie
	err := s.inTx(func(tx *Tx) error {
		var err error
		deleted, err = tx.DeleteMovie(imdbID, actor)
		return err
	})
	return deleted, err
}

// DeleteMovie removes a movie within a transaction.
func (t *Tx) DeleteMovie(imdbID, actor string) (*Movie, error) {
	m, err := getMovie(t.tx, imdbID)
	if err != nil {
		return nil, err
	}
	if _, err := t.tx.Exec("DELETE FROM movies WHERE imdb_id = ?", imdbID); err != nil {
		return nil, fmt.Errorf("delete movie %s: %w", imdbID, mapSQLiteError(err))
	}
	if err := purgeHistory(t.tx, MediaTypeMovie, imdbID); err != nil {
		return nil, err
	}
	err = appendHistory(t.tx, &HistoryEntry{
		EntityType: MediaTypeMovie,
		EntityKey:  imdbID,
		Action:     ActionDelete,
		OldValue:   movieValue(m),
		Actor:      actor,
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func listMovies(q querier, f MovieFilter) ([]*Movie, int, error) {
	var conditions []string
	var args []any

	if f.Skipped != nil {
		conditions = append(conditions, "skipped = ?")
		args = append(args, *f.Skipped)
	}
	if f.MissingDate != nil {
		if *f.MissingDate {
			conditions = append(conditions, "date_added IS NULL")
		} else {
			conditions = append(conditions, "date_added IS NOT NULL")
		}
	}
	if f.Source != nil {
		conditions = append(conditions, "source LIKE ? || '%'")
		args = append(args, *f.Source)
	}
	if f.HasVideoFile != nil {
		conditions = append(conditions, "has_video_file = ?")
		args = append(args, *f.HasVideoFile)
	}
	if f.Search != nil {
		conditions = append(conditions, "title LIKE '%' || ? || '%'")
		args = append(args, *f.Search)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := q.QueryRow("SELECT COUNT(*) FROM movies "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movies: %w", err)
	}

	query := "SELECT " + movieColumns + " FROM movies " + whereClause + " ORDER BY imdb_id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list movies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan movie: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate movies: %w", err)
	}

	return results, total, nil
}

// ListMovies returns movies matching the filter with pagination.
// Returns (results, totalCount, error).
func (s *Store) ListMovies(f MovieFilter) ([]*Movie, int, error) { return listMovies(s.db, f) }

// ListMovies returns movies matching the filter within a transaction.
func (t *Tx) ListMovies(f MovieFilter) ([]*Movie, int, error) { return listMovies(t.tx, f) }
