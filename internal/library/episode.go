package library

import (
	"fmt"
	"strings"
	"time"
)

const episodeColumns = "series_id, season, episode, title, aired, date_added, source, skipped, skip_reason, has_video_file, last_updated"

func scanEpisode(row interface{ Scan(...any) error }) (*Episode, error) {
	e := &Episode{}
	err := row.Scan(&e.SeriesID, &e.Season, &e.Episode, &e.Title, &e.Aired, &e.DateAdded,
		&e.Source, &e.Skipped, &e.SkipReason, &e.HasVideoFile, &e.LastUpdated)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func addEpisode(q querier, e *Episode) error {
	now := time.Now().UTC()
	_, err := q.Exec(`
		INSERT INTO episodes (`+episodeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SeriesID, e.Season, e.Episode, e.Title, e.Aired, e.DateAdded,
		e.Source, e.Skipped, e.SkipReason, e.HasVideoFile, now,
	)
	if err != nil {
		return fmt.Errorf("insert episode %s: %w", e.Key(), mapSQLiteError(err))
	}
	e.LastUpdated = now
	return nil
}

func getEpisode(q querier, seriesID string, season, episode int) (*Episode, error) {
	e, err := scanEpisode(q.QueryRow(
		"SELECT "+episodeColumns+" FROM episodes WHERE series_id = ? AND season = ? AND episode = ?",
		seriesID, season, episode))
	if err != nil {
		return nil, fmt.Errorf("get episode %s: %w", EpisodeKey(seriesID, season, episode), mapSQLiteError(err))
	}
	return e, nil
}

// GetEpisode retrieves an episode by its composite key.
// Returns ErrNotFound if the episode does not exist.
func (s *Store) GetEpisode(seriesID string, season, episode int) (*Episode, error) {
	return getEpisode(s.db, seriesID, season, episode)
}

// GetEpisode retrieves an episode within a transaction.
func (t *Tx) GetEpisode(seriesID string, season, episode int) (*Episode, error) {
	return getEpisode(t.tx, seriesID, season, episode)
}

func updateEpisode(q querier, e *Episode) error {
	now := time.Now().UTC()
	result, err := q.Exec(`
		UPDATE episodes SET title = ?, aired = ?, date_added = ?, source = ?,
			skipped = ?, skip_reason = ?, has_video_file = ?, last_updated = ?
		WHERE series_id = ? AND season = ? AND episode = ?`,
		e.Title, e.Aired, e.DateAdded, e.Source,
		e.Skipped, e.SkipReason, e.HasVideoFile, now,
		e.SeriesID, e.Season, e.Episode,
	)
	if err != nil {
		return fmt.Errorf("update episode %s: %w", e.Key(), mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update episode %s: %w", e.Key(), ErrNotFound)
	}
	e.LastUpdated = now
	return nil
}

// UpsertEpisode inserts or updates an episode, suppressing no-op
// writes. The parent series must exist. Returns (created, changed).
func (s *Store) UpsertEpisode(e *Episode, actor string) (created, changed bool, err error) {
	err = s.inTx(func(tx *Tx) error {
		created, changed, err = tx.UpsertEpisode(e, actor)
		return err
	})
	return created, changed, err
}

// UpsertEpisode inserts or updates an episode within a transaction.
func (t *Tx) UpsertEpisode(e *Episode, actor string) (created, changed bool, err error) {
	existing, err := getEpisode(t.tx, e.SeriesID, e.Season, e.Episode)
	if err == nil {
		if episodeEqual(existing, e) {
			e.LastUpdated = existing.LastUpdated
			return false, false, nil
		}
		if err := updateEpisode(t.tx, e); err != nil {
			return false, false, err
		}
		action := ActionUpdate
		if e.Skipped && !existing.Skipped {
			action = ActionSkip
		}
		err = appendHistory(t.tx, &HistoryEntry{
			EntityType: MediaTypeEpisode,
			EntityKey:  e.Key(),
			Action:     action,
			OldValue:   episodeValue(existing),
			NewValue:   episodeValue(e),
			Actor:      actor,
		})
		return false, true, err
	}
	if err != nil && !isNotFound(err) {
		return false, false, err
	}
	if err := addEpisode(t.tx, e); err != nil {
		return false, false, err
	}
	action := ActionInsert
	if e.Skipped {
		action = ActionSkip
	}
	err = appendHistory(t.tx, &HistoryEntry{
		EntityType: MediaTypeEpisode,
		EntityKey:  e.Key(),
		Action:     action,
		NewValue:   episodeValue(e),
		Actor:      actor,
	})
	if err != nil {
		return false, false, err
	}
	return true, true, nil
}

// SetEpisodeDate sets the date and source tag directly, recording an
// override (for manual changes) or update history row.
func (s *Store) SetEpisodeDate(seriesID string, season, episode int, date time.Time, source, actor string) error {
	return s.inTx(func(tx *Tx) error {
		e, err := tx.GetEpisode(seriesID, season, episode)
		if err != nil {
			return err
		}
		old := episodeValue(e)
		e.DateAdded = &date
		e.Source = source
		e.Skipped = false
		e.SkipReason = ""
		if err := updateEpisode(tx.tx, e); err != nil {
			return err
		}
		action := ActionUpdate
		if actor == ActorManual {
			action = ActionOverride
		}
		return appendHistory(tx.tx, &HistoryEntry{
			EntityType: MediaTypeEpisode,
			EntityKey:  e.Key(),
			Action:     action,
			OldValue:   old,
			NewValue:   episodeValue(e),
			Actor:      actor,
		})
	})
}

func listEpisodes(q querier, f EpisodeFilter) ([]*Episode, int, error) {
	var conditions []string
	var args []any

	if f.SeriesID != nil {
		conditions = append(conditions, "series_id = ?")
		args = append(args, *f.SeriesID)
	}
	if f.Season != nil {
		conditions = append(conditions, "season = ?")
		args = append(args, *f.Season)
	}
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

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := q.QueryRow("SELECT COUNT(*) FROM episodes "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count episodes: %w", err)
	}

	query := "SELECT " + episodeColumns + " FROM episodes " + whereClause + " ORDER BY series_id, season, episode"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list episodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Episode
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan episode: %w", err)
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate episodes: %w", err)
	}

	return results, total, nil
}

// ListEpisodes returns episodes matching the filter with pagination.
// Returns (results, totalCount, error).
func (s *Store) ListEpisodes(f EpisodeFilter) ([]*Episode, int, error) { return listEpisodes(s.db, f) }

// ListEpisodes returns episodes matching the filter within a transaction.
func (t *Tx) ListEpisodes(f EpisodeFilter) ([]*Episode, int, error) { return listEpisodes(t.tx, f) }
