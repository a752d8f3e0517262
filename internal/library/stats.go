package library

import (
	"database/sql"
	"fmt"
)

// StatsBucket summarizes date coverage for one media type.
type StatsBucket struct {
	Total    int
	WithDate int
	Missing  int
	Skipped  int
}

// Stats aggregates record store coverage for dashboards and reports.
type Stats struct {
	Movies   StatsBucket
	Episodes StatsBucket
	Series   int
	BySource map[string]int
}

func statsBucket(q querier, table string) (StatsBucket, error) {
	var b StatsBucket
	var withDate, skipped sql.NullInt64
	err := q.QueryRow(`
		SELECT COUNT(*),
			SUM(CASE WHEN date_added IS NOT NULL THEN 1 ELSE 0 END),
			SUM(CASE WHEN skipped = 1 THEN 1 ELSE 0 END)
		FROM ` + table).Scan(&b.Total, &withDate, &skipped)
	if err != nil {
		return b, fmt.Errorf("stats for %s: %w", table, err)
	}
	b.WithDate = int(withDate.Int64)
	b.Skipped = int(skipped.Int64)
	b.Missing = b.Total - b.WithDate
	return b, nil
}

// Stats returns coverage totals and the per-source breakdown across
// movies and episodes.
func (s *Store) Stats() (*Stats, error) {
	st := &Stats{BySource: make(map[string]int)}

	var err error
	if st.Movies, err = statsBucket(s.db, "movies"); err != nil {
		return nil, err
	}
	if st.Episodes, err = statsBucket(s.db, "episodes"); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM series").Scan(&st.Series); err != nil {
		return nil, fmt.Errorf("count series: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT source, COUNT(*) FROM (
			SELECT source FROM movies WHERE source != ''
			UNION ALL
			SELECT source FROM episodes WHERE source != ''
		) GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("stats by source: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("scan source stats: %w", err)
		}
		st.BySource[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source stats: %w", err)
	}

	return st, nil
}
