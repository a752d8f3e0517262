package populate

import (
	"fmt"
	"sync"

	"github.com/vmunix/datarr/internal/library"
	"github.com/vmunix/datarr/pkg/mediaid"
	"github.com/vmunix/datarr/pkg/title"
)

// matchThreshold is the adjusted similarity a placeholder record must
// reach against a remote item's title and year before it is rekeyed.
const matchThreshold = 0.92

// placeholderSet holds the synthetic-keyed records loaded at the start
// of a pass. Claims are serialized so two workers cannot rekey the
// same placeholder.
type placeholderSet[T any] struct {
	mu         sync.Mutex
	candidates []title.Candidate
	records    []T
	claimed    []bool
}

func (p *placeholderSet[T]) add(t string, year int, rec T) {
	p.candidates = append(p.candidates, title.Candidate{Title: t, Year: year})
	p.records = append(p.records, rec)
	p.claimed = append(p.claimed, false)
}

// claim returns the unclaimed placeholder best matching the remote
// title and year, when one reaches the match threshold.
func (p *placeholderSet[T]) claim(t string, year int) (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var zero T
	idxs := make([]int, 0, len(p.records))
	open := make([]title.Candidate, 0, len(p.records))
	for i := range p.records {
		if !p.claimed[i] {
			idxs = append(idxs, i)
			open = append(open, p.candidates[i])
		}
	}
	j, score := title.BestMatch(title.Candidate{Title: t, Year: year}, open)
	if j < 0 || score < matchThreshold {
		return zero, false
	}
	i := idxs[j]
	p.claimed[i] = true
	return p.records[i], true
}

// placeholderMovies loads records carrying synthetic keys: the rekey
// candidates for movies that have since gained a real identifier. The
// scan covers dated records too, since a hand-set date must follow the
// record to its real key.
func (o *Orchestrator) placeholderMovies() (*placeholderSet[*library.Movie], error) {
	records, _, err := o.store.ListMovies(library.MovieFilter{})
	if err != nil {
		return nil, fmt.Errorf("list placeholder movies: %w", err)
	}
	set := &placeholderSet[*library.Movie]{}
	for _, m := range records {
		if mediaid.IsPlaceholder(m.IMDbID) {
			set.add(m.Title, m.Year, m)
		}
	}
	return set, nil
}

// placeholderSeries loads series records carrying synthetic keys.
func (o *Orchestrator) placeholderSeries() (*placeholderSet[*library.Series], error) {
	records, _, err := o.store.ListSeries(library.SeriesFilter{})
	if err != nil {
		return nil, fmt.Errorf("list placeholder series: %w", err)
	}
	set := &placeholderSet[*library.Series]{}
	for _, sr := range records {
		if mediaid.IsPlaceholder(sr.IMDbID) {
			set.add(sr.Title, sr.Year, sr)
		}
	}
	return set, nil
}

// migrateMovie rekeys a placeholder record to its real identifier in
// one transaction: the synthetic record goes away and the resolved
// record lands under the new key.
func (o *Orchestrator) migrateMovie(oldID string, rec *library.Movie) error {
	tx, err := o.store.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.DeleteMovie(oldID, library.ActorPopulation); err != nil {
		return err
	}
	if _, _, err := tx.UpsertMovie(rec, library.ActorPopulation); err != nil {
		return err
	}
	return tx.Commit()
}

// migrateSeries rekeys a placeholder series. The cascade removes the
// placeholder's episodes; the caller re-adds them under the real key
// with their dates carried forward.
func (o *Orchestrator) migrateSeries(oldID string, sr *library.Series) error {
	tx, err := o.store.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, _, err := tx.DeleteSeries(oldID, library.ActorPopulation); err != nil {
		return err
	}
	if _, _, err := tx.UpsertSeries(sr, library.ActorPopulation); err != nil {
		return err
	}
	return tx.Commit()
}
