package populate

import (
	"sync"
	"time"
)

// maxSkippedDetails caps the itemized skip list per pass; counts keep
// accumulating past the cap.
const maxSkippedDetails = 100

// SkippedItem names one item left undated and why.
type SkippedItem struct {
	Title  string `json:"title"`
	Year   int    `json:"year,omitempty"`
	IMDbID string `json:"imdb_id,omitempty"`
	Reason string `json:"reason"`
}

// Counts aggregates per-item outcomes for one media type. Errors
// counts items where a signal tier could not be evaluated or the
// write failed; such items may still resolve from a remaining tier
// and count as added or updated too.
type Counts struct {
	Added        int           `json:"added"`
	Updated      int           `json:"updated"`
	Skipped      int           `json:"skipped"`
	Errors       int           `json:"errors"`
	SkippedItems []SkippedItem `json:"skipped_items,omitempty"`
}

// MovieStats reports the movie pass.
type MovieStats struct {
	Total int `json:"total"`
	Counts
}

// TVStats reports the episode pass.
type TVStats struct {
	Series   int `json:"total_series"`
	Episodes int `json:"total_episodes"`
	Counts
}

// Report is the outcome of one population run, persisted as the
// report of the triggering job execution.
type Report struct {
	StartedAt time.Time   `json:"started_at"`
	Duration  float64     `json:"duration_seconds"`
	Movies    *MovieStats `json:"movies,omitempty"`
	TV        *TVStats    `json:"tv,omitempty"`
}

// recorder serializes count updates from parallel item workers.
type recorder struct {
	mu       sync.Mutex
	c        Counts
	episodes int
}

func (r *recorder) added() {
	r.mu.Lock()
	r.c.Added++
	r.mu.Unlock()
}

func (r *recorder) updated() {
	r.mu.Lock()
	r.c.Updated++
	r.mu.Unlock()
}

func (r *recorder) errored() {
	r.mu.Lock()
	r.c.Errors++
	r.mu.Unlock()
}

func (r *recorder) skipped(item SkippedItem) {
	r.mu.Lock()
	r.c.Skipped++
	if len(r.c.SkippedItems) < maxSkippedDetails {
		r.c.SkippedItems = append(r.c.SkippedItems, item)
	}
	r.mu.Unlock()
}

func (r *recorder) sawEpisodes(n int) {
	r.mu.Lock()
	r.episodes += n
	r.mu.Unlock()
}

func (r *recorder) episodeTotal() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.episodes
}

func (r *recorder) counts() Counts {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.c
}
