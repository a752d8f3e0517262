// Package library is the record store for tracked media: movies, series,
// episodes, and the processing history rows written alongside every
// mutation. All date policy lives with the callers; the store persists
// whatever date and source tag it is handed.
package library

import (
	"fmt"
	"time"
)

// MediaType distinguishes the tracked entity kinds.
type MediaType string

const (
	MediaTypeMovie   MediaType = "movie"
	MediaTypeSeries  MediaType = "series"
	MediaTypeEpisode MediaType = "episode"
)

// Movie is a tracked movie record, keyed by canonical identifier.
type Movie struct {
	IMDbID       string
	Title        string
	Year         int
	Path         string
	Released     *time.Time
	DateAdded    *time.Time
	Source       string
	Skipped      bool
	SkipReason   string
	HasVideoFile bool
	LastUpdated  time.Time
}

// Series is a tracked series record. Episodes belong to exactly one
// series; deleting the series removes them in the same transaction.
type Series struct {
	IMDbID      string
	Title       string
	Year        int
	Path        string
	LastUpdated time.Time
}

// Episode is a tracked episode, keyed by (series, season, episode).
type Episode struct {
	SeriesID     string
	Season       int
	Episode      int
	Title        string
	Aired        *time.Time
	DateAdded    *time.Time
	Source       string
	Skipped      bool
	SkipReason   string
	HasVideoFile bool
	LastUpdated  time.Time
}

// Key returns the history entity key for the episode.
func (e *Episode) Key() string {
	return EpisodeKey(e.SeriesID, e.Season, e.Episode)
}

// EpisodeKey builds the history entity key for an episode. The series
// identifier is kept as a prefix so a series delete can purge episode
// history with a single range match.
func EpisodeKey(seriesID string, season, episode int) string {
	return fmt.Sprintf("%s s%02de%02d", seriesID, season, episode)
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// movieEqual compares the stored fields of two movies, ignoring
// LastUpdated. Used to suppress no-op writes so bulk runs stay
// idempotent.
func movieEqual(a, b *Movie) bool {
	return a.Title == b.Title &&
		a.Year == b.Year &&
		a.Path == b.Path &&
		timePtrEqual(a.Released, b.Released) &&
		timePtrEqual(a.DateAdded, b.DateAdded) &&
		a.Source == b.Source &&
		a.Skipped == b.Skipped &&
		a.SkipReason == b.SkipReason &&
		a.HasVideoFile == b.HasVideoFile
}

func seriesEqual(a, b *Series) bool {
	return a.Title == b.Title && a.Year == b.Year && a.Path == b.Path
}

func episodeEqual(a, b *Episode) bool {
	return a.Title == b.Title &&
		timePtrEqual(a.Aired, b.Aired) &&
		timePtrEqual(a.DateAdded, b.DateAdded) &&
		a.Source == b.Source &&
		a.Skipped == b.Skipped &&
		a.SkipReason == b.SkipReason &&
		a.HasVideoFile == b.HasVideoFile
}

// movieValue renders the tracked state of a movie for history rows.
func movieValue(m *Movie) string {
	if m.Skipped {
		return "skipped: " + m.SkipReason
	}
	return dateValue(m.DateAdded, m.Source)
}

func episodeValue(e *Episode) string {
	if e.Skipped {
		return "skipped: " + e.SkipReason
	}
	return dateValue(e.DateAdded, e.Source)
}

func dateValue(date *time.Time, source string) string {
	switch {
	case date == nil && source == "":
		return ""
	case date == nil:
		return source
	case source == "":
		return date.UTC().Format(time.RFC3339)
	}
	return date.UTC().Format(time.RFC3339) + " (" + source + ")"
}
