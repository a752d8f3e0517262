// Package radarr provides a client for the Radarr v3 API.
package radarr

import "time"

// History event types as they appear in Radarr API responses.
const (
	EventGrabbed  = "grabbed"
	EventImported = "downloadFolderImported"
)

// Movie represents a movie in the Radarr library.
type Movie struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Year            int    `json:"year"`
	Path            string `json:"path"`
	IMDBID          string `json:"imdbId,omitempty"` // e.g., "tt0133093"
	TMDBID          int64  `json:"tmdbId,omitempty"`
	HasFile         bool   `json:"hasFile"`
	Added           string `json:"added,omitempty"`
	InCinemas       string `json:"inCinemas,omitempty"`
	DigitalRelease  string `json:"digitalRelease,omitempty"`
	PhysicalRelease string `json:"physicalRelease,omitempty"`
}

// DigitalReleaseTime parses DigitalRelease, nil when absent or malformed.
func (m *Movie) DigitalReleaseTime() *time.Time { return parseTime(m.DigitalRelease) }

// PhysicalReleaseTime parses PhysicalRelease.
func (m *Movie) PhysicalReleaseTime() *time.Time { return parseTime(m.PhysicalRelease) }

// InCinemasTime parses InCinemas.
func (m *Movie) InCinemasTime() *time.Time { return parseTime(m.InCinemas) }

// AddedTime parses Added.
func (m *Movie) AddedTime() *time.Time { return parseTime(m.Added) }

// HistoryRecord is one entry from the movie history endpoint.
type HistoryRecord struct {
	ID          int64  `json:"id"`
	MovieID     int64  `json:"movieId"`
	EventType   string `json:"eventType"`
	Date        string `json:"date"`
	SourceTitle string `json:"sourceTitle,omitempty"`
}

// Time parses the record date.
func (r *HistoryRecord) Time() *time.Time { return parseTime(r.Date) }

// EarliestImport returns the oldest import event date in records, or nil when
// the history holds no usable import event.
func EarliestImport(records []HistoryRecord) *time.Time {
	var earliest *time.Time
	for i := range records {
		if records[i].EventType != EventImported {
			continue
		}
		ts := records[i].Time()
		if ts == nil {
			continue
		}
		if earliest == nil || ts.Before(*earliest) {
			earliest = ts
		}
	}
	return earliest
}

// parseTime handles the timestamp forms Radarr emits: RFC3339 (with or
// without fractional seconds) and bare dates.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		t = t.UTC()
		return &t
	}
	return nil
}
