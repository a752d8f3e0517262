// Package sonarr provides a client for the Sonarr v3 API.
package sonarr

import "time"

// History event types as they appear in Sonarr API responses.
const (
	EventGrabbed  = "grabbed"
	EventImported = "downloadFolderImported"
	EventRenamed  = "episodeFileRenamed"
)

// Series represents a series in the Sonarr library.
type Series struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Year   int    `json:"year"`
	Path   string `json:"path"`
	IMDBID string `json:"imdbId,omitempty"` // e.g., "tt0944947"
	TVDBID int64  `json:"tvdbId,omitempty"`
	Added  string `json:"added,omitempty"`
}

// Episode represents one episode of a library series.
type Episode struct {
	ID            int64  `json:"id"`
	SeriesID      int64  `json:"seriesId"`
	SeasonNumber  int    `json:"seasonNumber"`
	EpisodeNumber int    `json:"episodeNumber"`
	Title         string `json:"title"`
	AirDateUTC    string `json:"airDateUtc,omitempty"`
	HasFile       bool   `json:"hasFile"`
	EpisodeFileID int64  `json:"episodeFileId,omitempty"`
}

// AirTime parses AirDateUTC, nil when absent or malformed.
func (e *Episode) AirTime() *time.Time { return parseTime(e.AirDateUTC) }

// HistoryRecord is one entry from the paginated history endpoint.
type HistoryRecord struct {
	ID        int64  `json:"id"`
	EpisodeID int64  `json:"episodeId"`
	SeriesID  int64  `json:"seriesId"`
	EventType string `json:"eventType"`
	Date      string `json:"date"`
}

// Time parses the record date.
func (r *HistoryRecord) Time() *time.Time { return parseTime(r.Date) }

type historyPage struct {
	Page         int             `json:"page"`
	PageSize     int             `json:"pageSize"`
	TotalRecords int             `json:"totalRecords"`
	Records      []HistoryRecord `json:"records"`
}

// ImportDates maps episode ID to the earliest import event date found in
// records. Episodes with no usable import event are absent from the map.
func ImportDates(records []HistoryRecord) map[int64]time.Time {
	dates := make(map[int64]time.Time)
	for i := range records {
		if records[i].EventType != EventImported {
			continue
		}
		ts := records[i].Time()
		if ts == nil {
			continue
		}
		id := records[i].EpisodeID
		if existing, ok := dates[id]; !ok || ts.Before(existing) {
			dates[id] = *ts
		}
	}
	return dates
}

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
