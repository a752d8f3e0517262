package v1

import (
	"encoding/json"
	"time"

	"github.com/vmunix/datarr/internal/schedule"
)

// movieResponse is the API representation of a tracked movie.
type movieResponse struct {
	IMDbID       string     `json:"imdb_id"`
	Title        string     `json:"title"`
	Year         int        `json:"year,omitempty"`
	Path         string     `json:"path,omitempty"`
	Released     *time.Time `json:"released,omitempty"`
	DateAdded    *time.Time `json:"date_added,omitempty"`
	Source       string     `json:"source,omitempty"`
	Skipped      bool       `json:"skipped"`
	SkipReason   string     `json:"skip_reason,omitempty"`
	HasVideoFile bool       `json:"has_video_file"`
	LastUpdated  time.Time  `json:"last_updated"`
}

// listMoviesResponse is the response for GET /movies.
type listMoviesResponse struct {
	Items  []movieResponse `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type seriesResponse struct {
	IMDbID      string    `json:"imdb_id"`
	Title       string    `json:"title"`
	Year        int       `json:"year,omitempty"`
	Path        string    `json:"path,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

type listSeriesResponse struct {
	Items  []seriesResponse `json:"items"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type episodeResponse struct {
	SeriesID     string     `json:"series_id"`
	Season       int        `json:"season"`
	Episode      int        `json:"episode"`
	Title        string     `json:"title,omitempty"`
	Aired        *time.Time `json:"aired,omitempty"`
	DateAdded    *time.Time `json:"date_added,omitempty"`
	Source       string     `json:"source,omitempty"`
	Skipped      bool       `json:"skipped"`
	SkipReason   string     `json:"skip_reason,omitempty"`
	HasVideoFile bool       `json:"has_video_file"`
	LastUpdated  time.Time  `json:"last_updated"`
}

type listEpisodesResponse struct {
	Items []episodeResponse `json:"items"`
	Total int               `json:"total"`
}

// setDateRequest overrides an added date by hand.
type setDateRequest struct {
	Date   string `json:"date"`
	Source string `json:"source"`
}

type deleteSeriesResponse struct {
	IMDbID          string `json:"imdb_id"`
	Title           string `json:"title"`
	RemovedEpisodes int    `json:"removed_episodes"`
}

type statsBucket struct {
	Total    int `json:"total"`
	WithDate int `json:"with_date"`
	Missing  int `json:"missing"`
	Skipped  int `json:"skipped"`
}

type statsResponse struct {
	Movies   statsBucket    `json:"movies"`
	Episodes statsBucket    `json:"episodes"`
	Series   int            `json:"series"`
	BySource map[string]int `json:"by_source"`
}

type historyResponse struct {
	ID         int64     `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityKey  string    `json:"entity_key"`
	Action     string    `json:"action"`
	OldValue   string    `json:"old_value,omitempty"`
	NewValue   string    `json:"new_value,omitempty"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurred_at"`
}

type listHistoryResponse struct {
	Items  []historyResponse `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

type createJobRequest struct {
	Name        string              `json:"name"`
	Kind        string              `json:"kind"`
	Description string              `json:"description"`
	Cron        string              `json:"cron"`
	Enabled     bool                `json:"enabled"`
	Config      *schedule.JobConfig `json:"config"`
}

// updateJobRequest carries partial updates; nil fields keep the stored
// value. The kind of a job is fixed at creation.
type updateJobRequest struct {
	Name        *string             `json:"name"`
	Description *string             `json:"description"`
	Cron        *string             `json:"cron"`
	Enabled     *bool               `json:"enabled"`
	Config      *schedule.JobConfig `json:"config"`
}

type jobResponse struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Kind        string             `json:"kind"`
	Description string             `json:"description,omitempty"`
	Cron        string             `json:"cron"`
	Enabled     bool               `json:"enabled"`
	Config      schedule.JobConfig `json:"config"`
	LastRunAt   *time.Time         `json:"last_run_at,omitempty"`
	NextRunAt   *time.Time         `json:"next_run_at,omitempty"`
	RunCount    int64              `json:"run_count"`
}

type listJobsResponse struct {
	Jobs []jobResponse `json:"jobs"`
}

type executionResponse struct {
	ID          int64           `json:"id"`
	JobID       *int64          `json:"job_id,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
	Status      string          `json:"status"`
	Processed   int             `json:"processed"`
	Skipped     int             `json:"skipped"`
	Failed      int             `json:"failed"`
	Error       string          `json:"error,omitempty"`
	Report      json.RawMessage `json:"report,omitempty"`
	TriggeredBy string          `json:"triggered_by"`
}

type listExecutionsResponse struct {
	Items  []executionResponse `json:"items"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

// runResponse acknowledges dispatched background work.
type runResponse struct {
	ExecutionID int64 `json:"execution_id"`
}

type populateRequest struct {
	MediaType string   `json:"media_type"`
	Paths     []string `json:"paths"`
	Full      bool     `json:"full"`
}

type cleanupRequest struct {
	MediaType       string `json:"media_type"`
	DryRun          bool   `json:"dry_run"`
	CheckFilesystem bool   `json:"check_filesystem"`
	CheckDatabase   bool   `json:"check_database"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database"`
}
