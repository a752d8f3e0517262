package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client wraps HTTP calls to the datarr server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new datarr API client.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: serverURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError turns a non-2xx response into an error, preferring the
// server's error envelope over the raw body.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var env struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
		return fmt.Errorf("server error %d: %s", resp.StatusCode, env.Error)
	}
	return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
}

func (c *Client) do(method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal error: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func (c *Client) get(path string, result any) error {
	return c.do(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.do(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.do(http.MethodPut, path, body, result)
}

// API response types (mirror server types)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database"`
}

type MovieResponse struct {
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

type ListMoviesResponse struct {
	Items  []MovieResponse `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type StatsBucket struct {
	Total    int `json:"total"`
	WithDate int `json:"with_date"`
	Missing  int `json:"missing"`
	Skipped  int `json:"skipped"`
}

type StatsResponse struct {
	Movies   StatsBucket    `json:"movies"`
	Episodes StatsBucket    `json:"episodes"`
	Series   int            `json:"series"`
	BySource map[string]int `json:"by_source"`
}

// JobConfig mirrors the scheduler's per-job options.
type JobConfig struct {
	MediaType       string   `json:"media_type,omitempty"`
	Paths           []string `json:"paths,omitempty"`
	Full            bool     `json:"full,omitempty"`
	DryRun          bool     `json:"dry_run,omitempty"`
	CheckFilesystem bool     `json:"check_filesystem,omitempty"`
	CheckDatabase   bool     `json:"check_database,omitempty"`
}

type JobResponse struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Kind        string     `json:"kind"`
	Description string     `json:"description,omitempty"`
	Cron        string     `json:"cron"`
	Enabled     bool       `json:"enabled"`
	Config      JobConfig  `json:"config"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	NextRunAt   *time.Time `json:"next_run_at,omitempty"`
	RunCount    int64      `json:"run_count"`
}

type ListJobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type CreateJobRequest struct {
	Name        string     `json:"name"`
	Kind        string     `json:"kind"`
	Description string     `json:"description,omitempty"`
	Cron        string     `json:"cron"`
	Enabled     bool       `json:"enabled"`
	Config      *JobConfig `json:"config,omitempty"`
}

type ExecutionResponse struct {
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

type ListExecutionsResponse struct {
	Items  []ExecutionResponse `json:"items"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

type RunResponse struct {
	ExecutionID int64 `json:"execution_id"`
}

type PopulateRequest struct {
	MediaType string   `json:"media_type,omitempty"`
	Paths     []string `json:"paths,omitempty"`
	Full      bool     `json:"full,omitempty"`
}

type CleanupRequest struct {
	MediaType       string `json:"media_type,omitempty"`
	DryRun          bool   `json:"dry_run"`
	CheckFilesystem bool   `json:"check_filesystem"`
	CheckDatabase   bool   `json:"check_database"`
}

type CleanupTypeReport struct {
	Checked         int            `json:"checked"`
	Orphaned        int            `json:"orphaned"`
	Removed         int            `json:"removed"`
	RemovedEpisodes int            `json:"removed_episodes,omitempty"`
	RemovedTitles   []string       `json:"removed_titles"`
	MissingReasons  map[string]int `json:"missing_reasons,omitempty"`
}

type CleanupReport struct {
	StartedAt         time.Time          `json:"start_time"`
	EndedAt           time.Time          `json:"end_time"`
	Duration          float64            `json:"duration_seconds"`
	DryRun            bool               `json:"dry_run"`
	ValidationMethods []string           `json:"validation_methods"`
	Movies            *CleanupTypeReport `json:"movies,omitempty"`
	Series            *CleanupTypeReport `json:"series,omitempty"`
	TotalRemoved      int                `json:"total_removed"`
}

type WebhookResult struct {
	Status    string `json:"status"`
	MediaType string `json:"media_type,omitempty"`
	IMDbID    string `json:"imdb_id,omitempty"`
	Message   string `json:"message,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// API methods

func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get("/healthz", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Stats() (*StatsResponse, error) {
	var resp StatsResponse
	if err := c.get("/api/v1/stats", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MovieFilter narrows a movie listing. Nil booleans mean "no filter".
type MovieFilter struct {
	Skipped     *bool
	MissingDate *bool
	Source      string
	Search      string
	Limit       int
	Offset      int
}

func (c *Client) Movies(f MovieFilter) (*ListMoviesResponse, error) {
	params := url.Values{}
	if f.Skipped != nil {
		params.Set("skipped", strconv.FormatBool(*f.Skipped))
	}
	if f.MissingDate != nil {
		params.Set("missing_date", strconv.FormatBool(*f.MissingDate))
	}
	if f.Source != "" {
		params.Set("source", f.Source)
	}
	if f.Search != "" {
		params.Set("q", f.Search)
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		params.Set("offset", strconv.Itoa(f.Offset))
	}

	path := "/api/v1/movies"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp ListMoviesResponse
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SetMovieDate(imdbID, date, source string) (*MovieResponse, error) {
	req := map[string]string{"date": date}
	if source != "" {
		req["source"] = source
	}

	var resp MovieResponse
	if err := c.put("/api/v1/movies/"+url.PathEscape(imdbID)+"/date", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Jobs() (*ListJobsResponse, error) {
	var resp ListJobsResponse
	if err := c.get("/api/v1/jobs", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateJob(req CreateJobRequest) (*JobResponse, error) {
	var resp JobResponse
	if err := c.post("/api/v1/jobs", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SetJobEnabled(id int64, enabled bool) (*JobResponse, error) {
	action := "disable"
	if enabled {
		action = "enable"
	}
	var resp JobResponse
	if err := c.post(fmt.Sprintf("/api/v1/jobs/%d/%s", id, action), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RunJob(id int64) (*RunResponse, error) {
	var resp RunResponse
	if err := c.post(fmt.Sprintf("/api/v1/jobs/%d/run", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExecutionFilter narrows an execution listing.
type ExecutionFilter struct {
	JobID  *int64
	Status string
	Limit  int
}

func (c *Client) Executions(f ExecutionFilter) (*ListExecutionsResponse, error) {
	params := url.Values{}
	if f.JobID != nil {
		params.Set("job_id", strconv.FormatInt(*f.JobID, 10))
	}
	if f.Status != "" {
		params.Set("status", f.Status)
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}

	path := "/api/v1/executions"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp ListExecutionsResponse
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Execution(id int64) (*ExecutionResponse, error) {
	var resp ExecutionResponse
	if err := c.get(fmt.Sprintf("/api/v1/executions/%d", id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Populate(req PopulateRequest) (*RunResponse, error) {
	var resp RunResponse
	if err := c.post("/api/v1/populate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cleanup dispatches a live cleanup and returns the execution to follow.
func (c *Client) Cleanup(req CleanupRequest) (*RunResponse, error) {
	var resp RunResponse
	if err := c.post("/api/v1/cleanup", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CleanupDryRun runs a cleanup that removes nothing and returns its
// report inline.
func (c *Client) CleanupDryRun(req CleanupRequest) (*CleanupReport, error) {
	req.DryRun = true
	var resp CleanupReport
	if err := c.post("/api/v1/cleanup", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WebhookTest sends the managers' diagnostic test payload to one
// webhook endpoint.
func (c *Client) WebhookTest(manager string) (*WebhookResult, error) {
	payload := map[string]string{"eventType": "Test"}
	var resp WebhookResult
	if err := c.post("/webhook/"+manager, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
