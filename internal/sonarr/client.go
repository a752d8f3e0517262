package sonarr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// Sentinel errors for Sonarr API responses.
var (
	ErrNotFound     = errors.New("series not found")
	ErrUnauthorized = errors.New("unauthorized: invalid API key")
)

const (
	defaultRetries    = 3
	defaultRetryDelay = 500 * time.Millisecond
	historyPageSize   = 100
)

// Client is a Sonarr v3 API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retries    uint
	retryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.retries = attempts
		c.retryDelay = delay
	}
}

// NewClient creates a Sonarr client for the given instance URL.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Series fetches the full series library.
func (c *Client) Series(ctx context.Context) ([]Series, error) {
	var series []Series
	if err := c.get(ctx, "/api/v3/series", &series); err != nil {
		return nil, err
	}
	return series, nil
}

// SeriesByIMDB looks up a library series by IMDb ID. Lookup results without a
// Sonarr ID are remote matches not in the library and are skipped.
func (c *Client) SeriesByIMDB(ctx context.Context, imdbID string) (*Series, error) {
	path := "/api/v3/series/lookup?term=" + url.QueryEscape("imdbid:"+imdbID)
	var results []Series
	if err := c.get(ctx, path, &results); err != nil {
		return nil, err
	}
	for i := range results {
		if results[i].ID != 0 {
			return &results[i], nil
		}
	}
	return nil, ErrNotFound
}

// EpisodesBySeries fetches all episodes of a series.
func (c *Client) EpisodesBySeries(ctx context.Context, seriesID int64) ([]Episode, error) {
	path := fmt.Sprintf("/api/v3/episode?seriesId=%d", seriesID)
	var episodes []Episode
	if err := c.get(ctx, path, &episodes); err != nil {
		return nil, err
	}
	return episodes, nil
}

// History fetches all history events for a series, walking the paginated
// endpoint until every record has been collected.
func (c *Client) History(ctx context.Context, seriesID int64) ([]HistoryRecord, error) {
	var records []HistoryRecord
	for page := 1; ; page++ {
		path := fmt.Sprintf("/api/v3/history?seriesId=%d&sortKey=date&sortDir=desc&page=%d&pageSize=%d",
			seriesID, page, historyPageSize)
		var resp historyPage
		if err := c.get(ctx, path, &resp); err != nil {
			return nil, err
		}
		records = append(records, resp.Records...)
		if len(resp.Records) == 0 || len(records) >= resp.TotalRecords {
			break
		}
	}
	return records, nil
}

// ImportDatesBySeries returns the earliest import event date per episode ID.
func (c *Client) ImportDatesBySeries(ctx context.Context, seriesID int64) (map[int64]time.Time, error) {
	records, err := c.History(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	return ImportDates(records), nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
			}
			req.Header.Set("X-Api-Key", c.apiKey)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("execute request: %w", err)
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusNotFound:
				return retry.Unrecoverable(ErrNotFound)
			case resp.StatusCode == http.StatusUnauthorized:
				return retry.Unrecoverable(ErrUnauthorized)
			case resp.StatusCode >= http.StatusInternalServerError:
				return fmt.Errorf("sonarr API error: %s", resp.Status)
			case resp.StatusCode != http.StatusOK:
				return retry.Unrecoverable(fmt.Errorf("sonarr API error: %s", resp.Status))
			}

			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.retries),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}
