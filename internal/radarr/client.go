package radarr

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

// Sentinel errors for Radarr API responses.
var (
	ErrNotFound     = errors.New("movie not found")
	ErrUnauthorized = errors.New("unauthorized: invalid API key")
)

const (
	defaultRetries    = 3
	defaultRetryDelay = 500 * time.Millisecond
)

// Client is a Radarr v3 API client.
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

// NewClient creates a Radarr client for the given instance URL.
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

// Movies fetches the full movie library.
func (c *Client) Movies(ctx context.Context) ([]Movie, error) {
	var movies []Movie
	if err := c.get(ctx, "/api/v3/movie", &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// MovieByIMDB looks up a library movie by IMDb ID. Lookup results without a
// Radarr ID are remote matches not in the library and are skipped.
func (c *Client) MovieByIMDB(ctx context.Context, imdbID string) (*Movie, error) {
	path := "/api/v3/movie/lookup?term=" + url.QueryEscape("imdb:"+imdbID)
	var results []Movie
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

// History fetches all history events for a movie.
func (c *Client) History(ctx context.Context, movieID int64) ([]HistoryRecord, error) {
	path := fmt.Sprintf("/api/v3/history/movie?movieId=%d", movieID)
	var records []HistoryRecord
	if err := c.get(ctx, path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ImportDate returns the earliest import event date for a movie, nil when the
// history holds none.
func (c *Client) ImportDate(ctx context.Context, movieID int64) (*time.Time, error) {
	records, err := c.History(ctx, movieID)
	if err != nil {
		return nil, err
	}
	return EarliestImport(records), nil
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
				return fmt.Errorf("radarr API error: %s", resp.Status)
			case resp.StatusCode != http.StatusOK:
				return retry.Unrecoverable(fmt.Errorf("radarr API error: %s", resp.Status))
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
