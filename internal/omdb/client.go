// Package omdb provides a client for the OMDb API. OMDb is the secondary
// release-date source: its Released and DVD fields cover titles TMDB lacks.
package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultBaseURL    = "https://www.omdbapi.com"
	defaultCacheTTL   = 24 * time.Hour
	defaultRetries    = 3
	defaultRetryDelay = 500 * time.Millisecond
)

// ErrNotFound is returned when OMDb has no record for the IMDb ID.
var ErrNotFound = errors.New("movie not found")

// Movie is the subset of an OMDb record this service uses. OMDb encodes
// absent fields as the string "N/A".
type Movie struct {
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Released string `json:"Released"` // "31 Mar 1999"
	DVD      string `json:"DVD"`

	Response string `json:"Response"` // "True" or "False"
	Error    string `json:"Error,omitempty"`
}

// ReleasedTime parses Released, nil when absent.
func (m *Movie) ReleasedTime() *time.Time { return parseDate(m.Released) }

// DVDTime parses DVD, nil when absent.
func (m *Movie) DVDTime() *time.Time { return parseDate(m.DVD) }

func parseDate(s string) *time.Time {
	if s == "" || s == "N/A" {
		return nil
	}
	t, err := time.Parse("02 Jan 2006", s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// Client is an OMDb API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *cache
	retries    uint
	retryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithCacheTTL sets the cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = newCache(ttl)
	}
}

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

// NewClient creates a new OMDb client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache:      newCache(defaultCacheTTL),
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MovieByIMDB fetches a movie record by IMDb ID.
func (c *Client) MovieByIMDB(ctx context.Context, imdbID string) (*Movie, error) {
	if movie, ok := c.cache.get(imdbID); ok {
		return movie, nil
	}

	path := "/?i=" + url.QueryEscape(imdbID) + "&apikey=" + url.QueryEscape(c.apiKey)
	var movie Movie
	if err := c.get(ctx, path, &movie); err != nil {
		return nil, err
	}

	// OMDb reports lookup failures inside a 200 response.
	if movie.Response != "True" {
		return nil, ErrNotFound
	}

	c.cache.set(imdbID, &movie)
	return &movie, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("execute request: %w", err)
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode >= http.StatusInternalServerError:
				return fmt.Errorf("OMDb API error: %s", resp.Status)
			case resp.StatusCode == http.StatusUnauthorized:
				return retry.Unrecoverable(errors.New("OMDb API error: invalid API key"))
			case resp.StatusCode != http.StatusOK:
				return retry.Unrecoverable(fmt.Errorf("OMDb API error: %s", resp.Status))
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
