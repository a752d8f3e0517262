package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultBaseURL    = "https://api.themoviedb.org"
	defaultCacheTTL   = 24 * time.Hour
	defaultRegion     = "US"
	defaultRetries    = 3
	defaultRetryDelay = 500 * time.Millisecond
)

// ErrNotFound is returned when TMDB has no movie for the IMDb ID.
var ErrNotFound = errors.New("movie not found")

// Client is a TMDB API client.
type Client struct {
	apiKey     string
	baseURL    string
	region     string
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

// WithRegion sets the preferred release region (ISO 3166-1, default US).
func WithRegion(region string) Option {
	return func(c *Client) {
		if region != "" {
			c.region = region
		}
	}
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.retries = attempts
		c.retryDelay = delay
	}
}

// NewClient creates a new TMDB client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		region:  defaultRegion,
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

// ReleaseDatesByIMDB resolves an IMDb ID to release dates, preferring entries
// from the configured region and falling back to the earliest worldwide date
// per channel.
func (c *Client) ReleaseDatesByIMDB(ctx context.Context, imdbID string) (*ReleaseDates, error) {
	if dates, ok := c.cache.get(imdbID); ok {
		return dates, nil
	}

	tmdbID, err := c.findMovie(ctx, imdbID)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/3/movie/%d/release_dates?api_key=%s", tmdbID, c.apiKey)
	var resp releaseDatesResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}

	dates := pickDates(resp.Results, c.region)
	c.cache.set(imdbID, dates)
	return dates, nil
}

// findMovie maps an IMDb ID to a TMDB movie ID.
func (c *Client) findMovie(ctx context.Context, imdbID string) (int64, error) {
	path := fmt.Sprintf("/3/find/%s?external_source=imdb_id&api_key=%s", imdbID, c.apiKey)
	var resp findResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return 0, err
	}
	if len(resp.MovieResults) == 0 {
		return 0, ErrNotFound
	}
	return resp.MovieResults[0].ID, nil
}

// pickDates flattens per-region release entries into one date per channel.
// A region match always beats a worldwide one; within the same scope the
// earliest date wins.
func pickDates(regions []regionReleases, preferred string) *ReleaseDates {
	type pick struct {
		ts       *time.Time
		regional bool
	}
	best := map[int]*pick{}

	consider := func(typ int, ts *time.Time, regional bool) {
		if ts == nil {
			return
		}
		cur := best[typ]
		switch {
		case cur == nil:
			best[typ] = &pick{ts: ts, regional: regional}
		case regional && !cur.regional:
			best[typ] = &pick{ts: ts, regional: regional}
		case regional == cur.regional && ts.Before(*cur.ts):
			cur.ts = ts
		}
	}

	for _, region := range regions {
		regional := region.Region == preferred
		for i := range region.Releases {
			entry := &region.Releases[i]
			typ := entry.Type
			if typ == typeTheatricalLimited {
				typ = typeTheatrical
			}
			consider(typ, entry.time(), regional)
		}
	}

	dates := &ReleaseDates{}
	if p := best[typeDigital]; p != nil {
		dates.Digital = p.ts
	}
	if p := best[typePhysical]; p != nil {
		dates.Physical = p.ts
	}
	if p := best[typeTheatrical]; p != nil {
		dates.Theatrical = p.ts
	}
	return dates
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
			case resp.StatusCode == http.StatusNotFound:
				return retry.Unrecoverable(ErrNotFound)
			case resp.StatusCode >= http.StatusInternalServerError:
				return fmt.Errorf("TMDB API error: %s", resp.Status)
			case resp.StatusCode != http.StatusOK:
				return retry.Unrecoverable(fmt.Errorf("TMDB API error: %s", resp.Status))
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
