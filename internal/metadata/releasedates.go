package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vmunix/datarr/internal/omdb"
	"github.com/vmunix/datarr/internal/tmdb"
)

const releaseTTL = 7 * 24 * time.Hour

// Cache key prefixes
const (
	keyPrefixTMDB = "tmdb:releases:"
	keyPrefixOMDB = "omdb:movie:"
)

// ReleaseDates holds every external release date known for a movie, one
// field per provider channel. Absent dates are nil.
type ReleaseDates struct {
	TMDBDigital    *time.Time
	TMDBPhysical   *time.Time
	TMDBTheatrical *time.Time
	OMDBDVD        *time.Time
	OMDBReleased   *time.Time
}

// omdbDates is the cached shape of an OMDb lookup: the parsed dates, not
// the raw record.
type omdbDates struct {
	DVD      *time.Time `json:"dvd,omitempty"`
	Released *time.Time `json:"released,omitempty"`
}

// Provider combines TMDB and OMDb behind the SQLite cache. Either client
// may be nil when unconfigured; its channels then stay empty.
type Provider struct {
	tmdb  *tmdb.Client
	omdb  *omdb.Client
	cache *Cache
	log   *slog.Logger
}

// NewProvider creates a release-date provider.
func NewProvider(tmdbClient *tmdb.Client, omdbClient *omdb.Client, cache *Cache, log *slog.Logger) *Provider {
	return &Provider{
		tmdb:  tmdbClient,
		omdb:  omdbClient,
		cache: cache,
		log:   log,
	}
}

// MovieReleaseDates fetches release dates for a movie from every configured
// provider. A provider that simply has no record contributes nothing; a
// provider that fails is logged and skipped, and the lookup errors only when
// every configured provider failed.
func (p *Provider) MovieReleaseDates(ctx context.Context, imdbID string) (ReleaseDates, error) {
	var dates ReleaseDates
	var errs []error
	configured := 0

	if p.tmdb != nil {
		configured++
		td, err := fetchThrough(ctx, p.cache, p.log, keyPrefixTMDB+imdbID, releaseTTL,
			func() (*tmdb.ReleaseDates, error) {
				rd, err := p.tmdb.ReleaseDatesByIMDB(ctx, imdbID)
				if errors.Is(err, tmdb.ErrNotFound) {
					// Cache the miss so unknown titles are not re-queried.
					return &tmdb.ReleaseDates{}, nil
				}
				return rd, err
			})
		if err != nil {
			errs = append(errs, fmt.Errorf("tmdb: %w", err))
			if p.log != nil {
				p.log.Warn("TMDB lookup failed", "imdb_id", imdbID, "error", err)
			}
		} else if td != nil {
			dates.TMDBDigital = td.Digital
			dates.TMDBPhysical = td.Physical
			dates.TMDBTheatrical = td.Theatrical
		}
	}

	if p.omdb != nil {
		configured++
		od, err := fetchThrough(ctx, p.cache, p.log, keyPrefixOMDB+imdbID, releaseTTL,
			func() (*omdbDates, error) {
				movie, err := p.omdb.MovieByIMDB(ctx, imdbID)
				if errors.Is(err, omdb.ErrNotFound) {
					return &omdbDates{}, nil
				}
				if err != nil {
					return nil, err
				}
				return &omdbDates{DVD: movie.DVDTime(), Released: movie.ReleasedTime()}, nil
			})
		if err != nil {
			errs = append(errs, fmt.Errorf("omdb: %w", err))
			if p.log != nil {
				p.log.Warn("OMDb lookup failed", "imdb_id", imdbID, "error", err)
			}
		} else if od != nil {
			dates.OMDBDVD = od.DVD
			dates.OMDBReleased = od.Released
		}
	}

	if configured > 0 && len(errs) == configured {
		return ReleaseDates{}, errors.Join(errs...)
	}
	return dates, nil
}
