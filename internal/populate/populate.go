// Package populate bulk-synchronizes the record store against the
// Radarr and Sonarr libraries.
//
// A run walks the full remote listing and brings every item to a
// terminal outcome: inserted with a resolved date, refreshed, skipped
// with a recorded reason, or left untouched. Date decisions go through
// the resolver, and a stored date is only displaced when the new
// signal's provenance outranks it, so repeated runs against unchanged
// libraries write nothing. Runs are cancellable between items; work
// already committed stands.
package populate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vmunix/datarr/internal/library"
	"github.com/vmunix/datarr/internal/metadata"
	"github.com/vmunix/datarr/internal/radarr"
	"github.com/vmunix/datarr/internal/sonarr"
)

// MovieLibrary lists the Radarr library and answers import-history
// lookups. Satisfied by *radarr.Client.
type MovieLibrary interface {
	Movies(ctx context.Context) ([]radarr.Movie, error)
	ImportDate(ctx context.Context, movieID int64) (*time.Time, error)
}

// SeriesLibrary lists the Sonarr library, its episodes, and import
// history. Satisfied by *sonarr.Client.
type SeriesLibrary interface {
	Series(ctx context.Context) ([]sonarr.Series, error)
	EpisodesBySeries(ctx context.Context, seriesID int64) ([]sonarr.Episode, error)
	ImportDatesBySeries(ctx context.Context, seriesID int64) (map[int64]time.Time, error)
}

// MovieHistory reads import history straight from a Radarr database,
// surviving API history trimming. Satisfied by *arrdb.RadarrDB.
type MovieHistory interface {
	ImportDate(ctx context.Context, movieID int64) (*time.Time, error)
}

// EpisodeHistory reads import history straight from a Sonarr database.
// Satisfied by *arrdb.SonarrDB.
type EpisodeHistory interface {
	ImportDatesBySeries(ctx context.Context, seriesID int64) (map[int64]time.Time, error)
}

// ReleaseDates looks up external release dates for a movie. Satisfied
// by *metadata.Provider.
type ReleaseDates interface {
	MovieReleaseDates(ctx context.Context, imdbID string) (metadata.ReleaseDates, error)
}

const defaultLookupLimit = 4

// Orchestrator runs population passes over the configured manager
// libraries. The history side-channels and the release-date provider
// are optional refinements; a nil port drops its signal tier.
type Orchestrator struct {
	store    *library.Store
	movies   MovieLibrary
	series   SeriesLibrary
	movieDB  MovieHistory
	seriesDB EpisodeHistory
	releases ReleaseDates
	log      *slog.Logger
	limit    int
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMovieLibrary wires the Radarr port.
func WithMovieLibrary(ml MovieLibrary) Option {
	return func(o *Orchestrator) { o.movies = ml }
}

// WithSeriesLibrary wires the Sonarr port.
func WithSeriesLibrary(sl SeriesLibrary) Option {
	return func(o *Orchestrator) { o.series = sl }
}

// WithMovieHistory wires the Radarr database side-channel.
func WithMovieHistory(mh MovieHistory) Option {
	return func(o *Orchestrator) { o.movieDB = mh }
}

// WithEpisodeHistory wires the Sonarr database side-channel.
func WithEpisodeHistory(eh EpisodeHistory) Option {
	return func(o *Orchestrator) { o.seriesDB = eh }
}

// WithReleaseDates wires the external release-date provider.
func WithReleaseDates(rd ReleaseDates) Option {
	return func(o *Orchestrator) { o.releases = rd }
}

// WithLookupLimit bounds how many items run external lookups at once.
func WithLookupLimit(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.limit = n
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an Orchestrator over the record store.
func New(store *library.Store, log *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store: store,
		log:   log.With("component", "populate"),
		limit: defaultLookupLimit,
		now:   time.Now().UTC,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Options selects the scope of one run.
type Options struct {
	// MediaType restricts the run to one media type. Empty runs every
	// type whose manager port is configured.
	MediaType library.MediaType

	// Paths restricts the run to remote items under the given path
	// prefixes. Empty means the whole library.
	Paths []string

	// Full re-resolves records that already carry an import-ranked
	// date. Manual overrides hold regardless.
	Full bool
}

// Run executes one population pass. A canceled or failed run returns
// the partial report alongside the error; per-item progress already
// committed stands.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Report, error) {
	wantMovies, wantTV, err := scope(opts.MediaType)
	if err != nil {
		return nil, err
	}
	if wantMovies && !wantTV && o.movies == nil {
		return nil, errors.New("movie population requires a radarr client")
	}
	if wantTV && !wantMovies && o.series == nil {
		return nil, errors.New("episode population requires a sonarr client")
	}

	start := o.now()
	rep := &Report{StartedAt: start}
	log := o.log.With("run_id", uuid.NewString())
	log.Info("population started", "media_type", string(opts.MediaType), "full", opts.Full)

	if wantMovies && o.movies != nil {
		stats, err := o.populateMovies(ctx, log, opts)
		rep.Movies = stats
		if err != nil {
			rep.Duration = o.now().Sub(start).Seconds()
			return rep, err
		}
	}
	if wantTV && o.series != nil {
		stats, err := o.populateEpisodes(ctx, log, opts)
		rep.TV = stats
		if err != nil {
			rep.Duration = o.now().Sub(start).Seconds()
			return rep, err
		}
	}

	rep.Duration = o.now().Sub(start).Seconds()
	log.Info("population complete", "duration_ms", int64(rep.Duration*1000))
	return rep, nil
}

func scope(mt library.MediaType) (movies, tv bool, err error) {
	switch mt {
	case "":
		return true, true, nil
	case library.MediaTypeMovie:
		return true, false, nil
	case library.MediaTypeSeries, library.MediaTypeEpisode:
		return false, true, nil
	}
	return false, false, fmt.Errorf("unknown media type %q", mt)
}

// underPaths reports whether p falls under one of the prefixes. An
// empty prefix list admits everything.
func underPaths(p string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, prefix := range prefixes {
		if p == prefix {
			return true
		}
		if prefix != "" && len(p) > len(prefix) && p[:len(prefix)] == prefix &&
			(prefix[len(prefix)-1] == '/' || p[len(prefix)] == '/') {
			return true
		}
	}
	return false
}
