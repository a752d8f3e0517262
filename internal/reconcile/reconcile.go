// Package reconcile removes record-store entries whose media no longer
// exists: not on disk and not in the manager that once reported it.
// Checks are opt-in, and a record is orphaned only when every enabled
// check fails to confirm it, so a half-configured run deletes nothing
// it cannot prove gone. Dry runs produce the same report as a live run
// without mutating.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/vmunix/datarr/internal/library"
	"github.com/vmunix/datarr/internal/metadata"
	"github.com/vmunix/datarr/internal/radarr"
	"github.com/vmunix/datarr/internal/sonarr"
	"github.com/vmunix/datarr/pkg/mediaid"
)

// MovieLibrary lists the Radarr library. Satisfied by *radarr.Client.
type MovieLibrary interface {
	Movies(ctx context.Context) ([]radarr.Movie, error)
}

// SeriesLibrary lists the Sonarr library. Satisfied by *sonarr.Client.
type SeriesLibrary interface {
	Series(ctx context.Context) ([]sonarr.Series, error)
}

// Engine cross-checks the record store against the filesystem and the
// managers' library listings.
type Engine struct {
	store  *library.Store
	movies MovieLibrary
	series SeriesLibrary
	fs     afero.Fs
	cache  *metadata.Cache
	log    *slog.Logger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithMovieLibrary wires the Radarr listing used for the membership
// check.
func WithMovieLibrary(ml MovieLibrary) Option {
	return func(e *Engine) { e.movies = ml }
}

// WithSeriesLibrary wires the Sonarr listing used for the membership
// check.
func WithSeriesLibrary(sl SeriesLibrary) Option {
	return func(e *Engine) { e.series = sl }
}

// WithFs overrides the filesystem consulted by the existence check.
func WithFs(fs afero.Fs) Option {
	return func(e *Engine) { e.fs = fs }
}

// WithCache wires the metadata cache so live runs also drop its
// expired rows.
func WithCache(c *metadata.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine over the record store.
func New(store *library.Store, log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		fs:    afero.NewOsFs(),
		log:   log.With("component", "reconcile"),
		now:   time.Now().UTC,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Options selects the scope and mode of one run.
type Options struct {
	// MediaType restricts the run to one media type. Empty covers both.
	MediaType library.MediaType

	// DryRun computes the full report without deleting anything.
	DryRun bool

	// CheckFilesystem confirms records by path existence.
	CheckFilesystem bool

	// CheckDatabase confirms records by membership in the manager's
	// library listing.
	CheckDatabase bool
}

// Run executes one reconciliation pass. A canceled or failed run
// returns the partial report alongside the error; deletions already
// committed stand.
func (e *Engine) Run(ctx context.Context, opts Options) (*Report, error) {
	if !opts.CheckFilesystem && !opts.CheckDatabase {
		return nil, errors.New("no validation method enabled")
	}
	wantMovies, wantSeries, err := scope(opts.MediaType)
	if err != nil {
		return nil, err
	}

	start := e.now()
	rep := &Report{StartedAt: start, DryRun: opts.DryRun}
	if opts.CheckFilesystem {
		rep.ValidationMethods = append(rep.ValidationMethods, "filesystem")
	}
	if opts.CheckDatabase {
		rep.ValidationMethods = append(rep.ValidationMethods, "database")
	}

	log := e.log.With("run_id", uuid.NewString())
	log.Info("cleanup started", "dry_run", opts.DryRun, "methods", strings.Join(rep.ValidationMethods, ","))

	if wantMovies {
		tr, err := e.reconcileMovies(ctx, log, opts)
		rep.Movies = tr
		if err != nil {
			e.seal(rep, start)
			return rep, err
		}
	}
	if wantSeries {
		tr, err := e.reconcileSeries(ctx, log, opts)
		rep.Series = tr
		if err != nil {
			e.seal(rep, start)
			return rep, err
		}
	}

	if !opts.DryRun && e.cache != nil {
		if n, err := e.cache.Prune(ctx); err != nil {
			log.Warn("metadata cache prune failed", "error", err)
		} else if n > 0 {
			log.Info("metadata cache pruned", "expired", n)
		}
	}

	e.seal(rep, start)
	log.Info("cleanup complete", "total_removed", rep.TotalRemoved,
		"duration_ms", int64(rep.Duration*1000))
	return rep, nil
}

func (e *Engine) seal(rep *Report, start time.Time) {
	end := e.now()
	rep.EndedAt = end
	rep.Duration = end.Sub(start).Seconds()
	rep.TotalRemoved = 0
	if rep.Movies != nil {
		rep.TotalRemoved += rep.Movies.Removed
	}
	if rep.Series != nil {
		rep.TotalRemoved += rep.Series.Removed
	}
}

func scope(mt library.MediaType) (movies, series bool, err error) {
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

type orphan struct {
	id       string
	title    string
	episodes int
	reasons  []string
}

func (e *Engine) reconcileMovies(ctx context.Context, log *slog.Logger, opts Options) (*TypeReport, error) {
	known, listingOK, err := e.movieKeys(ctx, log, opts)
	if err != nil {
		return nil, err
	}

	records, _, err := e.store.ListMovies(library.MovieFilter{})
	if err != nil {
		return nil, err
	}
	log.Info("checking movies", "total", len(records))

	tr := newTypeReport(len(records))
	dbOnly := opts.CheckDatabase && !opts.CheckFilesystem
	var orphans []orphan
	for _, m := range records {
		if err := ctx.Err(); err != nil {
			return tr, err
		}
		// A synthetic key can never match a listing; without the
		// filesystem to arbitrate, such records are left alone.
		if dbOnly && mediaid.IsPlaceholder(m.IMDbID) {
			continue
		}
		reasons, fsMiss, dbMiss := e.evaluate(m.IMDbID, m.Path, "File not found: ", "Not found in Radarr library", known, listingOK, opts)
		if !isOrphan(opts, fsMiss, dbMiss) {
			continue
		}
		tr.Orphaned++
		countReasons(tr, fsMiss, dbMiss)
		orphans = append(orphans, orphan{
			id:      m.IMDbID,
			title:   fmt.Sprintf("%s (%s)", m.Title, m.IMDbID),
			reasons: reasons,
		})
	}
	log.Info("orphaned movies found", "count", tr.Orphaned)

	for _, o := range orphans {
		if err := ctx.Err(); err != nil {
			return tr, err
		}
		if opts.DryRun {
			log.Info("would remove orphaned movie", "imdb_id", o.id, "reasons", strings.Join(o.reasons, ", "))
			tr.Removed++
			tr.RemovedTitles = append(tr.RemovedTitles, o.title)
			continue
		}
		if _, err := e.store.DeleteMovie(o.id, library.ActorReconciliation); err != nil {
			log.Error("remove orphaned movie failed", "imdb_id", o.id, "error", err)
			continue
		}
		log.Info("removed orphaned movie", "imdb_id", o.id, "reasons", strings.Join(o.reasons, ", "))
		tr.Removed++
		tr.RemovedTitles = append(tr.RemovedTitles, o.title)
	}
	return tr, nil
}

func (e *Engine) reconcileSeries(ctx context.Context, log *slog.Logger, opts Options) (*TypeReport, error) {
	known, listingOK, err := e.seriesKeys(ctx, log, opts)
	if err != nil {
		return nil, err
	}

	records, _, err := e.store.ListSeries(library.SeriesFilter{})
	if err != nil {
		return nil, err
	}
	log.Info("checking series", "total", len(records))

	tr := newTypeReport(len(records))
	dbOnly := opts.CheckDatabase && !opts.CheckFilesystem
	var orphans []orphan
	for _, sr := range records {
		if err := ctx.Err(); err != nil {
			return tr, err
		}
		if dbOnly && mediaid.IsPlaceholder(sr.IMDbID) {
			continue
		}
		reasons, fsMiss, dbMiss := e.evaluate(sr.IMDbID, sr.Path, "Series path not found: ", "Not found in Sonarr library", known, listingOK, opts)
		if !isOrphan(opts, fsMiss, dbMiss) {
			continue
		}
		_, episodes, err := e.store.ListEpisodes(library.EpisodeFilter{SeriesID: &sr.IMDbID, Limit: 1})
		if err != nil {
			return tr, err
		}
		tr.Orphaned++
		countReasons(tr, fsMiss, dbMiss)
		orphans = append(orphans, orphan{
			id:       sr.IMDbID,
			title:    fmt.Sprintf("%s (%s) - %d episodes", sr.Title, sr.IMDbID, episodes),
			episodes: episodes,
			reasons:  reasons,
		})
	}
	log.Info("orphaned series found", "count", tr.Orphaned)

	for _, o := range orphans {
		if err := ctx.Err(); err != nil {
			return tr, err
		}
		if opts.DryRun {
			log.Info("would remove orphaned series", "series_id", o.id, "episodes", o.episodes,
				"reasons", strings.Join(o.reasons, ", "))
			tr.Removed++
			tr.RemovedEpisodes += o.episodes
			tr.RemovedTitles = append(tr.RemovedTitles, o.title)
			continue
		}
		if _, _, err := e.store.DeleteSeries(o.id, library.ActorReconciliation); err != nil {
			log.Error("remove orphaned series failed", "series_id", o.id, "error", err)
			continue
		}
		log.Info("removed orphaned series", "series_id", o.id, "episodes", o.episodes,
			"reasons", strings.Join(o.reasons, ", "))
		tr.Removed++
		tr.RemovedEpisodes += o.episodes
		tr.RemovedTitles = append(tr.RemovedTitles, o.title)
	}
	return tr, nil
}

// evaluate runs the enabled checks for one record. A record without a
// stored path cannot fail the filesystem check, and an unavailable
// listing cannot fail the membership check; unconfirmable is not
// missing.
func (e *Engine) evaluate(id, path, pathReason, listingReason string, known map[string]struct{}, listingOK bool, opts Options) (reasons []string, fsMiss, dbMiss bool) {
	if opts.CheckFilesystem && path != "" {
		if ok, err := afero.Exists(e.fs, path); err == nil && !ok {
			fsMiss = true
			reasons = append(reasons, pathReason+path)
		}
	}
	if opts.CheckDatabase && listingOK {
		if _, found := known[id]; !found {
			dbMiss = true
			reasons = append(reasons, listingReason)
		}
	}
	return reasons, fsMiss, dbMiss
}

// isOrphan applies the enabled checks: every enabled check must have
// failed.
func isOrphan(opts Options, fsMiss, dbMiss bool) bool {
	switch {
	case opts.CheckFilesystem && opts.CheckDatabase:
		return fsMiss && dbMiss
	case opts.CheckFilesystem:
		return fsMiss
	default:
		return dbMiss
	}
}

func countReasons(tr *TypeReport, fsMiss, dbMiss bool) {
	if fsMiss {
		tr.MissingReasons["filesystem"]++
	}
	if dbMiss {
		tr.MissingReasons["database"]++
	}
}

// movieKeys snapshots the Radarr library as a set of record keys. The
// bool reports whether the snapshot is usable; an unavailable listing
// disables the membership check instead of orphaning everything, and
// is an error only when no other check remains.
func (e *Engine) movieKeys(ctx context.Context, log *slog.Logger, opts Options) (map[string]struct{}, bool, error) {
	if !opts.CheckDatabase {
		return nil, false, nil
	}
	if e.movies == nil {
		if !opts.CheckFilesystem {
			return nil, false, errors.New("movie library check requires a radarr client")
		}
		log.Warn("radarr not configured, skipping movie membership check")
		return nil, false, nil
	}
	listing, err := e.movies.Movies(ctx)
	if err != nil {
		if !opts.CheckFilesystem {
			return nil, false, fmt.Errorf("list radarr movies: %w", err)
		}
		log.Warn("radarr listing unavailable, skipping movie membership check", "error", err)
		return nil, false, nil
	}
	keys := make(map[string]struct{}, len(listing))
	for i := range listing {
		if id, ok := mediaid.Derive(listing[i].IMDBID, listing[i].Path, listing[i].TMDBID); ok {
			keys[id] = struct{}{}
		}
	}
	return keys, true, nil
}

// seriesKeys snapshots the Sonarr library as a set of record keys.
func (e *Engine) seriesKeys(ctx context.Context, log *slog.Logger, opts Options) (map[string]struct{}, bool, error) {
	if !opts.CheckDatabase {
		return nil, false, nil
	}
	if e.series == nil {
		if !opts.CheckFilesystem {
			return nil, false, errors.New("series library check requires a sonarr client")
		}
		log.Warn("sonarr not configured, skipping series membership check")
		return nil, false, nil
	}
	listing, err := e.series.Series(ctx)
	if err != nil {
		if !opts.CheckFilesystem {
			return nil, false, fmt.Errorf("list sonarr series: %w", err)
		}
		log.Warn("sonarr listing unavailable, skipping series membership check", "error", err)
		return nil, false, nil
	}
	keys := make(map[string]struct{}, len(listing))
	for i := range listing {
		if id, ok := mediaid.Derive(listing[i].IMDBID, listing[i].Path, 0); ok {
			keys[id] = struct{}{}
		}
	}
	return keys, true, nil
}

