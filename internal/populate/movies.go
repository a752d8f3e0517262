package populate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/datarr/internal/library"
	"github.com/vmunix/datarr/internal/radarr"
	"github.com/vmunix/datarr/internal/resolver"
	"github.com/vmunix/datarr/pkg/mediaid"
)

// reasonNoIdentifier marks records kept under a synthetic key because
// no identifier could be derived for them.
const reasonNoIdentifier = "No IMDb ID found"

func (o *Orchestrator) populateMovies(ctx context.Context, log *slog.Logger, opts Options) (*MovieStats, error) {
	all, err := o.movies.Movies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list radarr movies: %w", err)
	}
	var movies []radarr.Movie
	for _, m := range all {
		if underPaths(m.Path, opts.Paths) {
			movies = append(movies, m)
		}
	}
	log.Info("movie population started", "total", len(movies))

	placeholders, err := o.placeholderMovies()
	if err != nil {
		return nil, err
	}

	rec := &recorder{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.limit)
	for i := range movies {
		m := movies[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o.processMovie(gctx, log, opts, m, placeholders, rec)
			return nil
		})
	}
	err = g.Wait()

	stats := &MovieStats{Total: len(movies), Counts: rec.counts()}
	log.Info("movie population finished", "added", stats.Added, "updated", stats.Updated,
		"skipped", stats.Skipped, "errors", stats.Errors)
	return stats, err
}

func (o *Orchestrator) processMovie(ctx context.Context, log *slog.Logger, opts Options, m radarr.Movie, placeholders *placeholderSet[*library.Movie], rec *recorder) {
	id, synthetic := deriveMovieID(m)
	log = log.With("imdb_id", id, "title", m.Title)

	existing, err := o.existingMovie(id)
	if err != nil {
		log.Error("load movie failed", "error", err)
		rec.errored()
		return
	}

	if synthetic {
		o.writeUnidentifiedMovie(log, rec, id, m, existing)
		return
	}

	// A record created under a synthetic key is rekeyed once the real
	// identifier shows up; its stored date rides along as the baseline.
	var migrateFrom string
	if existing == nil {
		if ph, ok := placeholders.claim(m.Title, m.Year); ok {
			migrateFrom = ph.IMDbID
			baseline := *ph
			baseline.IMDbID = id
			existing = &baseline
			log.Info("placeholder matched", "placeholder", migrateFrom)
		}
	}

	if migrateFrom == "" && !opts.Full && settledMovie(existing) {
		o.refreshMovieFileInfo(log, rec, existing, m)
		return
	}

	target, failed := o.resolveMovie(ctx, log, m, id, existing)

	if migrateFrom != "" {
		if err := o.migrateMovie(migrateFrom, target); err != nil {
			log.Error("placeholder migration failed", "error", err)
			rec.errored()
			return
		}
		log.Info("movie rekeyed from placeholder", "placeholder", migrateFrom, "source", target.Source)
		rec.added()
	} else {
		created, changed, err := o.store.UpsertMovie(target, library.ActorPopulation)
		if err != nil {
			log.Error("movie write failed", "error", err)
			rec.errored()
			return
		}
		switch {
		case created:
			log.Debug("movie added", "source", target.Source)
			rec.added()
		case changed:
			log.Debug("movie updated", "source", target.Source)
			rec.updated()
		}
	}
	if failed {
		rec.errored()
	}
	if target.Skipped {
		rec.skipped(SkippedItem{Title: target.Title, Year: target.Year, IMDbID: id, Reason: target.SkipReason})
	}
}

// resolveMovie builds the record a movie should converge to. The
// signal chain runs import history and the manager's own release
// dates first; the external providers are only consulted when nothing
// local produced a usable date. The bool reports whether a tier was
// lost to a lookup failure.
func (o *Orchestrator) resolveMovie(ctx context.Context, log *slog.Logger, m radarr.Movie, id string, existing *library.Movie) (*library.Movie, bool) {
	target := buildMovieRecord(m, id, existing)
	failed := false

	var signals []resolver.Signal
	d, source, err := o.movieImportDate(ctx, log, m.ID)
	if err != nil {
		failed = true
		log.Warn("import history lookup failed", "error", err)
	} else if d != nil {
		signals = append(signals, resolver.Signal{Source: source, Value: d})
	}

	// Release dates from the listing stand in for missing import
	// history, tagged as fallbacks so a later real import supersedes
	// them.
	signals = append(signals,
		resolver.Signal{Source: resolver.SourceRadarrDigitalFallback, Value: m.DigitalReleaseTime()},
		resolver.Signal{Source: resolver.SourceRadarrPhysicalFallback, Value: m.PhysicalReleaseTime()},
		resolver.Signal{Source: resolver.SourceRadarrTheatricalFallback, Value: m.InCinemasTime()},
	)

	res, ok := resolver.Resolve(o.now(), signals)
	if !ok && o.releases != nil && mediaid.IsCanonical(id) {
		rd, err := o.releases.MovieReleaseDates(ctx, id)
		if err != nil {
			failed = true
			log.Warn("release date lookup failed", "error", err)
		} else {
			signals = append(signals,
				resolver.Signal{Source: resolver.SourceTMDBDigital, Value: rd.TMDBDigital},
				resolver.Signal{Source: resolver.SourceTMDBPhysical, Value: rd.TMDBPhysical},
				resolver.Signal{Source: resolver.SourceTMDBTheatrical, Value: rd.TMDBTheatrical},
				resolver.Signal{Source: resolver.SourceOMDBDVD, Value: rd.OMDBDVD},
				resolver.Signal{Source: resolver.SourceOMDBRelease, Value: rd.OMDBReleased},
			)
			res, ok = resolver.Resolve(o.now(), signals)
		}
	}

	switch {
	case ok && resolver.ShouldReplace(resolver.KindMovie, target.Source, res.Source):
		target.DateAdded = &res.Date
		target.Source = res.Source
		target.Skipped = false
		target.SkipReason = ""
	case target.DateAdded == nil:
		target.Skipped = true
		target.SkipReason = resolver.ReasonNoValidSource
		target.Source = resolver.SourceNone
	}
	return target, failed
}

// movieImportDate reads the earliest import event for a movie from the
// database side-channel when configured, the API otherwise. A failed
// database read degrades to the API.
func (o *Orchestrator) movieImportDate(ctx context.Context, log *slog.Logger, movieID int64) (*time.Time, string, error) {
	if o.movieDB != nil {
		d, err := o.movieDB.ImportDate(ctx, movieID)
		if err == nil {
			return d, resolver.SourceRadarrDBImport, nil
		}
		log.Warn("radarr database history read failed", "error", err)
	}
	d, err := o.movies.ImportDate(ctx, movieID)
	return d, resolver.SourceRadarrAPIImport, err
}

// refreshMovieFileInfo keeps path and file presence current on a
// record whose date population cannot improve.
func (o *Orchestrator) refreshMovieFileInfo(log *slog.Logger, rec *recorder, existing *library.Movie, m radarr.Movie) {
	upd := *existing
	if m.Path != "" {
		upd.Path = m.Path
	}
	upd.HasVideoFile = m.HasFile
	if upd.Title == "" {
		upd.Title = m.Title
	}
	if upd.Year == 0 {
		upd.Year = m.Year
	}
	if upd.Released == nil {
		upd.Released = releaseDate(m)
	}
	_, changed, err := o.store.UpsertMovie(&upd, library.ActorPopulation)
	if err != nil {
		log.Error("movie write failed", "error", err)
		rec.errored()
		return
	}
	if changed {
		log.Info("movie file info refreshed", "path", upd.Path)
		rec.updated()
	}
}

// writeUnidentifiedMovie records a movie with no derivable identifier
// under its placeholder key, keeping it visible for manual follow-up.
// A date set on the placeholder by hand is preserved.
func (o *Orchestrator) writeUnidentifiedMovie(log *slog.Logger, rec *recorder, id string, m radarr.Movie, existing *library.Movie) {
	target := buildMovieRecord(m, id, existing)
	if target.DateAdded == nil {
		target.Skipped = true
		target.SkipReason = reasonNoIdentifier
	}
	if _, _, err := o.store.UpsertMovie(target, library.ActorPopulation); err != nil {
		log.Error("movie write failed", "error", err)
		rec.errored()
		return
	}
	if target.Skipped {
		log.Debug("movie has no usable identifier", "path", m.Path)
		rec.skipped(SkippedItem{Title: target.Title, Year: target.Year, IMDbID: id, Reason: reasonNoIdentifier})
	}
}

// deriveMovieID picks the record key for a Radarr movie, falling back
// to a title-seeded placeholder when no identifier can be derived.
func deriveMovieID(m radarr.Movie) (id string, synthetic bool) {
	if id, ok := mediaid.Derive(m.IMDBID, m.Path, m.TMDBID); ok {
		return id, false
	}
	return mediaid.Placeholder(m.Title, m.Year), true
}

// buildMovieRecord maps a listing entry onto a store record, carrying
// forward the date, provenance and skip state of the baseline record
// when one exists.
func buildMovieRecord(m radarr.Movie, id string, existing *library.Movie) *library.Movie {
	target := &library.Movie{
		IMDbID:       id,
		Title:        m.Title,
		Year:         m.Year,
		Path:         m.Path,
		Released:     releaseDate(m),
		HasVideoFile: m.HasFile,
	}
	if existing != nil {
		if target.Title == "" {
			target.Title = existing.Title
		}
		if target.Year == 0 {
			target.Year = existing.Year
		}
		if target.Path == "" {
			target.Path = existing.Path
		}
		if target.Released == nil {
			target.Released = existing.Released
		}
		target.DateAdded = existing.DateAdded
		target.Source = existing.Source
		target.Skipped = existing.Skipped
		target.SkipReason = existing.SkipReason
	}
	return target
}

// releaseDate picks the release date stored alongside the added date:
// the first channel Radarr knows, digital before physical before
// theatrical.
func releaseDate(m radarr.Movie) *time.Time {
	if d := m.DigitalReleaseTime(); d != nil {
		return d
	}
	if d := m.PhysicalReleaseTime(); d != nil {
		return d
	}
	return m.InCinemasTime()
}

// settledMovie reports whether the stored date already outranks
// anything population could produce. Import-ranked provenance is the
// best population finds, so such records only get file-info refreshes.
func settledMovie(m *library.Movie) bool {
	if m == nil || m.DateAdded == nil || m.Skipped {
		return false
	}
	return resolver.Rank(resolver.KindMovie, m.Source) <= resolver.Rank(resolver.KindMovie, resolver.SourceRadarrAPIImport)
}

func (o *Orchestrator) existingMovie(id string) (*library.Movie, error) {
	m, err := o.store.GetMovie(id)
	if errors.Is(err, library.ErrNotFound) {
		return nil, nil
	}
	return m, err
}
