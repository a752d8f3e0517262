package populate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/datarr/internal/library"
	"github.com/vmunix/datarr/internal/resolver"
	"github.com/vmunix/datarr/internal/sonarr"
	"github.com/vmunix/datarr/pkg/mediaid"
)

type episodeKey struct {
	season, episode int
}

func (o *Orchestrator) populateEpisodes(ctx context.Context, log *slog.Logger, opts Options) (*TVStats, error) {
	all, err := o.series.Series(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sonarr series: %w", err)
	}
	var series []sonarr.Series
	for _, s := range all {
		if underPaths(s.Path, opts.Paths) {
			series = append(series, s)
		}
	}
	log.Info("episode population started", "series", len(series))

	placeholders, err := o.placeholderSeries()
	if err != nil {
		return nil, err
	}

	rec := &recorder{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.limit)
	for i := range series {
		s := series[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return o.processSeries(gctx, log, opts, s, placeholders, rec)
		})
	}
	err = g.Wait()

	stats := &TVStats{Series: len(series), Episodes: rec.episodeTotal(), Counts: rec.counts()}
	log.Info("episode population finished", "episodes", stats.Episodes, "added", stats.Added,
		"updated", stats.Updated, "skipped", stats.Skipped, "errors", stats.Errors)
	return stats, err
}

// processSeries upserts one series row and walks its episodes. Only
// cancellation is returned as an error; item failures are counted and
// the walk continues.
func (o *Orchestrator) processSeries(ctx context.Context, log *slog.Logger, opts Options, s sonarr.Series, placeholders *placeholderSet[*library.Series], rec *recorder) error {
	id, synthetic := deriveSeriesID(s)
	log = log.With("series_id", id, "title", s.Title)

	existingSeries, err := o.existingSeries(id)
	if err != nil {
		log.Error("load series failed", "error", err)
		rec.errored()
		return nil
	}

	// A series tracked under a synthetic key is rekeyed once its real
	// identifier shows up; its episodes' dates ride along as baselines
	// for the re-add below.
	baselines := map[episodeKey]*library.Episode{}
	migrated := false
	if !synthetic && existingSeries == nil {
		if ph, ok := placeholders.claim(s.Title, s.Year); ok {
			eps, _, err := o.store.ListEpisodes(library.EpisodeFilter{SeriesID: &ph.IMDbID})
			if err != nil {
				log.Error("load placeholder episodes failed", "error", err)
				rec.errored()
				return nil
			}
			for _, e := range eps {
				b := *e
				b.SeriesID = id
				baselines[episodeKey{e.Season, e.Episode}] = &b
			}
			sr := &library.Series{IMDbID: id, Title: s.Title, Year: s.Year, Path: s.Path}
			if err := o.migrateSeries(ph.IMDbID, sr); err != nil {
				log.Error("placeholder migration failed", "error", err)
				rec.errored()
				return nil
			}
			log.Info("series rekeyed from placeholder", "placeholder", ph.IMDbID)
			migrated = true
		}
	}
	if !migrated {
		sr := &library.Series{IMDbID: id, Title: s.Title, Year: s.Year, Path: s.Path}
		if existingSeries != nil {
			if sr.Title == "" {
				sr.Title = existingSeries.Title
			}
			if sr.Year == 0 {
				sr.Year = existingSeries.Year
			}
			if sr.Path == "" {
				sr.Path = existingSeries.Path
			}
		}
		if _, _, err := o.store.UpsertSeries(sr, library.ActorPopulation); err != nil {
			log.Error("series write failed", "error", err)
			rec.errored()
			return nil
		}
	}

	importDates, importSource, lookupErr := o.seriesImportDates(ctx, log, s.ID)
	if lookupErr != nil {
		log.Warn("import history lookup failed", "error", lookupErr)
		rec.errored()
	}

	eps, err := o.series.EpisodesBySeries(ctx, s.ID)
	if err != nil {
		log.Warn("episode listing failed", "error", err)
		rec.errored()
		return nil
	}

	examined := 0
	for i := range eps {
		if err := ctx.Err(); err != nil {
			rec.sawEpisodes(examined)
			return err
		}
		ep := eps[i]
		if ep.SeasonNumber < 0 || ep.EpisodeNumber <= 0 {
			continue
		}
		examined++
		o.processEpisode(log, opts, id, s.Title, ep, importDates, importSource, baselines, rec)
	}
	rec.sawEpisodes(examined)
	return nil
}

func (o *Orchestrator) processEpisode(log *slog.Logger, opts Options, seriesID, seriesTitle string, ep sonarr.Episode, importDates map[int64]time.Time, importSource string, baselines map[episodeKey]*library.Episode, rec *recorder) {
	log = log.With("season", ep.SeasonNumber, "episode", ep.EpisodeNumber)

	existing, err := o.existingEpisode(seriesID, ep.SeasonNumber, ep.EpisodeNumber)
	if err != nil {
		log.Error("load episode failed", "error", err)
		rec.errored()
		return
	}
	if existing == nil {
		existing = baselines[episodeKey{ep.SeasonNumber, ep.EpisodeNumber}]
	}

	// Import-dated records only get a file-info refresh. The same goes
	// for any known record whose file is gone: the added date stays
	// what it was.
	if (!opts.Full && settledEpisode(existing)) || (existing != nil && !ep.HasFile) {
		o.refreshEpisodeFileInfo(log, rec, existing, ep)
		return
	}

	// Only filed episodes get dated; the added date is the file's
	// arrival.
	if !ep.HasFile {
		return
	}

	target := buildEpisodeRecord(seriesID, ep, existing)
	var signals []resolver.Signal
	if d, ok := importDates[ep.ID]; ok {
		v := d
		signals = append(signals, resolver.Signal{Source: importSource, Value: &v})
	}
	signals = append(signals, resolver.Signal{Source: resolver.SourceSonarrAired, Value: ep.AirTime()})

	res, ok := resolver.Resolve(o.now(), signals)
	switch {
	case ok && resolver.ShouldReplace(resolver.KindEpisode, target.Source, res.Source):
		target.DateAdded = &res.Date
		target.Source = res.Source
		target.Skipped = false
		target.SkipReason = ""
	case target.DateAdded == nil:
		target.Skipped = true
		target.SkipReason = resolver.ReasonNoValidSource
		target.Source = resolver.SourceNone
	}

	created, changed, err := o.store.UpsertEpisode(target, library.ActorPopulation)
	if err != nil {
		log.Error("episode write failed", "error", err)
		rec.errored()
		return
	}
	switch {
	case created:
		rec.added()
	case changed:
		rec.updated()
	}
	if target.Skipped {
		rec.skipped(SkippedItem{
			Title:  fmt.Sprintf("%s S%02dE%02d", seriesTitle, ep.SeasonNumber, ep.EpisodeNumber),
			IMDbID: seriesID,
			Reason: target.SkipReason,
		})
	}
}

// seriesImportDates reads earliest import dates per episode for one
// series, preferring the database side-channel. A failed database
// read degrades to the API.
func (o *Orchestrator) seriesImportDates(ctx context.Context, log *slog.Logger, seriesID int64) (map[int64]time.Time, string, error) {
	if o.seriesDB != nil {
		dates, err := o.seriesDB.ImportDatesBySeries(ctx, seriesID)
		if err == nil {
			return dates, resolver.SourceSonarrDBImport, nil
		}
		log.Warn("sonarr database history read failed", "error", err)
	}
	dates, err := o.series.ImportDatesBySeries(ctx, seriesID)
	return dates, resolver.SourceSonarrAPIImport, err
}

func (o *Orchestrator) refreshEpisodeFileInfo(log *slog.Logger, rec *recorder, existing *library.Episode, ep sonarr.Episode) {
	upd := *existing
	upd.HasVideoFile = ep.HasFile
	if upd.Title == "" {
		upd.Title = ep.Title
	}
	if upd.Aired == nil {
		upd.Aired = ep.AirTime()
	}
	_, changed, err := o.store.UpsertEpisode(&upd, library.ActorPopulation)
	if err != nil {
		log.Error("episode write failed", "error", err)
		rec.errored()
		return
	}
	if changed {
		rec.updated()
	}
}

// deriveSeriesID picks the record key for a Sonarr series, falling
// back to a title-seeded placeholder. TVDB ids never become keys.
func deriveSeriesID(s sonarr.Series) (id string, synthetic bool) {
	if id, ok := mediaid.Derive(s.IMDBID, s.Path, 0); ok {
		return id, false
	}
	return mediaid.Placeholder(s.Title, s.Year), true
}

// buildEpisodeRecord maps a listing entry onto a store record,
// carrying forward the date, provenance and skip state of the
// baseline record when one exists.
func buildEpisodeRecord(seriesID string, ep sonarr.Episode, existing *library.Episode) *library.Episode {
	target := &library.Episode{
		SeriesID:     seriesID,
		Season:       ep.SeasonNumber,
		Episode:      ep.EpisodeNumber,
		Title:        ep.Title,
		Aired:        ep.AirTime(),
		HasVideoFile: ep.HasFile,
	}
	if existing != nil {
		if target.Title == "" {
			target.Title = existing.Title
		}
		if target.Aired == nil {
			target.Aired = existing.Aired
		}
		target.DateAdded = existing.DateAdded
		target.Source = existing.Source
		target.Skipped = existing.Skipped
		target.SkipReason = existing.SkipReason
	}
	return target
}

// settledEpisode reports whether the stored date already outranks
// anything population could produce.
func settledEpisode(e *library.Episode) bool {
	if e == nil || e.DateAdded == nil || e.Skipped {
		return false
	}
	return resolver.Rank(resolver.KindEpisode, e.Source) <= resolver.Rank(resolver.KindEpisode, resolver.SourceSonarrAPIImport)
}

func (o *Orchestrator) existingSeries(id string) (*library.Series, error) {
	sr, err := o.store.GetSeries(id)
	if errors.Is(err, library.ErrNotFound) {
		return nil, nil
	}
	return sr, err
}

func (o *Orchestrator) existingEpisode(seriesID string, season, episode int) (*library.Episode, error) {
	e, err := o.store.GetEpisode(seriesID, season, episode)
	if errors.Is(err, library.ErrNotFound) {
		return nil, nil
	}
	return e, err
}
