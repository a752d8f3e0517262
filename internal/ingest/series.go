package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vmunix/datarr/internal/library"
	"github.com/vmunix/datarr/internal/resolver"
	"github.com/vmunix/datarr/internal/sonarr"
)

// SeriesLibrary is the slice of the TV manager API used to recover
// episode context missing from rename notifications.
type SeriesLibrary interface {
	SeriesByIMDB(ctx context.Context, imdbID string) (*sonarr.Series, error)
	EpisodesBySeries(ctx context.Context, seriesID int64) ([]sonarr.Episode, error)
	History(ctx context.Context, seriesID int64) ([]sonarr.HistoryRecord, error)
}

// renameWindow bounds how far back rename history is searched when a
// rename notification arrives without episode data.
const renameWindow = time.Hour

// SonarrImport handles a TV manager notification. Download, Upgrade,
// and Rename events refresh the series record and resolve dates for
// the episodes the payload names; diagnostic tests are acknowledged
// and everything else is ignored without mutation.
func (i *Ingestor) SonarrImport(ctx context.Context, payload []byte) (*Result, error) {
	log := i.logger("sonarr")

	m, err := decodePayload(payload)
	if err != nil {
		log.Warn("undecodable payload", "error", err)
		return errored("invalid JSON payload"), nil
	}
	ev := parseSeriesEvent(m)
	log.Info("received", "event_type", ev.EventType, "episodes", len(ev.Episodes))

	if ev.EventType == eventTest {
		return &Result{Status: StatusSuccess, Message: "Test notification received"}, nil
	}
	if !importEvent(ev.EventType) {
		log.Info("event not processed", "event_type", ev.EventType)
		return ignored(fmt.Sprintf("Event type %s not processed", ev.EventType)), nil
	}
	if !ev.hasSeries {
		log.Warn("no series data in payload")
		return ignored("No series data"), nil
	}
	if ev.IMDbID == "" {
		log.Warn("no identifier in series data", "title", ev.Title)
		return errored("No IMDb ID"), nil
	}
	log.Debug("classified", "media_type", library.MediaTypeSeries, "imdb_id", ev.IMDbID)

	// Rename payloads name the series but not the episodes touched;
	// the manager's recent history is the only way to target them.
	if len(ev.Episodes) == 0 && ev.EventType == eventRename && i.series != nil {
		ev.Episodes = i.renamedEpisodes(ctx, log, ev.IMDbID)
	}

	unlock := i.locks.lock(ev.IMDbID)
	defer unlock()

	existing, err := i.store.GetSeries(ev.IMDbID)
	if err != nil && !errors.Is(err, library.ErrNotFound) {
		return nil, fmt.Errorf("load series %s: %w", ev.IMDbID, err)
	}

	sr := &library.Series{IMDbID: ev.IMDbID, Title: ev.Title, Year: ev.Year, Path: ev.Path}
	if existing != nil {
		if sr.Title == "" {
			sr.Title = existing.Title
		}
		if sr.Year == 0 {
			sr.Year = existing.Year
		}
		if sr.Path == "" {
			sr.Path = existing.Path
		}
	}
	if _, _, err := i.store.UpsertSeries(sr, library.ActorWebhook); err != nil {
		return nil, fmt.Errorf("upsert series %s: %w", ev.IMDbID, err)
	}

	now := i.now()
	for _, ep := range ev.Episodes {
		prev, err := i.existingEpisode(ev.IMDbID, ep.Season, ep.Episode)
		if err != nil {
			return nil, fmt.Errorf("load episode %s: %w", library.EpisodeKey(ev.IMDbID, ep.Season, ep.Episode), err)
		}

		episode := &library.Episode{
			SeriesID:     ev.IMDbID,
			Season:       ep.Season,
			Episode:      ep.Episode,
			Title:        ep.Title,
			Aired:        ep.Aired,
			HasVideoFile: ev.hasFile,
		}
		if prev != nil {
			if episode.Title == "" {
				episode.Title = prev.Title
			}
			if episode.Aired == nil {
				episode.Aired = prev.Aired
			}
			episode.HasVideoFile = episode.HasVideoFile || prev.HasVideoFile
			episode.DateAdded = prev.DateAdded
			episode.Source = prev.Source
			episode.Skipped = prev.Skipped
			episode.SkipReason = prev.SkipReason
		}

		signals := []resolver.Signal{
			{Source: resolver.SourceWebhookImport, Value: ev.FileDate},
			{Source: resolver.SourceSonarrAired, Value: ep.Aired},
		}
		if episode.DateAdded == nil {
			arrival := now
			signals = append(signals, resolver.Signal{Source: resolver.SourceWebhookFallback, Value: &arrival})
		}
		if res, ok := resolver.Resolve(now, signals); ok && resolver.ShouldReplace(resolver.KindEpisode, episode.Source, res.Source) {
			episode.DateAdded = &res.Date
			episode.Source = res.Source
			episode.Skipped = false
			episode.SkipReason = ""
		}

		if _, _, err := i.store.UpsertEpisode(episode, library.ActorWebhook); err != nil {
			return nil, fmt.Errorf("upsert episode %s: %w", episode.Key(), err)
		}
	}

	log.Info("applied", "imdb_id", ev.IMDbID, "event_type", ev.EventType, "episodes", len(ev.Episodes))

	return &Result{
		Status:    StatusSuccess,
		MediaType: string(library.MediaTypeSeries),
		IMDbID:    ev.IMDbID,
		Message:   fmt.Sprintf("Processed %s for %s", ev.EventType, sr.Title),
	}, nil
}

// renamedEpisodes asks the TV manager which episodes were renamed
// recently. Lookup failures are logged and swallowed; the series-level
// refresh still proceeds.
func (i *Ingestor) renamedEpisodes(ctx context.Context, log *slog.Logger, imdbID string) []episodeEvent {
	s, err := i.series.SeriesByIMDB(ctx, imdbID)
	if err != nil {
		log.Debug("series lookup failed", "imdb_id", imdbID, "error", err)
		return nil
	}
	records, err := i.series.History(ctx, s.ID)
	if err != nil {
		log.Debug("history lookup failed", "series_id", s.ID, "error", err)
		return nil
	}
	cutoff := i.now().Add(-renameWindow)
	renamed := make(map[int64]bool)
	for idx := range records {
		if records[idx].EventType != sonarr.EventRenamed {
			continue
		}
		if ts := records[idx].Time(); ts != nil && ts.After(cutoff) {
			renamed[records[idx].EpisodeID] = true
		}
	}
	if len(renamed) == 0 {
		return nil
	}
	episodes, err := i.series.EpisodesBySeries(ctx, s.ID)
	if err != nil {
		log.Debug("episode listing failed", "series_id", s.ID, "error", err)
		return nil
	}
	var out []episodeEvent
	for idx := range episodes {
		if !renamed[episodes[idx].ID] {
			continue
		}
		out = append(out, episodeEvent{
			Season:  episodes[idx].SeasonNumber,
			Episode: episodes[idx].EpisodeNumber,
			Title:   episodes[idx].Title,
			Aired:   episodes[idx].AirTime(),
		})
	}
	log.Info("recovered renamed episodes", "series_id", s.ID, "count", len(out))
	return out
}
