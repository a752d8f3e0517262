package ingest

import (
	"context"
	"fmt"

	"github.com/vmunix/datarr/internal/library"
	"github.com/vmunix/datarr/internal/resolver"
)

// RadarrImport handles a movie manager notification. Download, Upgrade,
// and Rename events feed the payload's date signals through the
// resolver and upsert the movie; diagnostic tests are acknowledged and
// everything else is ignored without mutation.
func (i *Ingestor) RadarrImport(ctx context.Context, payload []byte) (*Result, error) {
	log := i.logger("radarr")

	m, err := decodePayload(payload)
	if err != nil {
		log.Warn("undecodable payload", "error", err)
		return errored("invalid JSON payload"), nil
	}
	ev := parseMovieEvent(m)
	log.Info("received", "event_type", ev.EventType)

	if ev.EventType == eventTest {
		return &Result{Status: StatusSuccess, Message: "Test notification received"}, nil
	}
	if !importEvent(ev.EventType) {
		log.Info("event not processed", "event_type", ev.EventType)
		return ignored(fmt.Sprintf("Event type %s not processed", ev.EventType)), nil
	}
	if !ev.hasMovie {
		log.Warn("no movie data in payload")
		return errored("No movie data"), nil
	}
	if ev.IMDbID == "" {
		log.Warn("no identifier in movie data", "title", ev.Title)
		return errored("No IMDb ID"), nil
	}
	log.Debug("classified", "media_type", library.MediaTypeMovie, "imdb_id", ev.IMDbID)

	unlock := i.locks.lock(ev.IMDbID)
	defer unlock()

	existing, err := i.existingMovie(ev.IMDbID)
	if err != nil {
		return nil, fmt.Errorf("load movie %s: %w", ev.IMDbID, err)
	}

	movie := &library.Movie{
		IMDbID:       ev.IMDbID,
		Title:        ev.Title,
		Year:         ev.Year,
		Path:         ev.Path,
		HasVideoFile: ev.HasFile,
	}
	if existing != nil {
		if movie.Title == "" {
			movie.Title = existing.Title
		}
		if movie.Year == 0 {
			movie.Year = existing.Year
		}
		if movie.Path == "" {
			movie.Path = existing.Path
		}
		movie.HasVideoFile = movie.HasVideoFile || existing.HasVideoFile
		movie.Released = existing.Released
		movie.DateAdded = existing.DateAdded
		movie.Source = existing.Source
		movie.Skipped = existing.Skipped
		movie.SkipReason = existing.SkipReason
	}

	now := i.now()
	signals := []resolver.Signal{
		{Source: resolver.SourceWebhookImport, Value: ev.FileDate},
		{Source: resolver.SourceRadarrDigital, Value: ev.Digital},
		{Source: resolver.SourceRadarrPhysical, Value: ev.Physical},
		{Source: resolver.SourceRadarrTheatrical, Value: ev.Theatrical},
	}
	if movie.DateAdded == nil {
		// First write for this item: the arrival time beats leaving it
		// dateless until the next population run.
		arrival := now
		signals = append(signals, resolver.Signal{Source: resolver.SourceWebhookFallback, Value: &arrival})
	}
	if res, ok := resolver.Resolve(now, signals); ok && resolver.ShouldReplace(resolver.KindMovie, movie.Source, res.Source) {
		movie.DateAdded = &res.Date
		movie.Source = res.Source
		movie.Skipped = false
		movie.SkipReason = ""
	}

	created, changed, err := i.store.UpsertMovie(movie, library.ActorWebhook)
	if err != nil {
		return nil, fmt.Errorf("upsert movie %s: %w", ev.IMDbID, err)
	}
	log.Info("applied", "imdb_id", ev.IMDbID, "event_type", ev.EventType,
		"source", movie.Source, "created", created, "changed", changed)

	return &Result{
		Status:    StatusSuccess,
		MediaType: string(library.MediaTypeMovie),
		IMDbID:    ev.IMDbID,
		Message:   fmt.Sprintf("Processed %s for %s", ev.EventType, movie.Title),
	}, nil
}
