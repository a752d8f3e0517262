package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vmunix/datarr/internal/library"
)

// Removal handles a collection manager cleanup notification by deleting
// the identified media and its history. Classification prefers what the
// store already knows about the identifier; the payload's wording only
// feeds logs.
func (i *Ingestor) Removal(ctx context.Context, payload []byte) (*Result, error) {
	log := i.logger("removal")

	m, err := decodePayload(payload)
	if err != nil {
		log.Warn("undecodable payload", "error", err)
		return errored("invalid JSON payload"), nil
	}
	ev := parseRemovalEvent(m)
	log.Info("received", "notification_type", ev.Type)

	if strings.EqualFold(ev.Type, testNotificationType) {
		return &Result{Status: StatusSuccess, Message: "Test notification received successfully"}, nil
	}
	lower := strings.ToLower(ev.Type)
	if !strings.Contains(lower, "removed") && !strings.Contains(lower, "delete") {
		log.Info("not a removal event", "notification_type", ev.Type)
		return ignored(fmt.Sprintf("Notification type '%s' not processed", ev.Type)), nil
	}

	id, ok := ev.identifier()
	if !ok {
		log.Warn("no identifier in payload", "message", ev.Message, "subject", ev.Subject)
		return errored("No IMDb ID found in webhook payload"), nil
	}
	title := ev.title()

	unlock := i.locks.lock(id)
	defer unlock()

	mediaType, err := i.store.EntityType(id)
	if errors.Is(err, library.ErrNotFound) {
		log.Info("media not tracked", "imdb_id", id, "title", title,
			"classified", classifyKeywords(ev.Message))
		return ignored(fmt.Sprintf("Media %s not found in database", id)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", id, err)
	}
	log.Debug("classified", "media_type", mediaType, "imdb_id", id)

	var (
		count int
		items []string
	)
	switch mediaType {
	case library.MediaTypeMovie:
		movie, err := i.store.DeleteMovie(id, library.ActorWebhook)
		if err != nil {
			return nil, fmt.Errorf("delete movie %s: %w", id, err)
		}
		if movie.Title != "" {
			title = movie.Title
		}
		count = 1
		items = []string{fmt.Sprintf("Movie: %s (%s)", title, id)}
	case library.MediaTypeSeries:
		series, episodes, err := i.store.DeleteSeries(id, library.ActorWebhook)
		if err != nil {
			return nil, fmt.Errorf("delete series %s: %w", id, err)
		}
		if series.Title != "" {
			title = series.Title
		}
		if len(episodes) > 0 {
			items = append(items, fmt.Sprintf("Series episodes: %s (%s) - %d episodes", title, id, len(episodes)))
		}
		items = append(items, fmt.Sprintf("Series: %s (%s)", title, id))
		count = len(episodes) + 1
	default:
		return nil, fmt.Errorf("classify %s: unexpected entity type %q", id, mediaType)
	}

	log.Info("removal applied", "imdb_id", id, "media_type", mediaType,
		"title", title, "removed_count", count)

	return &Result{
		Status:       StatusSuccess,
		Message:      fmt.Sprintf("Processed %s for %s", ev.Type, title),
		MediaType:    string(mediaType),
		IMDbID:       id,
		RemovedCount: count,
		RemovedItems: items,
	}, nil
}

// classifyKeywords guesses media type from notification wording. The
// guess never drives a mutation; it annotates logs for identifiers the
// store doesn't know.
func classifyKeywords(text string) string {
	lower := strings.ToLower(text)
	for _, kw := range []string{"series", "show", "tv", "season", "episode"} {
		if strings.Contains(lower, kw) {
			return string(library.MediaTypeSeries)
		}
	}
	for _, kw := range []string{"movie", "film"} {
		if strings.Contains(lower, kw) {
			return string(library.MediaTypeMovie)
		}
	}
	return "unknown"
}
