// Package ingest applies inbound webhook notifications to the record
// store.
//
// Each notification moves through parse, classify, and apply stages and
// lands on exactly one terminal outcome: applied, ignored, or errored.
// The outcome is returned as a Result the HTTP layer serializes as-is.
// Malformed or unrecognized payloads degrade to ignored/errored
// responses; only storage failures surface as Go errors.
//
// Mutating work is serialized per media identifier: two notifications
// for the same item apply in arrival order, different items proceed in
// parallel.
package ingest

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vmunix/datarr/internal/library"
)

// Result statuses. Every webhook response carries exactly one.
const (
	StatusSuccess = "success"
	StatusIgnored = "ignored"
	StatusError   = "error"
)

// Result is the terminal outcome of one notification, shaped for the
// webhook response body.
type Result struct {
	Status       string   `json:"status"`
	MediaType    string   `json:"media_type,omitempty"`
	IMDbID       string   `json:"imdb_id,omitempty"`
	Message      string   `json:"message,omitempty"`
	Reason       string   `json:"reason,omitempty"`
	RemovedCount int      `json:"removed_count,omitempty"`
	RemovedItems []string `json:"removed_items,omitempty"`
}

func ignored(reason string) *Result {
	return &Result{Status: StatusIgnored, Reason: reason}
}

func errored(message string) *Result {
	return &Result{Status: StatusError, Message: message}
}

// Ingestor turns webhook payloads into record store mutations.
type Ingestor struct {
	store  *library.Store
	series SeriesLibrary
	log    *slog.Logger
	locks  *keyLock
	now    func() time.Time
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithSeriesLibrary enables episode discovery through the TV manager
// for rename notifications that carry no episode data.
func WithSeriesLibrary(sl SeriesLibrary) Option {
	return func(i *Ingestor) { i.series = sl }
}

// WithClock overrides the arrival-time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(i *Ingestor) { i.now = now }
}

// New creates an Ingestor writing to store.
func New(store *library.Store, log *slog.Logger, opts ...Option) *Ingestor {
	i := &Ingestor{
		store: store,
		log:   log.With("component", "ingest"),
		locks: newKeyLock(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// logger returns a per-notification logger carrying a correlation id so
// the stages of one notification can be tied together across
// interleaved deliveries.
func (i *Ingestor) logger(webhook string) *slog.Logger {
	return i.log.With("webhook", webhook, "correlation_id", uuid.NewString())
}

// existingMovie loads a movie, mapping not-found to nil.
func (i *Ingestor) existingMovie(imdbID string) (*library.Movie, error) {
	m, err := i.store.GetMovie(imdbID)
	if errors.Is(err, library.ErrNotFound) {
		return nil, nil
	}
	return m, err
}

// existingEpisode loads an episode, mapping not-found to nil.
func (i *Ingestor) existingEpisode(seriesID string, season, episode int) (*library.Episode, error) {
	e, err := i.store.GetEpisode(seriesID, season, episode)
	if errors.Is(err, library.ErrNotFound) {
		return nil, nil
	}
	return e, err
}
