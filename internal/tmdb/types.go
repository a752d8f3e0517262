// Package tmdb provides a client for The Movie Database API, scoped to the
// release-date lookups the population flow needs.
package tmdb

import "time"

// TMDB release_dates entry types. Premieres and TV airings are not useful
// as library dates and are ignored.
const (
	typeTheatricalLimited = 2
	typeTheatrical        = 3
	typeDigital           = 4
	typePhysical          = 5
)

// ReleaseDates holds the per-channel release dates TMDB knows for a movie.
// Absent channels are nil.
type ReleaseDates struct {
	Digital    *time.Time `json:"digital,omitempty"`
	Physical   *time.Time `json:"physical,omitempty"`
	Theatrical *time.Time `json:"theatrical,omitempty"`
}

// Empty reports whether no channel has a date.
func (r *ReleaseDates) Empty() bool {
	return r.Digital == nil && r.Physical == nil && r.Theatrical == nil
}

// findResponse is the /3/find/{imdb_id} payload.
type findResponse struct {
	MovieResults []findResult `json:"movie_results"`
}

type findResult struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// releaseDatesResponse is the /3/movie/{id}/release_dates payload.
type releaseDatesResponse struct {
	ID      int64            `json:"id"`
	Results []regionReleases `json:"results"`
}

type regionReleases struct {
	Region   string         `json:"iso_3166_1"`
	Releases []releaseEntry `json:"release_dates"`
}

type releaseEntry struct {
	ReleaseDate string `json:"release_date"` // "1999-09-21T00:00:00.000Z"
	Type        int    `json:"type"`
}

func (e *releaseEntry) time() *time.Time {
	if e.ReleaseDate == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, e.ReleaseDate)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
