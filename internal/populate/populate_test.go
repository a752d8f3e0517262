package populate_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	_ "modernc.org/sqlite"

	"github.com/vmunix/datarr/internal/library"
	"github.com/vmunix/datarr/internal/metadata"
	"github.com/vmunix/datarr/internal/migrations"
	"github.com/vmunix/datarr/internal/populate"
	"github.com/vmunix/datarr/internal/populate/mocks"
	"github.com/vmunix/datarr/internal/radarr"
	"github.com/vmunix/datarr/internal/resolver"
	"github.com/vmunix/datarr/internal/sonarr"
	"github.com/vmunix/datarr/pkg/mediaid"
)

func setupStore(t *testing.T) *library.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	// In-memory databases are per connection; a single connection keeps
	// every query on the same database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(migrations.InitialSQL)
	require.NoError(t, err)
	return library.NewStore(db)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return v.UTC()
}

func ptr[T any](v T) *T { return &v }

func historyCount(t *testing.T, store *library.Store) int {
	t.Helper()
	_, n, err := store.History(library.HistoryFilter{})
	require.NoError(t, err)
	return n
}

func TestRun_RequiresConfiguredClient(t *testing.T) {
	store := setupStore(t)
	orc := populate.New(store, testLogger())

	_, err := orc.Run(context.Background(), populate.Options{MediaType: library.MediaTypeMovie})
	require.EqualError(t, err, "movie population requires a radarr client")

	_, err = orc.Run(context.Background(), populate.Options{MediaType: library.MediaTypeSeries})
	require.EqualError(t, err, "episode population requires a sonarr client")

	_, err = orc.Run(context.Background(), populate.Options{MediaType: "album"})
	require.EqualError(t, err, `unknown media type "album"`)

	// Without a media type, unconfigured passes are skipped, not errors.
	rep, err := orc.Run(context.Background(), populate.Options{})
	require.NoError(t, err)
	assert.Nil(t, rep.Movies)
	assert.Nil(t, rep.TV)
}

func TestRun_MovieDateFromManagerDatabase(t *testing.T) {
	store := setupStore(t)
	ctrl := gomock.NewController(t)
	movies := mocks.NewMockMovieLibrary(ctrl)
	movieDB := mocks.NewMockMovieHistory(ctrl)

	imported := ts(t, "2023-05-01T12:00:00Z")
	movies.EXPECT().Movies(gomock.Any()).Return([]radarr.Movie{{
		ID:        7,
		Title:     "Heat",
		Year:      1995,
		Path:      "/movies/Heat (1995)",
		IMDBID:    "tt0113277",
		HasFile:   true,
		InCinemas: "1995-12-15",
	}}, nil)
	movieDB.EXPECT().ImportDate(gomock.Any(), int64(7)).Return(&imported, nil)
	// The API history port must not be consulted when the database
	// side-channel answers.

	orc := populate.New(store, testLogger(),
		populate.WithMovieLibrary(movies),
		populate.WithMovieHistory(movieDB),
	)
	rep, err := orc.Run(context.Background(), populate.Options{MediaType: library.MediaTypeMovie})
	require.NoError(t, err)

	require.NotNil(t, rep.Movies)
	assert.Equal(t, 1, rep.Movies.Total)
	assert.Equal(t, 1, rep.Movies.Added)
	assert.Equal(t, 0, rep.Movies.Errors)

	m, err := store.GetMovie("tt0113277")
	require.NoError(t, err)
	require.NotNil(t, m.DateAdded)
	assert.Equal(t, imported, *m.DateAdded)
	assert.Equal(t, resolver.SourceRadarrDBImport, m.Source)
	assert.True(t, m.HasVideoFile)
	require.NotNil(t, m.Released)
	assert.Equal(t, ts(t, "1995-12-15T00:00:00Z"), *m.Released)
}

func TestRun_MovieDatabaseFailureDegradesToAPI(t *testing.T) {
	store := setupStore(t)
	ctrl := gomock.NewController(t)
	movies := mocks.NewMockMovieLibrary(ctrl)
	movieDB := mocks.NewMockMovieHistory(ctrl)

	imported := ts(t, "2022-11-03T08:15:00Z")
	movies.EXPECT().Movies(gomock.Any()).Return([]radarr.Movie{{
		ID: 12, Title: "Arrival", Year: 2016, IMDBID: "tt2543164", HasFile: true,
	}}, nil)
	movieDB.EXPECT().ImportDate(gomock.Any(), int64(12)).Return(nil, assert.AnError)
	movies.EXPECT().ImportDate(gomock.Any(), int64(12)).Return(&imported, nil)

	orc := populate.New(store, testLogger(),
		populate.WithMovieLibrary(movies),
		populate.WithMovieHistory(movieDB),
	)
	rep, err := orc.Run(context.Background(), populate.Options{MediaType: library.MediaTypeMovie})
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Movies.Errors)

	m, err := store.GetMovie("tt2543164")
	require.NoError(t, err)
	assert.Equal(t, resolver.SourceRadarrAPIImport, m.Source)
	require.NotNil(t, m.DateAdded)
	assert.Equal(t, imported, *m.DateAdded)
}

func TestRun_MovieReleaseDateFallback(t *testing.T) {
	store := setupStore(t)
	ctrl := gomock.NewController(t)
	movies := mocks.NewMockMovieLibrary(ctrl)
	releases := mocks.NewMockReleaseDates(ctrl)

	movies.EXPECT().Movies(gomock.Any()).Return([]radarr.Movie{{
		ID:              3,
		Title:           "Dune Part Two",
		Year:            2024,
		IMDBID:          "tt15239678",
		HasFile:         true,
		DigitalRelease:  "2024-04-16T00:00:00Z",
		PhysicalRelease: "2024-05-14T00:00:00Z",
		InCinemas:       "2024-02-25T00:00:00Z",
	}}, nil)
	movies.EXPECT().ImportDate(gomock.Any(), int64(3)).Return(nil, nil)
	// External providers stay untouched while the manager's own release
	// dates resolve.

	orc := populate.New(store, testLogger(),
		populate.WithMovieLibrary(movies),
		populate.WithReleaseDates(releases),
	)
	_, err := orc.Run(context.Background(), populate.Options{MediaType: library.MediaTypeMovie})
	require.NoError(t, err)

	m, err := store.GetMovie("tt15239678")
	require.NoError(t, err)
	assert.Equal(t, resolver.SourceRadarrDigitalFallback, m.Source)
	require.NotNil(t, m.DateAdded)
	assert.Equal(t, ts(t, "2024-04-16T00:00:00Z"), *m.DateAdded)
}

func TestRun_MovieExternalReleaseDatesThenImportSupersedes(t *testing.T) {
	store := setupStore(t)
	ctrl := gomock.NewController(t)
	movies := mocks.NewMockMovieLibrary(ctrl)
	releases := mocks.NewMockReleaseDates(ctrl)

	listing := []radarr.Movie{{
		ID: 9, Title: "Aftersun", Year: 2022, IMDBID: "tt19770238", HasFile: true,
	}}
	theatrical := ts(t, "2022-10-21T00:00:00Z")
	imported := ts(t, "2023-01-07T19:30:00Z")

	movies.EXPECT().Movies(gomock.Any()).Return(listing, nil).Times(2)
	gomock.InOrder(
		movies.EXPECT().ImportDate(gomock.Any(), int64(9)).Return(nil, nil),
		movies.EXPECT().ImportDate(gomock.Any(), int64(9)).Return(&imported, nil),
	)
	// Consulted exactly once: the second run resolves locally.
	releases.EXPECT().MovieReleaseDates(gomock.Any(), "tt19770238").
		Return(metadata.ReleaseDates{TMDBTheatrical: &theatrical}, nil)

	orc := populate.New(store, testLogger(),
		populate.WithMovieLibrary(movies),
		populate.WithReleaseDates(releases),
	)

	rep, err := orc.Run(context.Background(), populate.Options{MediaType: library.MediaTypeMovie})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Movies.Added)

	m, err := store.GetMovie("tt19770238")
	require.NoError(t, err)
	assert.Equal(t, resolver.SourceTMDBTheatrical, m.Source)
	require.NotNil(t, m.DateAdded)
	assert.Equal(t, theatrical, *m.DateAdded)

	// A release-dated record is not settled; the import event found on
	// the next pass replaces it.
	rep, err = orc.Run(context.Background(), populate.Options{MediaType: library.MediaTypeMovie})
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Movies.Added)
	assert.Equal(t, 1, rep.Movies.Updated)

	m, err = store.GetMovie("tt19770238")
	require.NoError(t, err)
	assert.Equal(t, resolver.SourceRadarrAPIImport, m.Source)
	assert.Equal(t, imported, *m.DateAdded)
}

func TestRun_SettledMovieOnlyRefreshesFileInfo(t *testing.T) {
	store := setupStore(t)
	ctrl := gomock.NewController(t)
	movies := mocks.NewMockMovieLibrary(ctrl)

	dated := ts(t, "2021-08-09T10:00:00Z")
	_, _, err := store.UpsertMovie(&library.Movie{
		IMDbID:    "tt0468569",
		Title:     "The Dark Knight",
		Year:      2008,
		DateAdded: &dated,
		Source:    resolver.SourceRadarrDBImport,
	}, library.ActorPopulation)
	require.NoError(t, err)

	// No ImportDate expectation: a settled record triggers no lookups.
	movies.EXPECT().Movies(gomock.Any()).Return([]radarr.Movie{{
		ID: 4, Title: "The Dark Knight", Year: 2008, IMDBID: "tt0468569",
		Path: "/movies/The Dark Knight (2008)", HasFile: true,
	}}, nil)

	orc := populate.New(store, testLogger(), populate.WithMovieLibrary(movies))
	rep, err := orc.Run(context.Background(), populate.Options{MediaType: library.MediaTypeMovie})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Movies.Updated)

	m, err := store.GetMovie("tt0468569")
	require.NoError(t, err)
	assert.Equal(t, dated, *m.DateAdded)
	assert.Equal(t, resolver.SourceRadarrDBImport, m.Source)
	assert.True(t, m.HasVideoFile)
	assert.Equal(t, "/movies/The Dark Knight (2008)", m.Path)
}

func TestRun_FullRevisitsSettledMovies(t *testing.T) {
	store := setupStore(t)
	ctrl := gomock.NewController(t)
	movies := mocks.NewMockMovieLibrary(ctrl)

	dated := ts(t, "2021-08-09T10:00:00Z")
	_, _, err := store.UpsertMovie(&library.Movie{
		IMDbID:       "tt0468569",
		Title:        "The Dark Knight",
		Year:         2008,
		DateAdded:    &dated,
		Source:       resolver.SourceRadarrAPIImport,
		HasVideoFile: true,
	}, library.ActorPopulation)
	require.NoError(t, err)

	earlier := ts(t, "2020-02-01T00:00:00Z")
	movies.EXPECT().Movies(gomock.Any()).Return([]radarr.Movie{{
		ID: 4, Title: "The Dark Knight", Year: 2008, IMDBID: "tt0468569", HasFile: true,
	}}, nil)
	movies.EXPECT().ImportDate(gomock.Any(), int64(4)).Return(&earlier, nil)

	orc := populate.New(store, testLogger(), populate.WithMovieLibrary(movies))
	rep, err := orc.Run(context.Background(), populate.Options{
		MediaType: library.MediaTypeMovie,
		Full:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Movies.Updated)

	m, err := store.GetMovie("tt0468569")
	require.NoError(t, err)
	assert.Equal(t, earlier, *m.DateAdded)
}

func TestRun_UnidentifiedMovieKeptUnderPlaceholder(t *testing.T) {
	store := setupStore(t)
	ctrl := gomock.NewController(t)
	movies := mocks.NewMockMovieLibrary(ctrl)

	movies.EXPECT().Movies(gomock.Any()).Return([]radarr.Movie{{
		ID: 31, Title: "Obscure Film", Year: 2001, Path: "/movies/Obscure Film (2001)", HasFile: true,
	}}, nil)

	orc := populate.New(store, testLogger(), populate.WithMovieLibrary(movies))
	rep, err := orc.Run(context.Background(), populate.Options{MediaType: library.MediaTypeMovie})
	require.NoError(t, err)

	key := mediaid.Placeholder("Obscure Film", 2001)
	m, err := store.GetMovie(key)
	require.NoError(t, err)
	assert.True(t, m.Skipped)
	assert.Equal(t, "No IMDb ID found", m.SkipReason)
	assert.Empty(t, m.Source)
	assert.Nil(t, m.DateAdded)

	assert.Equal(t, 1, rep.Movies.Skipped)
	require.Len(t, rep.Movies.SkippedItems, 1)
	assert.Equal(t, "Obscure Film", rep.Movies.SkippedItems[0].Title)
	assert.Equal(t, key, rep.Movies.SkippedItems[0].IMDbID)
	assert.Equal(t, "No IMDb ID found", rep.Movies.SkippedItems[0].Reason)
}

func TestRun_MovieWithoutValidSignalMarkedSkipped(t *testing.T) {
	store := setupStore(t)
	ctrl := gomock.NewController(t)
	movies := mocks.NewMockMovieLibrary(ctrl)

	movies.EXPECT().Movies(gomock.Any()).Return([]radarr.Movie{{
		ID: 15, Title: "Unreleased", Year: 2025, IMDBID: "tt9000001", HasFile: true,
	}}, nil)
	movies.EXPECT().ImportDate(gomock.Any(), int64(15)).Return(nil, nil)

	orc := populate.New(store, testLogger(), populate.WithMovieLibrary(movies))
	rep, err := orc.Run(context.Background(), populate.Options{MediaType: library.MediaTypeMovie})
	require.NoError(t, err)

	m, err := store.GetMovie("tt9000001")
	require.NoError(t, err)
	assert.True(t, m.Skipped)
	assert.Equal(t, resolver.ReasonNoValidSource, m.SkipReason)
	assert.Equal(t, resolver.SourceNone, m.Source)
	assert.Equal(t, 1, rep.Movies.Skipped)
}

func TestRun_PlaceholderMovieRekeyed(t *testing.T) {
	store := setupStore(t)
	ctrl := gomock.NewController(t)
	movies := mocks.NewMockMovieLibrary(ctrl)

	key := mediaid.Placeholder("The Matrix", 1999)
	_, _, err := store.UpsertMovie(&library.Movie{
		IMDbID:     key,
		Title:      "The Matrix",
		Year:       1999,
		Skipped:    true,
		SkipReason: "No IMDb ID found",
	}, library.ActorPopulation)
	require.NoError(t, err)

	imported := ts(t, "2019-06-12T20:00:00Z")
	movies.EXPECT().Movies(gomock.Any()).Return([]radarr.Movie{{
		ID: 1, Title: "The Matrix", Year: 1999, IMDBID: "tt0133093", HasFile: true,
	}}, nil)
	movies.EXPECT().ImportDate(gomock.Any(), int64(1)).Return(&imported, nil)

	orc := populate.New(store, testLogger(), populate.WithMovieLibrary(movies))
	rep, err := orc.Run(context.Background(), populate.Options{MediaType: library.MediaTypeMovie})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Movies.Added)

	_, err = store.GetMovie(key)
	require.ErrorIs(t, err, library.ErrNotFound)

	m, err := store.GetMovie("tt0133093")
	require.NoError(t, err)
	assert.False(t, m.Skipped)
	assert.Empty(t, m.SkipReason)
	assert.Equal(t, resolver.SourceRadarrAPIImport, m.Source)
	require.NotNil(t, m.DateAdded)
	assert.Equal(t, imported, *m.DateAdded)
}

func TestRun_PlaceholderManualDateSurvivesRekey(t *testing.T) {
	store := setupStore(t)
	ctrl := gomock.NewController(t)
	movies := mocks.NewMockMovieLibrary(ctrl)

	key := mediaid.Placeholder("Stalker", 1979)
	_, _, err := store.UpsertMovie(&library.Movie{
		IMDbID:     key,
		Title:      "Stalker",
		Year:       1979,
		Skipped:    true,
		SkipReason: "No IMDb ID found",
	}, library.ActorPopulation)
	require.NoError(t, err)
	manual := ts(t, "2020-05-05T00:00:00Z")
	require.NoError(t, store.SetMovieDate(key, manual, resolver.SourceManual, library.ActorManual))

	imported := ts(t, "2024-03-03T03:00:00Z")
	movies.EXPECT().Movies(gomock.Any()).Return([]radarr.Movie{{
		ID: 2, Title: "Stalker", Year: 1979, IMDBID: "tt0079944", HasFile: true,
	}}, nil)
	movies.EXPECT().ImportDate(gomock.Any(), int64(2)).Return(&imported, nil)

	orc := populate.New(store, testLogger(), populate.WithMovieLibrary(movies))
	_, err = orc.Run(context.Background(), populate.Options{MediaType: library.MediaTypeMovie})
	require.NoError(t, err)

	_, err = store.GetMovie(key)
	require.ErrorIs(t, err, library.ErrNotFound)

	m, err := store.GetMovie("tt0079944")
	require.NoError(t, err)
	assert.Equal(t, resolver.SourceManual, m.Source)
	require.NotNil(t, m.DateAdded)
	assert.Equal(t, manual, *m.DateAdded)
}

func TestRun_PathScopeFiltersListing(t *testing.T) {
	store := setupStore(t)
	ctrl := gomock.NewController(t)
	movies := mocks.NewMockMovieLibrary(ctrl)

	imported := ts(t, "2023-05-01T12:00:00Z")
	movies.EXPECT().Movies(gomock.Any()).Return([]radarr.Movie{
		{ID: 7, Title: "Heat", Year: 1995, IMDBID: "tt0113277", Path: "/movies/Heat (1995)", HasFile: true},
		{ID: 8, Title: "Ran", Year: 1985, IMDBID: "tt0089881", Path: "/archive/Ran (1985)", HasFile: true},
	}, nil)
	movies.EXPECT().ImportDate(gomock.Any(), int64(7)).Return(&imported, nil)

	orc := populate.New(store, testLogger(), populate.WithMovieLibrary(movies))
	rep, err := orc.Run(context.Background(), populate.Options{
		MediaType: library.MediaTypeMovie,
		Paths:     []string{"/movies"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Movies.Total)

	_, err = store.GetMovie("tt0089881")
	require.ErrorIs(t, err, library.ErrNotFound)
}

func TestRun_SecondPassIsIdempotent(t *testing.T) {
	store := setupStore(t)
	ctrl := gomock.NewController(t)
	movies := mocks.NewMockMovieLibrary(ctrl)
	movieDB := mocks.NewMockMovieHistory(ctrl)

	imported := ts(t, "2023-05-01T12:00:00Z")
	movies.EXPECT().Movies(gomock.Any()).Return([]radarr.Movie{{
		ID: 7, Title: "Heat", Year: 1995, IMDBID: "tt0113277", HasFile: true,
	}}, nil).Times(2)
	movieDB.EXPECT().ImportDate(gomock.Any(), int64(7)).Return(&imported, nil).AnyTimes()

	orc := populate.New(store, testLogger(),
		populate.WithMovieLibrary(movies),
		populate.WithMovieHistory(movieDB),
	)

	rep, err := orc.Run(context.Background(), populate.Options{MediaType: library.MediaTypeMovie})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Movies.Added)
	before := historyCount(t, store)

	rep, err = orc.Run(context.Background(), populate.Options{MediaType: library.MediaTypeMovie})
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Movies.Added)
	assert.Equal(t, 0, rep.Movies.Updated)
	assert.Equal(t, before, historyCount(t, store))
}

func TestRun_ListingFailureAborts(t *testing.T) {
	store := setupStore(t)
	ctrl := gomock.NewController(t)
	movies := mocks.NewMockMovieLibrary(ctrl)

	movies.EXPECT().Movies(gomock.Any()).Return(nil, assert.AnError)

	orc := populate.New(store, testLogger(), populate.WithMovieLibrary(movies))
	rep, err := orc.Run(context.Background(), populate.Options{MediaType: library.MediaTypeMovie})
	require.ErrorContains(t, err, "list radarr movies")
	require.NotNil(t, rep)
	assert.Nil(t, rep.Movies)
}

func TestRun_EpisodesResolveImportAndAirDates(t *testing.T) {
	store := setupStore(t)
	ctrl := gomock.NewController(t)
	series := mocks.NewMockSeriesLibrary(ctrl)
	seriesDB := mocks.NewMockEpisodeHistory(ctrl)

	imported := ts(t, "2016-05-02T07:00:00Z")
	series.EXPECT().Series(gomock.Any()).Return([]sonarr.Series{{
		ID: 5, Title: "Game of Thrones", Year: 2011, IMDBID: "tt0944947", Path: "/tv/Game of Thrones",
	}}, nil)
	seriesDB.EXPECT().ImportDatesBySeries(gomock.Any(), int64(5)).
		Return(map[int64]time.Time{101: imported}, nil)
	series.EXPECT().EpisodesBySeries(gomock.Any(), int64(5)).Return([]sonarr.Episode{
		{ID: 101, SeriesID: 5, SeasonNumber: 1, EpisodeNumber: 1, Title: "Winter Is Coming", HasFile: true},
		{ID: 102, SeriesID: 5, SeasonNumber: 1, EpisodeNumber: 2, Title: "The Kingsroad", HasFile: true, AirDateUTC: "2011-04-25T01:00:00Z"},
		{ID: 103, SeriesID: 5, SeasonNumber: 1, EpisodeNumber: 3, Title: "Lord Snow", HasFile: false},
		{ID: 104, SeriesID: 5, SeasonNumber: 1, EpisodeNumber: 0, Title: "Malformed"},
	}, nil)

	orc := populate.New(store, testLogger(),
		populate.WithSeriesLibrary(series),
		populate.WithEpisodeHistory(seriesDB),
	)
	rep, err := orc.Run(context.Background(), populate.Options{MediaType: library.MediaTypeSeries})
	require.NoError(t, err)

	require.NotNil(t, rep.TV)
	assert.Equal(t, 1, rep.TV.Series)
	assert.Equal(t, 3, rep.TV.Episodes)
	assert.Equal(t, 2, rep.TV.Added)
	assert.Equal(t, 0, rep.TV.Errors)

	_, err = store.GetSeries("tt0944947")
	require.NoError(t, err)

	e1, err := store.GetEpisode("tt0944947", 1, 1)
	require.NoError(t, err)
	require.NotNil(t, e1.DateAdded)
	assert.Equal(t, imported, *e1.DateAdded)
	assert.Equal(t, resolver.SourceSonarrDBImport, e1.Source)

	e2, err := store.GetEpisode("tt0944947", 1, 2)
	require.NoError(t, err)
	require.NotNil(t, e2.DateAdded)
	assert.Equal(t, ts(t, "2011-04-25T01:00:00Z"), *e2.DateAdded)
	assert.Equal(t, resolver.SourceSonarrAired, e2.Source)

	// Episodes without a file are not recorded.
	_, err = store.GetEpisode("tt0944947", 1, 3)
	require.ErrorIs(t, err, library.ErrNotFound)
}

func TestRun_EpisodeDatabaseFailureDegradesToAPI(t *testing.T) {
	store := setupStore(t)
	ctrl := gomock.NewController(t)
	series := mocks.NewMockSeriesLibrary(ctrl)
	seriesDB := mocks.NewMockEpisodeHistory(ctrl)

	imported := ts(t, "2018-02-10T22:00:00Z")
	series.EXPECT().Series(gomock.Any()).Return([]sonarr.Series{{
		ID: 6, Title: "Counterpart", Year: 2017, IMDBID: "tt4643084",
	}}, nil)
	seriesDB.EXPECT().ImportDatesBySeries(gomock.Any(), int64(6)).Return(nil, assert.AnError)
	series.EXPECT().ImportDatesBySeries(gomock.Any(), int64(6)).
		Return(map[int64]time.Time{201: imported}, nil)
	series.EXPECT().EpisodesBySeries(gomock.Any(), int64(6)).Return([]sonarr.Episode{
		{ID: 201, SeriesID: 6, SeasonNumber: 1, EpisodeNumber: 1, HasFile: true},
	}, nil)

	orc := populate.New(store, testLogger(),
		populate.WithSeriesLibrary(series),
		populate.WithEpisodeHistory(seriesDB),
	)
	rep, err := orc.Run(context.Background(), populate.Options{MediaType: library.MediaTypeSeries})
	require.NoError(t, err)
	assert.Equal(t, 0, rep.TV.Errors)

	e, err := store.GetEpisode("tt4643084", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, resolver.SourceSonarrAPIImport, e.Source)
}

func TestRun_EpisodeWithoutSignalMarkedSkipped(t *testing.T) {
	store := setupStore(t)
	ctrl := gomock.NewController(t)
	series := mocks.NewMockSeriesLibrary(ctrl)

	series.EXPECT().Series(gomock.Any()).Return([]sonarr.Series{{
		ID: 8, Title: "Dark", Year: 2017, IMDBID: "tt5753856",
	}}, nil)
	series.EXPECT().ImportDatesBySeries(gomock.Any(), int64(8)).Return(map[int64]time.Time{}, nil)
	series.EXPECT().EpisodesBySeries(gomock.Any(), int64(8)).Return([]sonarr.Episode{
		{ID: 301, SeriesID: 8, SeasonNumber: 1, EpisodeNumber: 5, HasFile: true},
	}, nil)

	orc := populate.New(store, testLogger(), populate.WithSeriesLibrary(series))
	rep, err := orc.Run(context.Background(), populate.Options{MediaType: library.MediaTypeSeries})
	require.NoError(t, err)

	e, err := store.GetEpisode("tt5753856", 1, 5)
	require.NoError(t, err)
	assert.True(t, e.Skipped)
	assert.Equal(t, resolver.ReasonNoValidSource, e.SkipReason)
	assert.Equal(t, resolver.SourceNone, e.Source)

	require.Len(t, rep.TV.SkippedItems, 1)
	assert.Equal(t, "Dark S01E05", rep.TV.SkippedItems[0].Title)
	assert.Equal(t, "tt5753856", rep.TV.SkippedItems[0].IMDbID)
}

func TestRun_PlaceholderSeriesRekeyedWithEpisodes(t *testing.T) {
	store := setupStore(t)
	ctrl := gomock.NewController(t)
	series := mocks.NewMockSeriesLibrary(ctrl)

	key := mediaid.Placeholder("Severance", 2022)
	_, _, err := store.UpsertSeries(&library.Series{
		IMDbID: key, Title: "Severance", Year: 2022,
	}, library.ActorPopulation)
	require.NoError(t, err)
	manual := ts(t, "2022-02-18T00:00:00Z")
	_, _, err = store.UpsertEpisode(&library.Episode{
		SeriesID:     key,
		Season:       1,
		Episode:      1,
		Title:        "Good News About Hell",
		DateAdded:    &manual,
		Source:       resolver.SourceManual,
		HasVideoFile: true,
	}, library.ActorManual)
	require.NoError(t, err)

	series.EXPECT().Series(gomock.Any()).Return([]sonarr.Series{{
		ID: 11, Title: "Severance", Year: 2022, IMDBID: "tt11280740", Path: "/tv/Severance",
	}}, nil)
	series.EXPECT().ImportDatesBySeries(gomock.Any(), int64(11)).Return(map[int64]time.Time{}, nil)
	series.EXPECT().EpisodesBySeries(gomock.Any(), int64(11)).Return([]sonarr.Episode{
		{ID: 401, SeriesID: 11, SeasonNumber: 1, EpisodeNumber: 1, Title: "Good News About Hell", HasFile: true},
	}, nil)

	orc := populate.New(store, testLogger(), populate.WithSeriesLibrary(series))
	_, err = orc.Run(context.Background(), populate.Options{MediaType: library.MediaTypeSeries})
	require.NoError(t, err)

	_, err = store.GetSeries(key)
	require.ErrorIs(t, err, library.ErrNotFound)
	_, err = store.GetSeries("tt11280740")
	require.NoError(t, err)

	e, err := store.GetEpisode("tt11280740", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, resolver.SourceManual, e.Source)
	require.NotNil(t, e.DateAdded)
	assert.Equal(t, manual, *e.DateAdded)
}
