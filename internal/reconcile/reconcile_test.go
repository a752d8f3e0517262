package reconcile_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	_ "modernc.org/sqlite"

	"github.com/vmunix/datarr/internal/library"
	"github.com/vmunix/datarr/internal/metadata"
	"github.com/vmunix/datarr/internal/migrations"
	"github.com/vmunix/datarr/internal/radarr"
	"github.com/vmunix/datarr/internal/reconcile"
	"github.com/vmunix/datarr/internal/reconcile/mocks"
	"github.com/vmunix/datarr/internal/sonarr"
	"github.com/vmunix/datarr/pkg/mediaid"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	// In-memory databases are per connection; a single connection keeps
	// every query on the same database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(migrations.InitialSQL)
	require.NoError(t, err)
	return db
}

func setupStore(t *testing.T) *library.Store {
	t.Helper()
	return library.NewStore(setupDB(t))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

func seedMovie(t *testing.T, store *library.Store, id, title string, year int, path string) {
	t.Helper()
	_, _, err := store.UpsertMovie(&library.Movie{
		IMDbID: id, Title: title, Year: year, Path: path, HasVideoFile: path != "",
	}, library.ActorPopulation)
	require.NoError(t, err)
}

func seedSeries(t *testing.T, store *library.Store, id, title string, year int, path string) {
	t.Helper()
	_, _, err := store.UpsertSeries(&library.Series{
		IMDbID: id, Title: title, Year: year, Path: path,
	}, library.ActorPopulation)
	require.NoError(t, err)
}

func TestRun_RequiresValidationMethod(t *testing.T) {
	store := setupStore(t)
	eng := reconcile.New(store, testLogger())

	_, err := eng.Run(context.Background(), reconcile.Options{})
	require.EqualError(t, err, "no validation method enabled")

	_, err = eng.Run(context.Background(), reconcile.Options{MediaType: "album", CheckFilesystem: true})
	require.EqualError(t, err, `unknown media type "album"`)

	// A membership-only run cannot proceed without the matching client.
	_, err = eng.Run(context.Background(), reconcile.Options{MediaType: library.MediaTypeMovie, CheckDatabase: true})
	require.EqualError(t, err, "movie library check requires a radarr client")

	_, err = eng.Run(context.Background(), reconcile.Options{MediaType: library.MediaTypeSeries, CheckDatabase: true})
	require.EqualError(t, err, "series library check requires a sonarr client")
}

func TestRun_FilesystemDryRunMatchesLiveRun(t *testing.T) {
	store := setupStore(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/movies/Heat (1995)", 0o755))

	seedMovie(t, store, "tt0113277", "Heat", 1995, "/movies/Heat (1995)")
	seedMovie(t, store, "tt0137523", "Fight Club", 1999, "/movies/Fight Club (1999)")

	eng := reconcile.New(store, testLogger(), reconcile.WithFs(fs))

	dry, err := eng.Run(context.Background(), reconcile.Options{DryRun: true, CheckFilesystem: true})
	require.NoError(t, err)
	require.NotNil(t, dry.Movies)
	assert.True(t, dry.DryRun)
	assert.Equal(t, []string{"filesystem"}, dry.ValidationMethods)
	assert.Equal(t, 2, dry.Movies.Checked)
	assert.Equal(t, 1, dry.Movies.Orphaned)
	assert.Equal(t, 1, dry.Movies.Removed)
	assert.Equal(t, []string{"Fight Club (tt0137523)"}, dry.Movies.RemovedTitles)
	assert.Equal(t, 1, dry.TotalRemoved)

	// The dry run changed nothing.
	_, err = store.GetMovie("tt0137523")
	require.NoError(t, err)

	live, err := eng.Run(context.Background(), reconcile.Options{CheckFilesystem: true})
	require.NoError(t, err)
	assert.False(t, live.DryRun)
	assert.Equal(t, *dry.Movies, *live.Movies)

	_, err = store.GetMovie("tt0137523")
	require.ErrorIs(t, err, library.ErrNotFound)
	_, err = store.GetMovie("tt0113277")
	require.NoError(t, err)

	entries, n, err := store.History(library.HistoryFilter{Actor: ptr(library.ActorReconciliation)})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, library.ActionDelete, entries[0].Action)
	assert.Equal(t, "tt0137523", entries[0].EntityKey)
}

func TestRun_HybridOrphanNeedsBothChecksMissing(t *testing.T) {
	store := setupStore(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/movies/On Disk (2001)", 0o755))

	seedMovie(t, store, "tt0000001", "Fully Gone", 2000, "/movies/Fully Gone (2000)")
	seedMovie(t, store, "tt0000002", "On Disk", 2001, "/movies/On Disk (2001)")
	seedMovie(t, store, "tt0000003", "Still Listed", 2002, "/movies/Still Listed (2002)")

	ctrl := gomock.NewController(t)
	ml := mocks.NewMockMovieLibrary(ctrl)
	ml.EXPECT().Movies(gomock.Any()).Return([]radarr.Movie{{IMDBID: "tt0000003", Title: "Still Listed"}}, nil)

	eng := reconcile.New(store, testLogger(), reconcile.WithFs(fs), reconcile.WithMovieLibrary(ml))
	rep, err := eng.Run(context.Background(), reconcile.Options{
		MediaType: library.MediaTypeMovie, DryRun: true, CheckFilesystem: true, CheckDatabase: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"filesystem", "database"}, rep.ValidationMethods)
	assert.Nil(t, rep.Series)
	require.NotNil(t, rep.Movies)
	assert.Equal(t, 3, rep.Movies.Checked)
	assert.Equal(t, 1, rep.Movies.Orphaned)
	assert.Equal(t, []string{"Fully Gone (tt0000001)"}, rep.Movies.RemovedTitles)
	assert.Equal(t, map[string]int{"filesystem": 1, "database": 1}, rep.Movies.MissingReasons)
}

func TestRun_DatabaseOnlySkipsPlaceholderKeys(t *testing.T) {
	store := setupStore(t)
	ph := mediaid.Placeholder("Ghost Movie", 2001)
	seedMovie(t, store, ph, "Ghost Movie", 2001, "")
	seedMovie(t, store, "tt0000404", "Dropped", 2004, "")

	ctrl := gomock.NewController(t)
	ml := mocks.NewMockMovieLibrary(ctrl)
	ml.EXPECT().Movies(gomock.Any()).Return([]radarr.Movie{}, nil)

	eng := reconcile.New(store, testLogger(), reconcile.WithMovieLibrary(ml))
	rep, err := eng.Run(context.Background(), reconcile.Options{
		MediaType: library.MediaTypeMovie, CheckDatabase: true,
	})
	require.NoError(t, err)

	// The placeholder is examined but never orphaned: a synthetic key
	// cannot appear in any listing.
	require.NotNil(t, rep.Movies)
	assert.Equal(t, 2, rep.Movies.Checked)
	assert.Equal(t, 1, rep.Movies.Orphaned)
	assert.Equal(t, []string{"Dropped (tt0000404)"}, rep.Movies.RemovedTitles)

	_, err = store.GetMovie(ph)
	require.NoError(t, err)
	_, err = store.GetMovie("tt0000404")
	require.ErrorIs(t, err, library.ErrNotFound)
}

func TestRun_HybridCanOrphanPlaceholders(t *testing.T) {
	store := setupStore(t)
	ph := mediaid.Placeholder("Lost Film", 1977)
	seedMovie(t, store, ph, "Lost Film", 1977, "/movies/Lost Film (1977)")

	ctrl := gomock.NewController(t)
	ml := mocks.NewMockMovieLibrary(ctrl)
	ml.EXPECT().Movies(gomock.Any()).Return([]radarr.Movie{}, nil)

	// With the filesystem to arbitrate, a placeholder whose path is gone
	// is removable like any other record.
	eng := reconcile.New(store, testLogger(), reconcile.WithFs(afero.NewMemMapFs()), reconcile.WithMovieLibrary(ml))
	rep, err := eng.Run(context.Background(), reconcile.Options{
		MediaType: library.MediaTypeMovie, CheckFilesystem: true, CheckDatabase: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Movies.Removed)
	_, err = store.GetMovie(ph)
	require.ErrorIs(t, err, library.ErrNotFound)
}

func TestRun_SeriesRemovalCascadesEpisodes(t *testing.T) {
	store := setupStore(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/tv/The Wire", 0o755))

	seedSeries(t, store, "tt0306414", "The Wire", 2002, "/tv/The Wire")
	seedSeries(t, store, "tt5753856", "Dark", 2017, "/tv/Dark")
	for i := 1; i <= 3; i++ {
		_, _, err := store.UpsertEpisode(&library.Episode{
			SeriesID: "tt5753856", Season: 1, Episode: i, Title: fmt.Sprintf("Episode %d", i),
		}, library.ActorPopulation)
		require.NoError(t, err)
	}

	eng := reconcile.New(store, testLogger(), reconcile.WithFs(fs))
	rep, err := eng.Run(context.Background(), reconcile.Options{
		MediaType: library.MediaTypeSeries, CheckFilesystem: true,
	})
	require.NoError(t, err)

	assert.Nil(t, rep.Movies)
	require.NotNil(t, rep.Series)
	assert.Equal(t, 2, rep.Series.Checked)
	assert.Equal(t, 1, rep.Series.Orphaned)
	assert.Equal(t, 1, rep.Series.Removed)
	assert.Equal(t, 3, rep.Series.RemovedEpisodes)
	assert.Equal(t, []string{"Dark (tt5753856) - 3 episodes"}, rep.Series.RemovedTitles)
	assert.Equal(t, 1, rep.TotalRemoved)

	_, err = store.GetSeries("tt5753856")
	require.ErrorIs(t, err, library.ErrNotFound)
	_, total, err := store.ListEpisodes(library.EpisodeFilter{SeriesID: ptr("tt5753856")})
	require.NoError(t, err)
	assert.Zero(t, total)
	_, err = store.GetSeries("tt0306414")
	require.NoError(t, err)
}

func TestRun_SeriesMembershipCheck(t *testing.T) {
	store := setupStore(t)
	seedSeries(t, store, "tt0306414", "The Wire", 2002, "")
	seedSeries(t, store, "tt0903747", "Breaking Bad", 2008, "")

	ctrl := gomock.NewController(t)
	sl := mocks.NewMockSeriesLibrary(ctrl)
	sl.EXPECT().Series(gomock.Any()).Return([]sonarr.Series{{IMDBID: "tt0306414", Title: "The Wire"}}, nil)

	eng := reconcile.New(store, testLogger(), reconcile.WithSeriesLibrary(sl))
	rep, err := eng.Run(context.Background(), reconcile.Options{
		MediaType: library.MediaTypeSeries, DryRun: true, CheckDatabase: true,
	})
	require.NoError(t, err)

	require.NotNil(t, rep.Series)
	assert.Equal(t, 1, rep.Series.Orphaned)
	assert.Equal(t, []string{"Breaking Bad (tt0903747) - 0 episodes"}, rep.Series.RemovedTitles)
	assert.Equal(t, map[string]int{"database": 1}, rep.Series.MissingReasons)
}

func TestRun_ListingFailureDisablesMembershipCheck(t *testing.T) {
	store := setupStore(t)
	seedMovie(t, store, "tt0000001", "Gone", 2000, "/movies/Gone (2000)")

	ctrl := gomock.NewController(t)
	ml := mocks.NewMockMovieLibrary(ctrl)
	ml.EXPECT().Movies(gomock.Any()).Return(nil, errors.New("radarr down"))

	eng := reconcile.New(store, testLogger(), reconcile.WithFs(afero.NewMemMapFs()), reconcile.WithMovieLibrary(ml))
	rep, err := eng.Run(context.Background(), reconcile.Options{
		MediaType: library.MediaTypeMovie, DryRun: true, CheckFilesystem: true, CheckDatabase: true,
	})
	require.NoError(t, err)

	// The file is gone, but with the listing unavailable a hybrid run
	// cannot prove the record orphaned on both counts.
	require.NotNil(t, rep.Movies)
	assert.Equal(t, 1, rep.Movies.Checked)
	assert.Zero(t, rep.Movies.Orphaned)
	assert.Zero(t, rep.Movies.Removed)
}

func TestRun_ListingFailureFatalWhenSoleCheck(t *testing.T) {
	store := setupStore(t)

	ctrl := gomock.NewController(t)
	ml := mocks.NewMockMovieLibrary(ctrl)
	ml.EXPECT().Movies(gomock.Any()).Return(nil, errors.New("radarr down"))

	eng := reconcile.New(store, testLogger(), reconcile.WithMovieLibrary(ml))
	rep, err := eng.Run(context.Background(), reconcile.Options{
		MediaType: library.MediaTypeMovie, CheckDatabase: true,
	})
	require.ErrorContains(t, err, "list radarr movies")
	require.NotNil(t, rep)
	assert.Nil(t, rep.Movies)
}

func TestRun_PathlessRecordSurvivesFilesystemCheck(t *testing.T) {
	store := setupStore(t)
	seedMovie(t, store, "tt0000007", "No Path", 2007, "")

	eng := reconcile.New(store, testLogger(), reconcile.WithFs(afero.NewMemMapFs()))
	rep, err := eng.Run(context.Background(), reconcile.Options{CheckFilesystem: true})
	require.NoError(t, err)

	require.NotNil(t, rep.Movies)
	assert.Equal(t, 1, rep.Movies.Checked)
	assert.Zero(t, rep.Movies.Orphaned)
}

func TestRun_EpisodeScopeCoversSeriesPass(t *testing.T) {
	store := setupStore(t)
	seedSeries(t, store, "tt0306414", "The Wire", 2002, "/tv/The Wire")

	eng := reconcile.New(store, testLogger(), reconcile.WithFs(afero.NewMemMapFs()))
	rep, err := eng.Run(context.Background(), reconcile.Options{
		MediaType: library.MediaTypeEpisode, DryRun: true, CheckFilesystem: true,
	})
	require.NoError(t, err)

	assert.Nil(t, rep.Movies)
	require.NotNil(t, rep.Series)
	assert.Equal(t, 1, rep.Series.Orphaned)
}

func TestRun_MembershipMatchesDerivedKeys(t *testing.T) {
	store := setupStore(t)
	seedMovie(t, store, "tt0113277", "Heat", 1995, "")
	seedMovie(t, store, "tmdb-603", "The Matrix", 1999, "")
	seedMovie(t, store, "tt9999999", "Vanished", 2009, "")

	ctrl := gomock.NewController(t)
	ml := mocks.NewMockMovieLibrary(ctrl)
	ml.EXPECT().Movies(gomock.Any()).Return([]radarr.Movie{
		{Title: "Heat", Path: "/movies/Heat (1995) [imdb-tt0113277]"},
		{Title: "The Matrix", TMDBID: 603},
	}, nil)

	eng := reconcile.New(store, testLogger(), reconcile.WithMovieLibrary(ml))
	rep, err := eng.Run(context.Background(), reconcile.Options{
		MediaType: library.MediaTypeMovie, DryRun: true, CheckDatabase: true,
	})
	require.NoError(t, err)

	// Listing entries count under any derivable identifier, not only an
	// explicit IMDb id.
	require.NotNil(t, rep.Movies)
	assert.Equal(t, 1, rep.Movies.Orphaned)
	assert.Equal(t, []string{"Vanished (tt9999999)"}, rep.Movies.RemovedTitles)
}

func TestRun_LiveRunPrunesMetadataCache(t *testing.T) {
	db := setupDB(t)
	store := library.NewStore(db)
	cache := metadata.NewCache(db)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "tmdb:releases:tt0000001", []byte(`{}`), -time.Hour))

	eng := reconcile.New(store, testLogger(), reconcile.WithFs(afero.NewMemMapFs()), reconcile.WithCache(cache))

	_, err := eng.Run(ctx, reconcile.Options{DryRun: true, CheckFilesystem: true})
	require.NoError(t, err)
	n, err := cache.Prune(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n) // dry run left the expired row alone

	require.NoError(t, cache.Set(ctx, "tmdb:releases:tt0000002", []byte(`{}`), -time.Hour))
	_, err = eng.Run(ctx, reconcile.Options{CheckFilesystem: true})
	require.NoError(t, err)
	n, err = cache.Prune(ctx)
	require.NoError(t, err)
	assert.Zero(t, n) // the live run already pruned
}
