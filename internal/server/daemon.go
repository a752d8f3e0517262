package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/natefinch/lumberjack.v2"
	_ "modernc.org/sqlite"

	v1 "github.com/vmunix/datarr/internal/api/v1"
	"github.com/vmunix/datarr/internal/arrdb"
	"github.com/vmunix/datarr/internal/config"
	"github.com/vmunix/datarr/internal/ingest"
	"github.com/vmunix/datarr/internal/library"
	"github.com/vmunix/datarr/internal/metadata"
	"github.com/vmunix/datarr/internal/migrations"
	"github.com/vmunix/datarr/internal/omdb"
	"github.com/vmunix/datarr/internal/populate"
	"github.com/vmunix/datarr/internal/radarr"
	"github.com/vmunix/datarr/internal/reconcile"
	"github.com/vmunix/datarr/internal/schedule"
	"github.com/vmunix/datarr/internal/sonarr"
	"github.com/vmunix/datarr/internal/tmdb"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(cfg config.LogConfig) *slog.Logger {
	var out io.Writer = os.Stderr
	if cfg.File != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		})
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Level),
	}))
}

// scanService runs one population pass. Satisfied by *populate.Orchestrator.
type scanService interface {
	Run(ctx context.Context, opts populate.Options) (*populate.Report, error)
}

// cleanupService runs one reconciliation pass. Satisfied by *reconcile.Engine.
type cleanupService interface {
	Run(ctx context.Context, opts reconcile.Options) (*reconcile.Report, error)
}

// scanRunner adapts a population pass to a scheduled execution.
func scanRunner(svc scanService) schedule.Runner {
	return func(ctx context.Context, cfg schedule.JobConfig) (*schedule.Outcome, error) {
		rep, err := svc.Run(ctx, populate.Options{
			MediaType: library.MediaType(cfg.MediaType),
			Paths:     cfg.Paths,
			Full:      cfg.Full,
		})
		if rep == nil {
			return nil, err
		}
		out := &schedule.Outcome{Report: rep}
		if rep.Movies != nil {
			out.Processed += rep.Movies.Added + rep.Movies.Updated
			out.Skipped += rep.Movies.Skipped
			out.Failed += rep.Movies.Errors
		}
		if rep.TV != nil {
			out.Processed += rep.TV.Added + rep.TV.Updated
			out.Skipped += rep.TV.Skipped
			out.Failed += rep.TV.Errors
		}
		return out, err
	}
}

// cleanupRunner adapts a reconciliation pass to a scheduled execution.
// Processed counts removals (or would-be removals on a dry run); the
// per-type breakdown rides in the report.
func cleanupRunner(svc cleanupService) schedule.Runner {
	return func(ctx context.Context, cfg schedule.JobConfig) (*schedule.Outcome, error) {
		rep, err := svc.Run(ctx, reconcile.Options{
			MediaType:       library.MediaType(cfg.MediaType),
			DryRun:          cfg.DryRun,
			CheckFilesystem: cfg.CheckFilesystem,
			CheckDatabase:   cfg.CheckDatabase,
		})
		if rep == nil {
			return nil, err
		}
		return &schedule.Outcome{Processed: rep.TotalRemoved, Report: rep}, err
	}
}

// openManagerDB opens the optional direct database channel of one
// manager and verifies it answers. A configured DSN that cannot be
// reached fails startup rather than silently degrading the date
// source priority.
func openManagerDB(mc *config.ManagerConfig, name string, logger *slog.Logger) (*sql.DB, error) {
	if mc == nil || mc.Database == nil {
		return nil, nil
	}
	db, err := arrdb.Open(mc.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s db: %w", name, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s db ping: %w", name, err)
	}

	logger.Info("manager database connected", "manager", name)
	return db, nil
}

// Run is the daemon entry point: it loads configuration, wires every
// configured component, and blocks until SIGINT/SIGTERM. Both datarrd
// and "datarr serve" land here.
func Run(configPath, version string) error {
	// Locate and load config
	if configPath == "" {
		found, err := config.Discover()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		configPath = found
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := buildLogger(cfg.Log)

	// Ensure database directory exists
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	// Single-instance lock: two daemons sharing a database would race
	// the scheduler.
	lock := flock.New(filepath.Join(dbDir, "datarrd.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another datarrd instance is already running")
	}
	defer func() { _ = lock.Unlock() }()

	// Open database
	dsn := "file:" + cfg.Database.Path +
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	// Run migrations
	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// === Stores (always created) ===
	libraryStore := library.NewStore(db)
	jobStore := schedule.NewStore(db)
	cache := metadata.NewCache(db)

	// === Clients (optional - nil if not configured) ===
	var radarrClient *radarr.Client
	if cfg.Radarr != nil {
		radarrClient = radarr.NewClient(cfg.Radarr.URL, cfg.Radarr.APIKey)
	}

	var sonarrClient *sonarr.Client
	if cfg.Sonarr != nil {
		sonarrClient = sonarr.NewClient(cfg.Sonarr.URL, cfg.Sonarr.APIKey)
	}

	radarrDB, err := openManagerDB(cfg.Radarr, "radarr", logger)
	if err != nil {
		return err
	}
	if radarrDB != nil {
		defer func() { _ = radarrDB.Close() }()
	}

	sonarrDB, err := openManagerDB(cfg.Sonarr, "sonarr", logger)
	if err != nil {
		return err
	}
	if sonarrDB != nil {
		defer func() { _ = sonarrDB.Close() }()
	}

	var tmdbClient *tmdb.Client
	if cfg.TMDB != nil {
		opts := []tmdb.Option{}
		if cfg.TMDB.Region != "" {
			opts = append(opts, tmdb.WithRegion(cfg.TMDB.Region))
		}
		tmdbClient = tmdb.NewClient(cfg.TMDB.APIKey, opts...)
	}

	var omdbClient *omdb.Client
	if cfg.OMDb != nil {
		omdbClient = omdb.NewClient(cfg.OMDb.APIKey)
	}

	var releases *metadata.Provider
	if tmdbClient != nil || omdbClient != nil {
		releases = metadata.NewProvider(tmdbClient, omdbClient, cache, logger.With("component", "metadata"))
	}

	// === Services ===
	ingestOpts := []ingest.Option{}
	if sonarrClient != nil {
		ingestOpts = append(ingestOpts, ingest.WithSeriesLibrary(sonarrClient))
	}
	ingestor := ingest.New(libraryStore, logger, ingestOpts...)

	populateOpts := []populate.Option{}
	if radarrClient != nil {
		populateOpts = append(populateOpts, populate.WithMovieLibrary(radarrClient))
	}
	if sonarrClient != nil {
		populateOpts = append(populateOpts, populate.WithSeriesLibrary(sonarrClient))
	}
	if radarrDB != nil {
		populateOpts = append(populateOpts, populate.WithMovieHistory(arrdb.NewRadarrDB(radarrDB)))
	}
	if sonarrDB != nil {
		populateOpts = append(populateOpts, populate.WithEpisodeHistory(arrdb.NewSonarrDB(sonarrDB)))
	}
	if releases != nil {
		populateOpts = append(populateOpts, populate.WithReleaseDates(releases))
	}
	if cfg.Populate.LookupLimit > 0 {
		populateOpts = append(populateOpts, populate.WithLookupLimit(cfg.Populate.LookupLimit))
	}
	orchestrator := populate.New(libraryStore, logger, populateOpts...)

	reconcileOpts := []reconcile.Option{reconcile.WithCache(cache)}
	if radarrClient != nil {
		reconcileOpts = append(reconcileOpts, reconcile.WithMovieLibrary(radarrClient))
	}
	if sonarrClient != nil {
		reconcileOpts = append(reconcileOpts, reconcile.WithSeriesLibrary(sonarrClient))
	}
	engine := reconcile.New(libraryStore, logger, reconcileOpts...)

	// === Scheduler ===
	if err := jobStore.Seed(); err != nil {
		return fmt.Errorf("seed jobs: %w", err)
	}
	sched := schedule.New(jobStore, logger,
		schedule.WithRunner(schedule.KindScan, scanRunner(orchestrator)),
		schedule.WithRunner(schedule.KindCleanup, cleanupRunner(engine)),
	)

	// === HTTP Setup ===
	mux := http.NewServeMux()

	api, err := v1.New(v1.ServerDeps{
		DB:       db,
		Library:  libraryStore,
		Ingest:   ingestor,
		Jobs:     jobStore,
		Dispatch: sched,
		Cleaner:  engine,
	}, v1.Config{Version: version})
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}
	api.RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting",
		"addr", addr,
		"database", cfg.Database.Path,
		"radarr", radarrClient != nil,
		"sonarr", sonarrClient != nil,
		"radarr_db", radarrDB != nil,
		"sonarr_db", sonarrDB != nil,
		"tmdb", tmdbClient != nil,
		"omdb", omdbClient != nil,
		"log_level", cfg.Log.Level,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := logRequests(requestID(mux), logger)
	runner := NewRunner(Config{Addr: addr}, handler, sched, logger)

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("server stopped")
	return nil
}
