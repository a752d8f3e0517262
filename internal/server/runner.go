// Package server ties the daemon's long-running components together
// under one lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// Scheduler is the background job loop. Satisfied by
// *schedule.Scheduler.
type Scheduler interface {
	Run(ctx context.Context) error
}

// Config for the runner.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Runner manages the HTTP server and the scheduler loop. Either
// component failing stops the other; canceling the run context stops
// both cleanly.
type Runner struct {
	config  Config
	handler http.Handler
	sched   Scheduler
	logger  *slog.Logger
}

// NewRunner creates a new runner. The scheduler is optional; a nil
// scheduler runs the HTTP server alone.
func NewRunner(cfg Config, handler http.Handler, sched Scheduler, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	return &Runner{
		config:  cfg,
		handler: handler,
		sched:   sched,
		logger:  logger,
	}
}

// Run starts all components and blocks until the context is canceled
// or a component fails. A clean shutdown returns context.Canceled from
// the run context; callers treat that as success.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{Addr: r.config.Addr, Handler: r.handler}

	g.Go(func() error {
		r.logger.Info("http server listening", "addr", r.config.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Shutdown watcher: a canceled context drains in-flight requests
	// before ListenAndServe is allowed to return.
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), r.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return ctx.Err()
	})

	if r.sched != nil {
		g.Go(func() error {
			return r.sched.Run(ctx)
		})
	}

	return g.Wait()
}
