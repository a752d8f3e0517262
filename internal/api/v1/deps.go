package v1

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vmunix/datarr/internal/ingest"
	"github.com/vmunix/datarr/internal/library"
	"github.com/vmunix/datarr/internal/reconcile"
	"github.com/vmunix/datarr/internal/schedule"
)

// Dispatcher hands work to the scheduler's workers: stored jobs by ID,
// population and cleanup passes ad hoc. Satisfied by *schedule.Scheduler.
type Dispatcher interface {
	RunNow(jobID int64, trigger string) (int64, error)
	RunAdhoc(kind schedule.JobKind, cfg schedule.JobConfig, trigger string) (int64, error)
}

// Cleaner runs a reconciliation pass in-process. Only dry runs go
// through it; live cleanups are dispatched to the scheduler so they
// leave an execution record.
type Cleaner interface {
	Run(ctx context.Context, opts reconcile.Options) (*reconcile.Report, error)
}

// ServerDeps contains all dependencies for the API server.
// Required dependencies must be non-nil; optional dependencies may be nil.
type ServerDeps struct {
	// Required dependencies
	DB      *sql.DB
	Library *library.Store
	Ingest  *ingest.Ingestor
	Jobs    *schedule.Store

	// Optional dependencies (nil if not configured)
	Dispatch Dispatcher
	Cleaner  Cleaner
}

// Validate checks that all required dependencies are provided.
func (d ServerDeps) Validate() error {
	if d.DB == nil {
		return errors.New("database handle is required")
	}
	if d.Library == nil {
		return errors.New("library store is required")
	}
	if d.Ingest == nil {
		return errors.New("ingestor is required")
	}
	if d.Jobs == nil {
		return errors.New("job store is required")
	}
	return nil
}
