// Package schedule maintains cron-driven job definitions and runs them.
// Jobs are stored rows, not code: a definition names a kind (scan or
// cleanup), a cron expression and a configuration payload, and the
// scheduler ticks over the table dispatching whatever is due. Every run
// leaves an execution row, created at start and sealed exactly once
// with its terminal status.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// JobKind selects which runner a job dispatches to.
type JobKind string

const (
	KindScan    JobKind = "scan"
	KindCleanup JobKind = "cleanup"
)

// ExecStatus is the lifecycle state of an execution.
type ExecStatus string

const (
	StatusRunning   ExecStatus = "running"
	StatusCompleted ExecStatus = "completed"
	StatusFailed    ExecStatus = "failed"
	StatusCanceled  ExecStatus = "canceled"
)

// Trigger provenance recorded on executions.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerAPI      = "api"
)

var (
	// ErrNotFound indicates the requested job or execution doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a job name collision.
	ErrDuplicate = errors.New("duplicate entry")

	// ErrInvalid indicates a job definition that fails validation.
	ErrInvalid = errors.New("invalid job")

	// ErrJobRunning indicates a dispatch was refused because an instance
	// of the job is still running.
	ErrJobRunning = errors.New("job already running")

	// ErrNotRunning indicates the scheduler loop is not active.
	ErrNotRunning = errors.New("scheduler not running")
)

// JobConfig is the kind-specific payload of a job definition. Scan jobs
// use MediaType, Paths and Full; cleanup jobs use MediaType, DryRun and
// the check toggles.
type JobConfig struct {
	MediaType       string   `json:"media_type,omitempty"`
	Paths           []string `json:"paths,omitempty"`
	Full            bool     `json:"full,omitempty"`
	DryRun          bool     `json:"dry_run,omitempty"`
	CheckFilesystem bool     `json:"check_filesystem,omitempty"`
	CheckDatabase   bool     `json:"check_database,omitempty"`
}

// Job is a stored schedule definition.
type Job struct {
	ID          int64
	Name        string
	Kind        JobKind
	Description string
	CronExpr    string
	Enabled     bool
	Config      JobConfig
	LastRunAt   *time.Time
	NextRunAt   *time.Time
	RunCount    int64
}

// Execution is one run of a job. JobID is nil for ad-hoc runs that were
// never tied to a definition, and survives as nil when the definition
// is later deleted.
type Execution struct {
	ID          int64
	JobID       *int64
	StartedAt   time.Time
	FinishedAt  *time.Time
	Status      ExecStatus
	Processed   int
	Skipped     int
	Failed      int
	Error       string
	Report      string
	TriggeredBy string
}

// Done reports whether the execution has reached a terminal status.
func (e *Execution) Done() bool { return e.Status != StatusRunning }

// NextRun computes the first fire time of a standard five-field cron
// expression (descriptors like @daily included) strictly after from.
func NextRun(expr string, from time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron %q: %w", expr, err)
	}
	return sched.Next(from), nil
}
