package schedule

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const jobColumns = "id, name, kind, description, cron_expr, enabled, config, last_run_at, next_run_at, run_count"

const executionColumns = "id, job_id, started_at, finished_at, status, processed, skipped, failed, error, report, triggered_by"

// Store persists job definitions and execution rows.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// mapError converts SQLite errors to the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	return err
}

func validateJob(j *Job) error {
	if j.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalid)
	}
	switch j.Kind {
	case KindScan, KindCleanup:
	default:
		return fmt.Errorf("%w kind %q", ErrInvalid, j.Kind)
	}
	return nil
}

// nextFor validates the cron expression and computes the next fire
// time. Disabled jobs carry no next run but still must parse.
func nextFor(j *Job) (*time.Time, error) {
	next, err := NextRun(j.CronExpr, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if !j.Enabled {
		return nil, nil
	}
	return &next, nil
}

func scanJob(row interface{ Scan(...any) error }) (*Job, error) {
	j := &Job{}
	var cfg string
	err := row.Scan(&j.ID, &j.Name, &j.Kind, &j.Description, &j.CronExpr, &j.Enabled,
		&cfg, &j.LastRunAt, &j.NextRunAt, &j.RunCount)
	if err != nil {
		return nil, err
	}
	if cfg != "" {
		if err := json.Unmarshal([]byte(cfg), &j.Config); err != nil {
			return nil, fmt.Errorf("decode job config: %w", err)
		}
	}
	return j, nil
}

// CreateJob inserts a job definition, computing its next run time.
// Returns ErrDuplicate when the name is taken.
func (s *Store) CreateJob(j *Job) error {
	if err := validateJob(j); err != nil {
		return err
	}
	next, err := nextFor(j)
	if err != nil {
		return err
	}
	j.NextRunAt = next

	cfg, err := json.Marshal(j.Config)
	if err != nil {
		return fmt.Errorf("encode job config: %w", err)
	}
	result, err := s.db.Exec(`
		INSERT INTO scheduled_jobs (name, kind, description, cron_expr, enabled, config, next_run_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		j.Name, j.Kind, j.Description, j.CronExpr, j.Enabled, string(cfg), j.NextRunAt,
	)
	if err != nil {
		return fmt.Errorf("insert job %q: %w", j.Name, mapError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	j.ID = id
	return nil
}

// GetJob retrieves a job by id.
// Returns ErrNotFound if the job does not exist.
func (s *Store) GetJob(id int64) (*Job, error) {
	j, err := scanJob(s.db.QueryRow(
		"SELECT "+jobColumns+" FROM scheduled_jobs WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", id, mapError(err))
	}
	return j, nil
}

// GetJobByName retrieves a job by its unique name.
func (s *Store) GetJobByName(name string) (*Job, error) {
	j, err := scanJob(s.db.QueryRow(
		"SELECT "+jobColumns+" FROM scheduled_jobs WHERE name = ?", name))
	if err != nil {
		return nil, fmt.Errorf("get job %q: %w", name, mapError(err))
	}
	return j, nil
}

// ListJobs returns every job definition ordered by id.
func (s *Store) ListJobs() ([]*Job, error) {
	rows, err := s.db.Query("SELECT " + jobColumns + " FROM scheduled_jobs ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		results = append(results, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return results, nil
}

// UpdateJob rewrites a job definition by id and recomputes its next
// run time from the (possibly changed) cron expression and enabled
// flag.
func (s *Store) UpdateJob(j *Job) error {
	if err := validateJob(j); err != nil {
		return err
	}
	next, err := nextFor(j)
	if err != nil {
		return err
	}
	j.NextRunAt = next

	cfg, err := json.Marshal(j.Config)
	if err != nil {
		return fmt.Errorf("encode job config: %w", err)
	}
	result, err := s.db.Exec(`
		UPDATE scheduled_jobs
		SET name = ?, kind = ?, description = ?, cron_expr = ?, enabled = ?, config = ?, next_run_at = ?
		WHERE id = ?`,
		j.Name, j.Kind, j.Description, j.CronExpr, j.Enabled, string(cfg), j.NextRunAt, j.ID,
	)
	if err != nil {
		return fmt.Errorf("update job %d: %w", j.ID, mapError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update job %d: %w", j.ID, ErrNotFound)
	}
	return nil
}

// SetJobEnabled flips the enabled flag, recomputing the next run time.
// A no-op flip is suppressed.
func (s *Store) SetJobEnabled(id int64, enabled bool) (*Job, error) {
	j, err := s.GetJob(id)
	if err != nil {
		return nil, err
	}
	if j.Enabled == enabled {
		return j, nil
	}
	j.Enabled = enabled
	if err := s.UpdateJob(j); err != nil {
		return nil, err
	}
	return j, nil
}

// DeleteJob removes a job definition. Its execution rows survive with
// a null job id.
func (s *Store) DeleteJob(id int64) error {
	result, err := s.db.Exec("DELETE FROM scheduled_jobs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete job %d: %w", id, mapError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete job %d: %w", id, ErrNotFound)
	}
	return nil
}

// Due returns enabled jobs whose next run time has arrived, soonest
// first.
func (s *Store) Due(now time.Time) ([]*Job, error) {
	rows, err := s.db.Query(`
		SELECT `+jobColumns+` FROM scheduled_jobs
		WHERE enabled = 1 AND next_run_at IS NOT NULL AND next_run_at <= ?
		ORDER BY next_run_at`, now)
	if err != nil {
		return nil, fmt.Errorf("due jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		results = append(results, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return results, nil
}

// MarkJobRun stamps a dispatch: last run time, the recomputed next run
// time and the run counter.
func (s *Store) MarkJobRun(id int64, lastRun time.Time, next *time.Time) error {
	result, err := s.db.Exec(`
		UPDATE scheduled_jobs
		SET last_run_at = ?, next_run_at = ?, run_count = run_count + 1
		WHERE id = ?`,
		lastRun, next, id,
	)
	if err != nil {
		return fmt.Errorf("mark job run %d: %w", id, mapError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("mark job run %d: %w", id, ErrNotFound)
	}
	return nil
}

// AdvanceJob moves the next run time without counting a run, dropping
// the current occurrence.
func (s *Store) AdvanceJob(id int64, next *time.Time) error {
	if _, err := s.db.Exec(
		"UPDATE scheduled_jobs SET next_run_at = ? WHERE id = ?", next, id,
	); err != nil {
		return fmt.Errorf("advance job %d: %w", id, mapError(err))
	}
	return nil
}

func scanExecution(row interface{ Scan(...any) error }) (*Execution, error) {
	e := &Execution{}
	err := row.Scan(&e.ID, &e.JobID, &e.StartedAt, &e.FinishedAt, &e.Status,
		&e.Processed, &e.Skipped, &e.Failed, &e.Error, &e.Report, &e.TriggeredBy)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// StartExecution inserts a running execution row.
func (s *Store) StartExecution(e *Execution) error {
	now := time.Now().UTC()
	if e.TriggeredBy == "" {
		e.TriggeredBy = TriggerSchedule
	}
	result, err := s.db.Exec(`
		INSERT INTO job_executions (job_id, started_at, status, triggered_by)
		VALUES (?, ?, ?, ?)`,
		e.JobID, now, StatusRunning, e.TriggeredBy,
	)
	if err != nil {
		return fmt.Errorf("insert execution: %w", mapError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	e.ID = id
	e.StartedAt = now
	e.Status = StatusRunning
	return nil
}

// SealExecution finalizes a running execution with its terminal status
// and the counts, error and report carried on e. Sealing is guarded so
// a terminal row is never rewritten; a second seal returns ErrNotFound.
func (s *Store) SealExecution(e *Execution, status ExecStatus) error {
	now := time.Now().UTC()
	result, err := s.db.Exec(`
		UPDATE job_executions
		SET finished_at = ?, status = ?, processed = ?, skipped = ?, failed = ?, error = ?, report = ?
		WHERE id = ? AND status = ?`,
		now, status, e.Processed, e.Skipped, e.Failed, e.Error, e.Report, e.ID, StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("seal execution %d: %w", e.ID, mapError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("seal execution %d: %w", e.ID, ErrNotFound)
	}
	e.FinishedAt = &now
	e.Status = status
	return nil
}

// GetExecution retrieves an execution by id.
// Returns ErrNotFound if the execution does not exist.
func (s *Store) GetExecution(id int64) (*Execution, error) {
	e, err := scanExecution(s.db.QueryRow(
		"SELECT "+executionColumns+" FROM job_executions WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("get execution %d: %w", id, mapError(err))
	}
	return e, nil
}

// ExecutionFilter specifies criteria for listing executions.
type ExecutionFilter struct {
	JobID  *int64
	Status *ExecStatus
	Limit  int
	Offset int
}

// ListExecutions returns execution rows matching the filter, newest
// first. Returns (results, totalCount, error).
func (s *Store) ListExecutions(f ExecutionFilter) ([]*Execution, int, error) {
	var conditions []string
	var args []any

	if f.JobID != nil {
		conditions = append(conditions, "job_id = ?")
		args = append(args, *f.JobID)
	}
	if f.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *f.Status)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM job_executions "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count executions: %w", err)
	}

	query := "SELECT " + executionColumns + " FROM job_executions " + whereClause + " ORDER BY id DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan execution: %w", err)
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate executions: %w", err)
	}
	return results, total, nil
}

// Seed installs the built-in job definitions when the table is empty.
// Both ship disabled; enabling them is an operator decision.
func (s *Store) Seed() error {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM scheduled_jobs").Scan(&n); err != nil {
		return fmt.Errorf("count jobs: %w", err)
	}
	if n > 0 {
		return nil
	}
	seeds := []*Job{
		{
			Name:        "nightly-scan",
			Kind:        KindScan,
			Description: "Populate added dates for new library items",
			CronExpr:    "0 3 * * *",
		},
		{
			Name:        "weekly-cleanup",
			Kind:        KindCleanup,
			Description: "Dry-run orphan report",
			CronExpr:    "0 4 * * 0",
			Config: JobConfig{
				DryRun:          true,
				CheckFilesystem: true,
				CheckDatabase:   true,
			},
		},
	}
	for _, j := range seeds {
		if err := s.CreateJob(j); err != nil {
			return err
		}
	}
	return nil
}
