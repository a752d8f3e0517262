package schedule_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vmunix/datarr/internal/migrations"
	"github.com/vmunix/datarr/internal/schedule"
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

func setupStore(t *testing.T) *schedule.Store {
	t.Helper()
	return schedule.NewStore(setupDB(t))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

// startScheduler runs the loop in the background and returns a stop
// function that cancels it and waits for in-flight work to settle.
func startScheduler(t *testing.T, s *schedule.Scheduler) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	var once sync.Once
	stop = func() {
		once.Do(func() {
			cancel()
			select {
			case err := <-errCh:
				require.ErrorIs(t, err, context.Canceled)
			case <-time.After(5 * time.Second):
				t.Fatal("scheduler did not stop")
			}
		})
	}
	t.Cleanup(stop)
	return stop
}

// runNow dispatches a job, retrying while the loop goroutine is still
// starting up.
func runNow(t *testing.T, s *schedule.Scheduler, jobID int64, trigger string) (int64, error) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		id, err := s.RunNow(jobID, trigger)
		if !errors.Is(err, schedule.ErrNotRunning) {
			return id, err
		}
		if time.Now().After(deadline) {
			t.Fatal("scheduler did not start")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// runAdhoc mirrors runNow for executions with no stored definition.
func runAdhoc(t *testing.T, s *schedule.Scheduler, kind schedule.JobKind, cfg schedule.JobConfig, trigger string) (int64, error) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		id, err := s.RunAdhoc(kind, cfg, trigger)
		if !errors.Is(err, schedule.ErrNotRunning) {
			return id, err
		}
		if time.Now().After(deadline) {
			t.Fatal("scheduler did not start")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func waitDone(t *testing.T, store *schedule.Store, execID int64) *schedule.Execution {
	t.Helper()
	var last *schedule.Execution
	require.Eventually(t, func() bool {
		e, err := store.GetExecution(execID)
		if err != nil {
			return false
		}
		last = e
		return e.Done()
	}, 5*time.Second, 5*time.Millisecond)
	return last
}

func TestNextRun(t *testing.T) {
	from := time.Date(2026, 3, 10, 1, 30, 0, 0, time.UTC)

	next, err := schedule.NextRun("0 3 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC), next)

	// Strictly after: the fire time itself rolls to the next day.
	next, err = schedule.NextRun("0 3 * * *", next)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC), next)

	next, err = schedule.NextRun("@daily", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), next)

	_, err = schedule.NextRun("not a cron", from)
	require.ErrorContains(t, err, `parse cron "not a cron"`)
}

func TestCreateJob(t *testing.T) {
	store := setupStore(t)

	j := &schedule.Job{
		Name:     "nightly",
		Kind:     schedule.KindScan,
		CronExpr: "0 3 * * *",
		Enabled:  true,
		Config:   schedule.JobConfig{MediaType: "movie", Paths: []string{"/movies"}},
	}
	require.NoError(t, store.CreateJob(j))
	assert.NotZero(t, j.ID)
	require.NotNil(t, j.NextRunAt)
	assert.True(t, j.NextRunAt.After(time.Now().UTC()))

	got, err := store.GetJobByName("nightly")
	require.NoError(t, err)
	assert.Equal(t, j.ID, got.ID)
	assert.Equal(t, schedule.KindScan, got.Kind)
	assert.Equal(t, schedule.JobConfig{MediaType: "movie", Paths: []string{"/movies"}}, got.Config)
	require.NotNil(t, got.NextRunAt)
	assert.Nil(t, got.LastRunAt)
	assert.Zero(t, got.RunCount)

	// Disabled jobs still parse their cron but carry no next run.
	off := &schedule.Job{Name: "weekly", Kind: schedule.KindCleanup, CronExpr: "0 4 * * 0"}
	require.NoError(t, store.CreateJob(off))
	assert.Nil(t, off.NextRunAt)

	err = store.CreateJob(&schedule.Job{Name: "nightly", Kind: schedule.KindScan, CronExpr: "0 3 * * *"})
	require.ErrorIs(t, err, schedule.ErrDuplicate)
}

func TestCreateJobValidation(t *testing.T) {
	store := setupStore(t)

	err := store.CreateJob(&schedule.Job{Kind: schedule.KindScan, CronExpr: "0 3 * * *"})
	require.ErrorIs(t, err, schedule.ErrInvalid)
	require.EqualError(t, err, "invalid job: name is empty")

	err = store.CreateJob(&schedule.Job{Name: "x", Kind: "prune", CronExpr: "0 3 * * *"})
	require.ErrorIs(t, err, schedule.ErrInvalid)
	require.EqualError(t, err, `invalid job kind "prune"`)

	err = store.CreateJob(&schedule.Job{Name: "x", Kind: schedule.KindScan, CronExpr: "61 * * * *"})
	require.ErrorIs(t, err, schedule.ErrInvalid)
	require.ErrorContains(t, err, `parse cron "61 * * * *"`)
}

func TestUpdateJob(t *testing.T) {
	store := setupStore(t)

	j := &schedule.Job{Name: "nightly", Kind: schedule.KindScan, CronExpr: "0 3 * * *", Enabled: true}
	require.NoError(t, store.CreateJob(j))
	first := *j.NextRunAt

	j.Description = "full library sweep"
	j.CronExpr = "30 5 * * *"
	j.Config.Full = true
	require.NoError(t, store.UpdateJob(j))

	got, err := store.GetJob(j.ID)
	require.NoError(t, err)
	assert.Equal(t, "full library sweep", got.Description)
	assert.Equal(t, "30 5 * * *", got.CronExpr)
	assert.True(t, got.Config.Full)
	require.NotNil(t, got.NextRunAt)
	assert.False(t, got.NextRunAt.Equal(first))

	missing := &schedule.Job{ID: 99, Name: "ghost", Kind: schedule.KindScan, CronExpr: "0 3 * * *"}
	require.ErrorIs(t, store.UpdateJob(missing), schedule.ErrNotFound)
}

func TestSetJobEnabled(t *testing.T) {
	store := setupStore(t)

	j := &schedule.Job{Name: "weekly", Kind: schedule.KindCleanup, CronExpr: "0 4 * * 0"}
	require.NoError(t, store.CreateJob(j))
	assert.Nil(t, j.NextRunAt)

	on, err := store.SetJobEnabled(j.ID, true)
	require.NoError(t, err)
	assert.True(t, on.Enabled)
	require.NotNil(t, on.NextRunAt)

	same, err := store.SetJobEnabled(j.ID, true)
	require.NoError(t, err)
	assert.True(t, same.Enabled)

	off, err := store.SetJobEnabled(j.ID, false)
	require.NoError(t, err)
	assert.False(t, off.Enabled)
	assert.Nil(t, off.NextRunAt)

	got, err := store.GetJob(j.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.Nil(t, got.NextRunAt)

	_, err = store.SetJobEnabled(99, true)
	require.ErrorIs(t, err, schedule.ErrNotFound)
}

func TestDeleteJobKeepsExecutions(t *testing.T) {
	store := setupStore(t)

	j := &schedule.Job{Name: "nightly", Kind: schedule.KindScan, CronExpr: "0 3 * * *", Enabled: true}
	require.NoError(t, store.CreateJob(j))

	exec := &schedule.Execution{JobID: &j.ID, TriggeredBy: schedule.TriggerManual}
	require.NoError(t, store.StartExecution(exec))
	require.NoError(t, store.SealExecution(exec, schedule.StatusCompleted))

	require.NoError(t, store.DeleteJob(j.ID))
	_, err := store.GetJob(j.ID)
	require.ErrorIs(t, err, schedule.ErrNotFound)

	// The run record survives, detached from its definition.
	got, err := store.GetExecution(exec.ID)
	require.NoError(t, err)
	assert.Nil(t, got.JobID)
	assert.Equal(t, schedule.StatusCompleted, got.Status)

	require.ErrorIs(t, store.DeleteJob(j.ID), schedule.ErrNotFound)
}

func TestDue(t *testing.T) {
	store := setupStore(t)
	now := time.Now().UTC()

	mk := func(name string, enabled bool) *schedule.Job {
		j := &schedule.Job{Name: name, Kind: schedule.KindScan, CronExpr: "0 3 * * *", Enabled: enabled}
		require.NoError(t, store.CreateJob(j))
		return j
	}
	older := mk("older", true)
	newer := mk("newer", true)
	mk("future", true)
	disabled := mk("disabled", false)

	require.NoError(t, store.AdvanceJob(older.ID, ptr(now.Add(-2*time.Hour))))
	require.NoError(t, store.AdvanceJob(newer.ID, ptr(now.Add(-time.Hour))))
	require.NoError(t, store.AdvanceJob(disabled.ID, ptr(now.Add(-time.Hour))))

	due, err := store.Due(now)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "older", due[0].Name)
	assert.Equal(t, "newer", due[1].Name)
}

func TestMarkJobRun(t *testing.T) {
	store := setupStore(t)

	j := &schedule.Job{Name: "nightly", Kind: schedule.KindScan, CronExpr: "0 3 * * *", Enabled: true}
	require.NoError(t, store.CreateJob(j))

	ran := time.Now().UTC()
	next := ran.Add(24 * time.Hour)
	require.NoError(t, store.MarkJobRun(j.ID, ran, &next))
	require.NoError(t, store.MarkJobRun(j.ID, ran.Add(time.Minute), nil))

	got, err := store.GetJob(j.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.RunCount)
	require.NotNil(t, got.LastRunAt)
	assert.WithinDuration(t, ran.Add(time.Minute), *got.LastRunAt, time.Second)
	assert.Nil(t, got.NextRunAt)

	require.ErrorIs(t, store.MarkJobRun(99, ran, nil), schedule.ErrNotFound)
}

func TestExecutionLifecycle(t *testing.T) {
	store := setupStore(t)

	j := &schedule.Job{Name: "nightly", Kind: schedule.KindScan, CronExpr: "0 3 * * *", Enabled: true}
	require.NoError(t, store.CreateJob(j))

	exec := &schedule.Execution{JobID: &j.ID}
	require.NoError(t, store.StartExecution(exec))
	assert.NotZero(t, exec.ID)
	assert.Equal(t, schedule.StatusRunning, exec.Status)
	assert.Equal(t, schedule.TriggerSchedule, exec.TriggeredBy)
	assert.False(t, exec.Done())

	exec.Processed = 12
	exec.Skipped = 3
	exec.Report = `{"added":12}`
	require.NoError(t, store.SealExecution(exec, schedule.StatusCompleted))
	assert.True(t, exec.Done())
	require.NotNil(t, exec.FinishedAt)

	got, err := store.GetExecution(exec.ID)
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusCompleted, got.Status)
	assert.Equal(t, 12, got.Processed)
	assert.Equal(t, 3, got.Skipped)
	assert.Equal(t, `{"added":12}`, got.Report)
	require.NotNil(t, got.JobID)
	assert.Equal(t, j.ID, *got.JobID)

	// A terminal row is never rewritten.
	exec.Processed = 99
	require.ErrorIs(t, store.SealExecution(exec, schedule.StatusFailed), schedule.ErrNotFound)
	got, err = store.GetExecution(exec.ID)
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusCompleted, got.Status)
	assert.Equal(t, 12, got.Processed)

	// Ad-hoc runs carry no definition.
	adhoc := &schedule.Execution{TriggeredBy: schedule.TriggerAPI}
	require.NoError(t, store.StartExecution(adhoc))
	got, err = store.GetExecution(adhoc.ID)
	require.NoError(t, err)
	assert.Nil(t, got.JobID)
	assert.Equal(t, schedule.TriggerAPI, got.TriggeredBy)

	_, err = store.GetExecution(999)
	require.ErrorIs(t, err, schedule.ErrNotFound)
}

func TestListExecutions(t *testing.T) {
	store := setupStore(t)

	a := &schedule.Job{Name: "a", Kind: schedule.KindScan, CronExpr: "0 3 * * *"}
	require.NoError(t, store.CreateJob(a))
	b := &schedule.Job{Name: "b", Kind: schedule.KindCleanup, CronExpr: "0 4 * * 0"}
	require.NoError(t, store.CreateJob(b))

	seal := func(jobID *int64, status schedule.ExecStatus) {
		e := &schedule.Execution{JobID: jobID}
		require.NoError(t, store.StartExecution(e))
		require.NoError(t, store.SealExecution(e, status))
	}
	seal(&a.ID, schedule.StatusCompleted)
	seal(&a.ID, schedule.StatusFailed)
	seal(&b.ID, schedule.StatusCompleted)
	running := &schedule.Execution{JobID: &b.ID}
	require.NoError(t, store.StartExecution(running))

	all, total, err := store.ListExecutions(schedule.ExecutionFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, all, 4)
	assert.Equal(t, running.ID, all[0].ID)

	forA, total, err := store.ListExecutions(schedule.ExecutionFilter{JobID: &a.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, forA, 2)

	failed, total, err := store.ListExecutions(schedule.ExecutionFilter{Status: ptr(schedule.StatusFailed)})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, failed, 1)
	assert.Equal(t, schedule.StatusFailed, failed[0].Status)

	page, total, err := store.ListExecutions(schedule.ExecutionFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, page, 2)
	assert.Greater(t, page[0].ID, page[1].ID)
}

func TestSeed(t *testing.T) {
	store := setupStore(t)

	require.NoError(t, store.Seed())
	require.NoError(t, store.Seed())

	jobs, err := store.ListJobs()
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	scan, err := store.GetJobByName("nightly-scan")
	require.NoError(t, err)
	assert.Equal(t, schedule.KindScan, scan.Kind)
	assert.False(t, scan.Enabled)
	assert.Nil(t, scan.NextRunAt)

	cleanup, err := store.GetJobByName("weekly-cleanup")
	require.NoError(t, err)
	assert.Equal(t, schedule.KindCleanup, cleanup.Kind)
	assert.False(t, cleanup.Enabled)
	assert.True(t, cleanup.Config.DryRun)
	assert.True(t, cleanup.Config.CheckFilesystem)
	assert.True(t, cleanup.Config.CheckDatabase)

	// A populated table is left alone.
	other := setupStore(t)
	require.NoError(t, other.CreateJob(&schedule.Job{Name: "mine", Kind: schedule.KindScan, CronExpr: "0 6 * * *"}))
	require.NoError(t, other.Seed())
	jobs, err = other.ListJobs()
	require.NoError(t, err)
	require.Len(t, jobs, 1)
}

func TestScheduler_RunsDueJob(t *testing.T) {
	store := setupStore(t)

	j := &schedule.Job{
		Name: "nightly", Kind: schedule.KindScan, CronExpr: "0 3 * * *", Enabled: true,
		Config: schedule.JobConfig{MediaType: "movie", Full: true},
	}
	require.NoError(t, store.CreateJob(j))
	require.NoError(t, store.AdvanceJob(j.ID, ptr(time.Now().UTC().Add(-time.Minute))))

	got := make(chan schedule.JobConfig, 1)
	runner := func(ctx context.Context, cfg schedule.JobConfig) (*schedule.Outcome, error) {
		got <- cfg
		return &schedule.Outcome{Processed: 3, Skipped: 1, Report: map[string]int{"added": 3}}, nil
	}
	s := schedule.New(store, testLogger(),
		schedule.WithRunner(schedule.KindScan, runner),
		schedule.WithInterval(time.Hour))
	stop := startScheduler(t, s)

	select {
	case cfg := <-got:
		assert.Equal(t, "movie", cfg.MediaType)
		assert.True(t, cfg.Full)
	case <-time.After(5 * time.Second):
		t.Fatal("runner never ran")
	}
	stop()

	execs, total, err := store.ListExecutions(schedule.ExecutionFilter{JobID: &j.ID})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	e := execs[0]
	assert.Equal(t, schedule.StatusCompleted, e.Status)
	assert.Equal(t, 3, e.Processed)
	assert.Equal(t, 1, e.Skipped)
	assert.JSONEq(t, `{"added":3}`, e.Report)
	assert.Equal(t, schedule.TriggerSchedule, e.TriggeredBy)
	require.NotNil(t, e.FinishedAt)

	after, err := store.GetJob(j.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, after.RunCount)
	require.NotNil(t, after.LastRunAt)
	require.NotNil(t, after.NextRunAt)
	assert.True(t, after.NextRunAt.After(*after.LastRunAt))
}

func TestScheduler_RunnerFailure(t *testing.T) {
	store := setupStore(t)

	j := &schedule.Job{Name: "nightly", Kind: schedule.KindScan, CronExpr: "0 3 * * *", Enabled: true}
	require.NoError(t, store.CreateJob(j))

	runner := func(ctx context.Context, cfg schedule.JobConfig) (*schedule.Outcome, error) {
		// Partial progress before the failure still gets recorded.
		return &schedule.Outcome{Processed: 2, Failed: 5}, errors.New("radarr unavailable")
	}
	s := schedule.New(store, testLogger(),
		schedule.WithRunner(schedule.KindScan, runner),
		schedule.WithInterval(time.Hour))
	stop := startScheduler(t, s)

	id, err := runNow(t, s, j.ID, schedule.TriggerManual)
	require.NoError(t, err)
	e := waitDone(t, store, id)
	stop()

	assert.Equal(t, schedule.StatusFailed, e.Status)
	assert.Equal(t, "radarr unavailable", e.Error)
	assert.Equal(t, 2, e.Processed)
	assert.Equal(t, 5, e.Failed)
	assert.Equal(t, schedule.TriggerManual, e.TriggeredBy)
}

func TestScheduler_CanceledRun(t *testing.T) {
	store := setupStore(t)

	j := &schedule.Job{Name: "nightly", Kind: schedule.KindScan, CronExpr: "0 3 * * *", Enabled: true}
	require.NoError(t, store.CreateJob(j))

	entered := make(chan struct{})
	runner := func(ctx context.Context, cfg schedule.JobConfig) (*schedule.Outcome, error) {
		close(entered)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	s := schedule.New(store, testLogger(),
		schedule.WithRunner(schedule.KindScan, runner),
		schedule.WithInterval(time.Hour))
	stop := startScheduler(t, s)

	id, err := runNow(t, s, j.ID, schedule.TriggerManual)
	require.NoError(t, err)
	<-entered

	running, err := store.GetExecution(id)
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusRunning, running.Status)
	assert.False(t, running.Done())

	// Shutdown cancels the run; the execution seals as canceled, not
	// failed.
	stop()

	e, err := store.GetExecution(id)
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusCanceled, e.Status)
	assert.Equal(t, "context canceled", e.Error)
	require.NotNil(t, e.FinishedAt)
}

func TestScheduler_SingleFlight(t *testing.T) {
	store := setupStore(t)

	j := &schedule.Job{Name: "nightly", Kind: schedule.KindScan, CronExpr: "0 3 * * *", Enabled: true}
	require.NoError(t, store.CreateJob(j))

	entered := make(chan struct{}, 2)
	gate := make(chan struct{})
	runner := func(ctx context.Context, cfg schedule.JobConfig) (*schedule.Outcome, error) {
		entered <- struct{}{}
		<-gate
		return &schedule.Outcome{Processed: 1}, nil
	}
	s := schedule.New(store, testLogger(),
		schedule.WithRunner(schedule.KindScan, runner),
		schedule.WithInterval(time.Hour))
	stop := startScheduler(t, s)

	first, err := runNow(t, s, j.ID, schedule.TriggerManual)
	require.NoError(t, err)
	<-entered

	_, err = s.RunNow(j.ID, schedule.TriggerManual)
	require.ErrorIs(t, err, schedule.ErrJobRunning)

	close(gate)
	e := waitDone(t, store, first)
	assert.Equal(t, schedule.StatusCompleted, e.Status)

	// The slot frees once the run finishes.
	second, err := s.RunNow(j.ID, schedule.TriggerManual)
	require.NoError(t, err)
	waitDone(t, store, second)
	stop()

	_, total, err := store.ListExecutions(schedule.ExecutionFilter{JobID: &j.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestScheduler_BusyOccurrenceDropped(t *testing.T) {
	store := setupStore(t)

	j := &schedule.Job{Name: "nightly", Kind: schedule.KindScan, CronExpr: "0 3 * * *", Enabled: true}
	require.NoError(t, store.CreateJob(j))
	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, store.AdvanceJob(j.ID, &past))

	entered := make(chan struct{}, 1)
	gate := make(chan struct{})
	runner := func(ctx context.Context, cfg schedule.JobConfig) (*schedule.Outcome, error) {
		entered <- struct{}{}
		<-gate
		return &schedule.Outcome{}, nil
	}
	s := schedule.New(store, testLogger(),
		schedule.WithRunner(schedule.KindScan, runner),
		schedule.WithInterval(10*time.Millisecond))
	stop := startScheduler(t, s)
	<-entered

	// Force the job due again while its first run is still going: the
	// loop drops the occurrence and pushes next_run_at forward instead
	// of queueing a second run.
	require.NoError(t, store.AdvanceJob(j.ID, &past))
	require.Eventually(t, func() bool {
		cur, err := store.GetJob(j.ID)
		if err != nil {
			return false
		}
		return cur.NextRunAt != nil && cur.NextRunAt.After(past)
	}, 5*time.Second, 5*time.Millisecond)

	cur, err := store.GetJob(j.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cur.RunCount)

	close(gate)
	stop()

	_, total, err := store.ListExecutions(schedule.ExecutionFilter{JobID: &j.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestScheduler_RunNowDisabledJob(t *testing.T) {
	store := setupStore(t)

	// Stored definitions ship disabled until an operator turns them on;
	// a manual trigger runs them anyway.
	j := &schedule.Job{
		Name: "weekly", Kind: schedule.KindCleanup, CronExpr: "0 4 * * 0",
		Config: schedule.JobConfig{DryRun: true, CheckFilesystem: true},
	}
	require.NoError(t, store.CreateJob(j))

	runner := func(ctx context.Context, cfg schedule.JobConfig) (*schedule.Outcome, error) {
		return &schedule.Outcome{Processed: 4, Report: map[string]int{"total_removed": 4}}, nil
	}
	s := schedule.New(store, testLogger(),
		schedule.WithRunner(schedule.KindCleanup, runner),
		schedule.WithInterval(time.Hour))
	stop := startScheduler(t, s)

	id, err := runNow(t, s, j.ID, schedule.TriggerAPI)
	require.NoError(t, err)
	e := waitDone(t, store, id)
	stop()

	assert.Equal(t, schedule.StatusCompleted, e.Status)
	assert.Equal(t, schedule.TriggerAPI, e.TriggeredBy)

	after, err := store.GetJob(j.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, after.RunCount)
	require.NotNil(t, after.LastRunAt)
	// Still off the schedule.
	assert.Nil(t, after.NextRunAt)
}

func TestScheduler_RunNowNotRunning(t *testing.T) {
	store := setupStore(t)
	j := &schedule.Job{Name: "nightly", Kind: schedule.KindScan, CronExpr: "0 3 * * *"}
	require.NoError(t, store.CreateJob(j))

	s := schedule.New(store, testLogger())
	_, err := s.RunNow(j.ID, schedule.TriggerManual)
	require.ErrorIs(t, err, schedule.ErrNotRunning)

	_, err = s.RunNow(99, schedule.TriggerManual)
	require.ErrorIs(t, err, schedule.ErrNotFound)

	_, err = s.RunAdhoc(schedule.KindScan, schedule.JobConfig{}, schedule.TriggerAPI)
	require.ErrorIs(t, err, schedule.ErrNotRunning)
}

func TestScheduler_RunAdhoc(t *testing.T) {
	store := setupStore(t)

	got := make(chan schedule.JobConfig, 1)
	runner := func(ctx context.Context, cfg schedule.JobConfig) (*schedule.Outcome, error) {
		got <- cfg
		return &schedule.Outcome{Processed: 7, Report: map[string]int{"added": 7}}, nil
	}
	s := schedule.New(store, testLogger(),
		schedule.WithRunner(schedule.KindScan, runner),
		schedule.WithInterval(time.Hour))
	stop := startScheduler(t, s)

	cfg := schedule.JobConfig{MediaType: "movie", Paths: []string{"/movies"}, Full: true}
	id, err := runAdhoc(t, s, schedule.KindScan, cfg, schedule.TriggerAPI)
	require.NoError(t, err)
	assert.Equal(t, cfg, <-got)

	e := waitDone(t, store, id)
	stop()

	// No definition behind the run.
	assert.Nil(t, e.JobID)
	assert.Equal(t, schedule.StatusCompleted, e.Status)
	assert.Equal(t, schedule.TriggerAPI, e.TriggeredBy)
	assert.Equal(t, 7, e.Processed)
	assert.JSONEq(t, `{"added":7}`, e.Report)
}

func TestScheduler_RunAdhocSingleFlight(t *testing.T) {
	store := setupStore(t)

	gate := make(chan struct{})
	entered := make(chan struct{}, 1)
	scan := func(ctx context.Context, cfg schedule.JobConfig) (*schedule.Outcome, error) {
		entered <- struct{}{}
		<-gate
		return &schedule.Outcome{}, nil
	}
	cleanup := func(ctx context.Context, cfg schedule.JobConfig) (*schedule.Outcome, error) {
		return &schedule.Outcome{}, nil
	}
	s := schedule.New(store, testLogger(),
		schedule.WithRunner(schedule.KindScan, scan),
		schedule.WithRunner(schedule.KindCleanup, cleanup),
		schedule.WithInterval(time.Hour))
	stop := startScheduler(t, s)

	id, err := runAdhoc(t, s, schedule.KindScan, schedule.JobConfig{}, schedule.TriggerAPI)
	require.NoError(t, err)
	<-entered

	_, err = s.RunAdhoc(schedule.KindScan, schedule.JobConfig{}, schedule.TriggerAPI)
	require.ErrorIs(t, err, schedule.ErrJobRunning)

	// Each kind holds its own slot.
	cid, err := s.RunAdhoc(schedule.KindCleanup, schedule.JobConfig{DryRun: true}, schedule.TriggerAPI)
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusCompleted, waitDone(t, store, cid).Status)

	close(gate)
	e := waitDone(t, store, id)
	stop()
	assert.Equal(t, schedule.StatusCompleted, e.Status)
}

func TestScheduler_MissingRunner(t *testing.T) {
	store := setupStore(t)
	j := &schedule.Job{Name: "weekly", Kind: schedule.KindCleanup, CronExpr: "0 4 * * 0"}
	require.NoError(t, store.CreateJob(j))

	s := schedule.New(store, testLogger(), schedule.WithInterval(time.Hour))
	stop := startScheduler(t, s)

	id, err := runNow(t, s, j.ID, schedule.TriggerManual)
	require.NoError(t, err)
	e := waitDone(t, store, id)
	stop()

	assert.Equal(t, schedule.StatusFailed, e.Status)
	assert.Equal(t, `no runner for job kind "cleanup"`, e.Error)
}
