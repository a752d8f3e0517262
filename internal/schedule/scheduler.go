package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Outcome is what a runner hands back for the execution record.
// Report, when non-nil, is marshaled into the row as JSON.
type Outcome struct {
	Processed int
	Skipped   int
	Failed    int
	Report    any
}

// Runner executes one kind of job. A runner may return a partial
// Outcome alongside its error; whatever it managed is recorded.
type Runner func(ctx context.Context, cfg JobConfig) (*Outcome, error)

const defaultInterval = 30 * time.Second

// Scheduler ticks over the job table dispatching due jobs to their
// runners. One loop, one instance per job at a time: a job still
// running when its next occurrence arrives has that occurrence
// dropped, not queued.
type Scheduler struct {
	store    *Store
	runners  map[JobKind]Runner
	log      *slog.Logger
	interval time.Duration
	now      func() time.Time

	// mu guards runCtx and the in-flight sets; wg counts executions
	// claimed under mu, so shutdown's Wait sees every claim.
	mu       sync.Mutex
	runCtx   context.Context
	inFlight map[int64]struct{}
	adhoc    map[JobKind]struct{}
	wg       sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRunner wires the runner for a job kind.
func WithRunner(kind JobKind, r Runner) Option {
	return func(s *Scheduler) { s.runners[kind] = r }
}

// WithInterval overrides the tick interval.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.interval = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a Scheduler over the job store.
func New(store *Store, log *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    store,
		runners:  make(map[JobKind]Runner),
		log:      log.With("component", "schedule"),
		interval: defaultInterval,
		now:      time.Now().UTC,
		inFlight: make(map[int64]struct{}),
		adhoc:    make(map[JobKind]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drives the tick loop until ctx is canceled, then waits for any
// in-flight executions to wind down. Executions run on their own
// goroutines under ctx, so the loop is never blocked by a long job.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("scheduler started", "interval", s.interval.String())

	// An immediate pass catches jobs that came due while the process
	// was down.
	s.tick()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			s.mu.Lock()
			s.runCtx = nil
			s.mu.Unlock()
			s.wg.Wait()
			s.log.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	due, err := s.store.Due(s.now())
	if err != nil {
		s.log.Error("due jobs query failed", "error", err)
		return
	}
	for _, j := range due {
		_, err := s.dispatch(j, TriggerSchedule)
		switch {
		case errors.Is(err, ErrJobRunning):
			// Drop the occurrence; the next cron time takes over.
			s.log.Info("job still running, skipping occurrence", "job_id", j.ID, "name", j.Name)
			s.advance(j)
		case err != nil:
			s.log.Error("job dispatch failed", "job_id", j.ID, "name", j.Name, "error", err)
		}
	}
}

// advance pushes a skipped job's next run time forward so the dropped
// occurrence is not re-offered every tick.
func (s *Scheduler) advance(j *Job) {
	var next *time.Time
	if n, err := NextRun(j.CronExpr, s.now()); err == nil {
		next = &n
	} else {
		s.log.Error("cron recompute failed", "job_id", j.ID, "expr", j.CronExpr, "error", err)
	}
	if err := s.store.AdvanceJob(j.ID, next); err != nil {
		s.log.Error("advance job failed", "job_id", j.ID, "error", err)
	}
}

// RunNow dispatches a job outside its schedule. The single-flight rule
// still applies (ErrJobRunning), a disabled job runs anyway, and the
// execution id is returned once the row exists; the job itself runs in
// the background under the scheduler's lifecycle.
func (s *Scheduler) RunNow(jobID int64, trigger string) (int64, error) {
	j, err := s.store.GetJob(jobID)
	if err != nil {
		return 0, err
	}
	return s.dispatch(j, trigger)
}

// RunAdhoc dispatches kind's runner outside any stored definition,
// recording an execution with no job attached. Ad-hoc runs are
// single-flighted per kind.
func (s *Scheduler) RunAdhoc(kind JobKind, cfg JobConfig, trigger string) (int64, error) {
	s.mu.Lock()
	ctx := s.runCtx
	if ctx == nil {
		s.mu.Unlock()
		return 0, ErrNotRunning
	}
	if _, busy := s.adhoc[kind]; busy {
		s.mu.Unlock()
		return 0, fmt.Errorf("ad-hoc %s: %w", kind, ErrJobRunning)
	}
	s.adhoc[kind] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	exec := &Execution{TriggeredBy: trigger}
	if err := s.store.StartExecution(exec); err != nil {
		s.releaseAdhoc(kind)
		return 0, err
	}

	j := &Job{Name: "ad-hoc " + string(kind), Kind: kind, Config: cfg}
	s.log.Info("job started", "name", j.Name, "kind", kind,
		"execution_id", exec.ID, "triggered_by", trigger)

	go func() {
		defer s.releaseAdhoc(kind)
		s.execute(ctx, j, exec)
	}()
	return exec.ID, nil
}

// dispatch claims the job's single-flight slot, stamps the run on the
// definition, opens the execution row and hands the work to a
// goroutine.
func (s *Scheduler) dispatch(j *Job, trigger string) (int64, error) {
	s.mu.Lock()
	ctx := s.runCtx
	if ctx == nil {
		s.mu.Unlock()
		return 0, ErrNotRunning
	}
	if _, busy := s.inFlight[j.ID]; busy {
		s.mu.Unlock()
		return 0, fmt.Errorf("job %d: %w", j.ID, ErrJobRunning)
	}
	s.inFlight[j.ID] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	now := s.now()
	var next *time.Time
	if j.Enabled {
		if n, err := NextRun(j.CronExpr, now); err == nil {
			next = &n
		} else {
			s.log.Error("cron recompute failed", "job_id", j.ID, "expr", j.CronExpr, "error", err)
		}
	}
	if err := s.store.MarkJobRun(j.ID, now, next); err != nil {
		s.release(j.ID)
		return 0, err
	}

	exec := &Execution{JobID: &j.ID, TriggeredBy: trigger}
	if err := s.store.StartExecution(exec); err != nil {
		s.release(j.ID)
		return 0, err
	}

	s.log.Info("job started", "job_id", j.ID, "name", j.Name, "kind", j.Kind,
		"execution_id", exec.ID, "triggered_by", trigger)

	go func() {
		defer s.release(j.ID)
		s.execute(ctx, j, exec)
	}()
	return exec.ID, nil
}

func (s *Scheduler) release(jobID int64) {
	s.mu.Lock()
	delete(s.inFlight, jobID)
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Scheduler) releaseAdhoc(kind JobKind) {
	s.mu.Lock()
	delete(s.adhoc, kind)
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Scheduler) execute(ctx context.Context, j *Job, exec *Execution) {
	runner, ok := s.runners[j.Kind]
	if !ok {
		exec.Error = fmt.Sprintf("no runner for job kind %q", j.Kind)
		s.seal(exec, StatusFailed)
		s.log.Error("job failed", "job_id", j.ID, "name", j.Name,
			"execution_id", exec.ID, "error", exec.Error)
		return
	}

	out, err := runner(ctx, j.Config)
	if out != nil {
		exec.Processed = out.Processed
		exec.Skipped = out.Skipped
		exec.Failed = out.Failed
		if out.Report != nil {
			if data, merr := json.Marshal(out.Report); merr == nil {
				exec.Report = string(data)
			} else {
				s.log.Warn("report marshal failed", "execution_id", exec.ID, "error", merr)
			}
		}
	}
	if err != nil {
		exec.Error = err.Error()
		status := StatusFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = StatusCanceled
		}
		s.seal(exec, status)
		s.log.Error("job failed", "job_id", j.ID, "name", j.Name,
			"execution_id", exec.ID, "status", status, "error", err)
		return
	}

	s.seal(exec, StatusCompleted)
	s.log.Info("job completed", "job_id", j.ID, "name", j.Name, "execution_id", exec.ID,
		"processed", exec.Processed, "skipped", exec.Skipped, "failed", exec.Failed)
}

func (s *Scheduler) seal(exec *Execution, status ExecStatus) {
	if err := s.store.SealExecution(exec, status); err != nil {
		s.log.Error("seal execution failed", "execution_id", exec.ID, "error", err)
	}
}
