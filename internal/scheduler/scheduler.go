// Package scheduler runs the engine's named background jobs on fixed
// intervals and on demand.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/arb-hedger/internal/logger"
	"github.com/yourusername/arb-hedger/internal/metrics"
	"github.com/yourusername/arb-hedger/internal/models"
	"github.com/yourusername/arb-hedger/internal/repository"
)

// JobFunc does one unit of work and returns a short summary for the run record
type JobFunc func(ctx context.Context) (string, error)

// TriggerAuditor records who started a job by hand
type TriggerAuditor interface {
	LogManualTrigger(actor, jobName string)
}

// JobStatus is the externally visible state of one registered job
type JobStatus struct {
	Name     string         `json:"name"`
	Interval string         `json:"interval"`
	Running  bool           `json:"running"`
	LastRun  *models.JobRun `json:"last_run,omitempty"`
	NextRun  *time.Time     `json:"next_run,omitempty"`
}

const skippedBudgetSummary = "skipped: budget"

var errStopped = errors.New("scheduler is stopped")

type job struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	fn       JobFunc
	entryID  cron.EntryID
	running  atomic.Bool

	mu   sync.Mutex
	last *models.JobRun
}

func (j *job) lastRun() *models.JobRun {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.last == nil {
		return nil
	}
	run := *j.last
	return &run
}

func (j *job) setLast(run *models.JobRun) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.last = run
}

// Scheduler manages the engine's jobs. Each job runs at most once at a time;
// different jobs run concurrently.
type Scheduler struct {
	cron    *cron.Cron
	runs    repository.JobRunRepository
	audit   TriggerAuditor
	scanLog *logger.ScanLogger
	logger  *logrus.Entry

	mu        sync.RWMutex
	jobs      map[string]*job
	order     []string
	isRunning bool
	stopping  bool
	// inflight counts scheduled and manual runs; Add only happens under mu
	// while stopping is false
	inflight sync.WaitGroup

	ctx             context.Context
	cancel          context.CancelFunc
	gracefulTimeout time.Duration
	now             func() time.Time
}

// NewScheduler creates a new scheduler. runs and audit may be nil.
func NewScheduler(runs repository.JobRunRepository, audit TriggerAuditor, log *logrus.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		runs:            runs,
		audit:           audit,
		scanLog:         logger.NewScanLogger(log),
		logger:          log.WithField("component", "scheduler"),
		jobs:            make(map[string]*job),
		ctx:             ctx,
		cancel:          cancel,
		gracefulTimeout: 30 * time.Second,
		now:             time.Now,
	}
}

// Register adds a named job that fires every interval. A run is cancelled
// once it exceeds timeout; zero means the interval.
func (s *Scheduler) Register(name string, interval, timeout time.Duration, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("job %q already registered", name)
	}
	if interval < time.Second {
		return fmt.Errorf("job %q interval %s is below one second", name, interval)
	}
	if timeout <= 0 {
		timeout = interval
	}

	j := &job{name: name, interval: interval, timeout: timeout, fn: fn}
	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", int(interval/time.Second)), func() {
		if _, err := s.execute(s.ctx, j, models.JobTriggerScheduled); errors.Is(err, models.ErrJobAlreadyRunning) {
			s.logger.WithField("job", name).Debug("Previous run still in progress, tick skipped")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}
	j.entryID = entryID

	s.jobs[name] = j
	s.order = append(s.order, name)
	s.logger.WithFields(logrus.Fields{"job": name, "interval": interval.String()}).Info("Job scheduled")
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if s.stopping {
		return errStopped
	}
	if len(s.jobs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobs)).Info("Scheduler started")
	return nil
}

// Stop refuses new runs, waits for in-flight scheduled and manual runs up to
// the graceful timeout, then cancels whatever is left. Status stays readable
// while it waits.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return
	}
	s.stopping = true
	wasRunning := s.isRunning
	s.isRunning = false
	s.mu.Unlock()

	var cronDone <-chan struct{}
	if wasRunning {
		cronDone = s.cron.Stop().Done()
	}

	drained := make(chan struct{})
	go func() {
		if cronDone != nil {
			<-cronDone
		}
		s.inflight.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(s.gracefulTimeout):
		s.logger.Warn("Graceful timeout reached, cancelling running jobs")
	}
	s.cancel()
	if wasRunning {
		s.logger.Info("Scheduler stopped")
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Trigger runs a job now on behalf of actor and returns its run record.
// A budget refusal is recorded as a skipped run and returned as the error.
func (s *Scheduler) Trigger(ctx context.Context, name, actor string) (*models.JobRun, error) {
	s.mu.RLock()
	j, ok := s.jobs[name]
	stopping := s.stopping
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownJob, name)
	}
	if stopping {
		return nil, errStopped
	}

	if s.audit != nil {
		s.audit.LogManualTrigger(actor, name)
	}
	return s.execute(ctx, j, models.JobTriggerManual)
}

// Status reports every job in registration order
func (s *Scheduler) Status() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobStatus, 0, len(s.order))
	for _, name := range s.order {
		j := s.jobs[name]
		st := JobStatus{
			Name:     name,
			Interval: j.interval.String(),
			Running:  j.running.Load(),
			LastRun:  j.lastRun(),
		}
		if s.isRunning {
			if entry := s.cron.Entry(j.entryID); entry.Valid() && !entry.Next.IsZero() {
				next := entry.Next
				st.NextRun = &next
			}
		}
		out = append(out, st)
	}
	return out
}

// JobNames returns the registered job names in registration order
func (s *Scheduler) JobNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

func (s *Scheduler) execute(ctx context.Context, j *job, trigger models.JobTrigger) (*models.JobRun, error) {
	s.mu.RLock()
	if s.stopping {
		s.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s not started", errStopped, j.name)
	}
	s.inflight.Add(1)
	s.mu.RUnlock()
	defer s.inflight.Done()

	if !j.running.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: %s", models.ErrJobAlreadyRunning, j.name)
	}
	defer j.running.Store(false)

	run := &models.JobRun{
		ID:        uuid.New(),
		JobName:   j.name,
		Trigger:   trigger,
		State:     models.JobStateRunning,
		StartedAt: s.now().UTC(),
	}
	j.setLast(run)
	// Records outlive cancellation so a stopped run is still closed out.
	recordCtx := context.WithoutCancel(ctx)
	if s.runs != nil {
		if err := s.runs.Create(recordCtx, run); err != nil {
			s.logger.WithError(err).WithField("job", j.name).Warn("Failed to record job start")
		}
	}

	// Manual runs carry the caller's context; Stop still reaches them.
	jctx, cancel := context.WithTimeout(ctx, j.timeout)
	unhook := context.AfterFunc(s.ctx, cancel)
	summary, err := s.safeCall(jctx, j)
	unhook()
	cancel()

	finished := s.now().UTC()
	done := *run
	done.FinishedAt = &finished
	done.Summary = summary

	var returned error
	switch {
	case err == nil:
		done.State = models.JobStateSuccess
	case errors.Is(err, models.ErrBudgetExhausted):
		done.State = models.JobStateSuccess
		done.Summary = skippedBudgetSummary
		metrics.RecordBudgetRefusal(j.name)
		s.logger.WithError(err).WithField("job", j.name).Warn("Job skipped by budget policy")
		if trigger == models.JobTriggerManual {
			returned = err
		}
		err = nil
	default:
		done.State = models.JobStateFailed
		done.Error = err.Error()
		returned = err
	}

	if s.runs != nil {
		if ferr := s.runs.Finish(recordCtx, &done); ferr != nil {
			s.logger.WithError(ferr).WithField("job", j.name).Warn("Failed to record job finish")
		}
	}
	j.setLast(&done)

	s.scanLog.LogJobRun(j.name, string(trigger), string(done.State), done.Duration(), err)
	metrics.RecordJobRun(j.name, string(done.State), done.Duration().Seconds())

	return &done, returned
}

// safeCall turns a panicking job into a failed run instead of killing the process
func (s *Scheduler) safeCall(ctx context.Context, j *job) (summary string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
		}
	}()
	return j.fn(ctx)
}
