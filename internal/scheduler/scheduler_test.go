package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/arb-hedger/internal/config"
	"github.com/yourusername/arb-hedger/internal/models"
	"github.com/yourusername/arb-hedger/internal/service"
)

type MockJobRunRepository struct {
	mock.Mock
}

func (m *MockJobRunRepository) Create(ctx context.Context, run *models.JobRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockJobRunRepository) Finish(ctx context.Context, run *models.JobRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockJobRunRepository) ListRecent(ctx context.Context, jobName string, limit int) ([]*models.JobRun, error) {
	args := m.Called(ctx, jobName, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.JobRun), args.Error(1)
}

type recordingAuditor struct {
	mu       sync.Mutex
	triggers []string
}

func (a *recordingAuditor) LogManualTrigger(actor, jobName string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.triggers = append(a.triggers, actor+":"+jobName)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newTestScheduler(t *testing.T) (*Scheduler, *MockJobRunRepository, *recordingAuditor) {
	t.Helper()
	runs := new(MockJobRunRepository)
	runs.On("Create", mock.Anything, mock.Anything).Return(nil)
	runs.On("Finish", mock.Anything, mock.Anything).Return(nil)
	audit := &recordingAuditor{}
	s := NewScheduler(runs, audit, quietLogger())
	t.Cleanup(s.Stop)
	return s, runs, audit
}

func TestTriggerRecordsSuccessfulRun(t *testing.T) {
	s, runs, audit := newTestScheduler(t)
	require.NoError(t, s.Register("cleanup", time.Minute, 0, func(context.Context) (string, error) {
		return "opportunities=2", nil
	}))

	run, err := s.Trigger(context.Background(), "cleanup", "ops")
	require.NoError(t, err)

	assert.Equal(t, models.JobStateSuccess, run.State)
	assert.Equal(t, models.JobTriggerManual, run.Trigger)
	assert.Equal(t, "opportunities=2", run.Summary)
	require.NotNil(t, run.FinishedAt)
	assert.Equal(t, []string{"ops:cleanup"}, audit.triggers)

	runs.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(r *models.JobRun) bool {
		return r.JobName == "cleanup" && r.State == models.JobStateRunning
	}))
	runs.AssertCalled(t, "Finish", mock.Anything, mock.MatchedBy(func(r *models.JobRun) bool {
		return r.ID == run.ID && r.State == models.JobStateSuccess
	}))
}

func TestTriggerRecordsFailure(t *testing.T) {
	s, runs, _ := newTestScheduler(t)
	boom := errors.New("provider down")
	require.NoError(t, s.Register("ingest_live", time.Minute, 0, func(context.Context) (string, error) {
		return "", boom
	}))

	run, err := s.Trigger(context.Background(), "ingest_live", "ops")
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, run)
	assert.Equal(t, models.JobStateFailed, run.State)
	assert.Equal(t, "provider down", run.Error)

	runs.AssertCalled(t, "Finish", mock.Anything, mock.MatchedBy(func(r *models.JobRun) bool {
		return r.State == models.JobStateFailed
	}))
}

func TestTriggerBudgetRefusalIsSkippedRun(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	require.NoError(t, s.Register("ingest_prematch", time.Minute, 0, func(context.Context) (string, error) {
		return "", models.ErrBudgetExhausted
	}))

	run, err := s.Trigger(context.Background(), "ingest_prematch", "ops")
	assert.ErrorIs(t, err, models.ErrBudgetExhausted)
	require.NotNil(t, run)
	assert.Equal(t, models.JobStateSuccess, run.State)
	assert.Equal(t, skippedBudgetSummary, run.Summary)
}

func TestTriggerUnknownJob(t *testing.T) {
	s, _, audit := newTestScheduler(t)

	_, err := s.Trigger(context.Background(), "nope", "ops")
	assert.ErrorIs(t, err, models.ErrUnknownJob)
	assert.Empty(t, audit.triggers)
}

func TestTriggerRejectsConcurrentRunOfSameJob(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.Register("hedge_reevaluate", time.Minute, 0, func(context.Context) (string, error) {
		close(started)
		<-release
		return "", nil
	}))
	require.NoError(t, s.Register("cleanup", time.Minute, 0, func(context.Context) (string, error) {
		return "ok", nil
	}))

	done := make(chan error, 1)
	go func() {
		_, err := s.Trigger(context.Background(), "hedge_reevaluate", "a")
		done <- err
	}()
	<-started

	_, err := s.Trigger(context.Background(), "hedge_reevaluate", "b")
	assert.ErrorIs(t, err, models.ErrJobAlreadyRunning)

	// a different job is not blocked
	_, err = s.Trigger(context.Background(), "cleanup", "b")
	assert.NoError(t, err)

	statuses := s.Status()
	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].Running)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, s.Status()[0].Running)
}

func TestTriggerRecoversPanic(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	require.NoError(t, s.Register("cleanup", time.Minute, 0, func(context.Context) (string, error) {
		panic("boom")
	}))

	run, err := s.Trigger(context.Background(), "cleanup", "ops")
	require.Error(t, err)
	assert.Equal(t, models.JobStateFailed, run.State)
	assert.Contains(t, run.Error, "panicked")
}

func TestRunTimeout(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	require.NoError(t, s.Register("ingest_live", time.Minute, 20*time.Millisecond, func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}))

	run, err := s.Trigger(context.Background(), "ingest_live", "ops")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, models.JobStateFailed, run.State)
}

func TestRegisterValidation(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	noop := func(context.Context) (string, error) { return "", nil }

	require.NoError(t, s.Register("cleanup", time.Minute, 0, noop))
	assert.Error(t, s.Register("cleanup", time.Minute, 0, noop))
	assert.Error(t, s.Register("fast", 10*time.Millisecond, 0, noop))

	require.NoError(t, s.Start())
	assert.Error(t, s.Register("late", time.Minute, 0, noop))
	assert.Error(t, s.Start())

	require.Eventually(t, func() bool {
		st := s.Status()
		return len(st) == 1 && st[0].NextRun != nil
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "1m0s", s.Status()[0].Interval)
}

func TestStartWithoutJobs(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	assert.Error(t, s.Start())
}

func TestJobRecordFailuresDoNotFailRun(t *testing.T) {
	runs := new(MockJobRunRepository)
	runs.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))
	runs.On("Finish", mock.Anything, mock.Anything).Return(errors.New("db down"))
	s := NewScheduler(runs, nil, quietLogger())
	defer s.Stop()
	require.NoError(t, s.Register("cleanup", time.Minute, 0, func(context.Context) (string, error) {
		return "ok", nil
	}))

	run, err := s.Trigger(context.Background(), "cleanup", "ops")
	require.NoError(t, err)
	assert.Equal(t, models.JobStateSuccess, run.State)
}

type stubServices struct {
	liveFlags []bool
	mu        sync.Mutex
}

func (s *stubServices) Ingest(_ context.Context, liveOnly bool) (*service.FetchOutcome, error) {
	s.mu.Lock()
	s.liveFlags = append(s.liveFlags, liveOnly)
	s.mu.Unlock()
	return &service.FetchOutcome{
		Quotes:       make([]models.Quote, 3),
		Usage:        models.CreditUsage{Used: 4, Remaining: 496},
		FailedSports: map[string]error{"tennis": errors.New("timeout")},
	}, nil
}

func (s *stubServices) Recompute(context.Context) (*service.RecomputeResult, error) {
	return &service.RecomputeResult{MarketsEvaluated: 5}, nil
}

func (s *stubServices) Reevaluate(context.Context) (*service.HedgeRunResult, error) {
	return &service.HedgeRunResult{Evaluated: 2, Suggested: 1}, nil
}

func (s *stubServices) Run(context.Context) (*service.CleanupResult, error) {
	return &service.CleanupResult{Quotes: 9}, nil
}

func TestRegisterEngineJobs(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	stub := &stubServices{}
	cfg := config.ScheduleConfig{
		PrematchIntervalSeconds:  900,
		LiveIntervalSeconds:      60,
		ArbitrageIntervalSeconds: 30,
		HedgeIntervalSeconds:     30,
		CleanupIntervalSeconds:   300,
	}

	require.NoError(t, RegisterEngineJobs(s, Services{Ingestion: stub, Arbitrage: stub, Hedge: stub, Cleanup: stub}, cfg))
	assert.Equal(t, []string{JobIngestPrematch, JobIngestLive, JobArbitrageRecompute, JobHedgeReevaluate, JobCleanup}, s.JobNames())

	tests := []struct {
		job     string
		summary string
	}{
		{JobIngestPrematch, "markets=0 quotes=3 credits_used=4 credits_remaining=496 failed_sports=tennis"},
		{JobIngestLive, "markets=0 quotes=3 credits_used=4 credits_remaining=496 failed_sports=tennis"},
		{JobArbitrageRecompute, "markets=5 opportunities=0"},
		{JobHedgeReevaluate, "evaluated=2 suggested=1 failed=0"},
		{JobCleanup, "opportunities=0 hedges=0 quotes=9"},
	}
	for _, tt := range tests {
		t.Run(tt.job, func(t *testing.T) {
			run, err := s.Trigger(context.Background(), tt.job, "ops")
			require.NoError(t, err)
			assert.Equal(t, tt.summary, run.Summary)
		})
	}
	assert.Equal(t, []bool{false, true}, stub.liveFlags)
}

func TestStopWaitsForManualRunWithoutBlockingStatus(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.Register("cleanup", time.Minute, 0, func(ctx context.Context) (string, error) {
		close(started)
		select {
		case <-release:
			return "done", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}))
	require.NoError(t, s.Start())

	result := make(chan *models.JobRun, 1)
	go func() {
		run, _ := s.Trigger(context.Background(), "cleanup", "ops")
		result <- run
	}()
	<-started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	require.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 5*time.Millisecond)
	statuses := s.Status()
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].Running)

	_, err := s.Trigger(context.Background(), "cleanup", "ops")
	assert.Error(t, err)

	select {
	case <-stopped:
		t.Fatal("stop returned before the manual run finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-stopped
	run := <-result
	require.NotNil(t, run)
	assert.Equal(t, models.JobStateSuccess, run.State)
	assert.Equal(t, "done", run.Summary)
}

func TestStopCancelsManualRunAfterGracefulTimeout(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	s.gracefulTimeout = 20 * time.Millisecond
	started := make(chan struct{})
	require.NoError(t, s.Register("ingest_live", time.Minute, 0, func(ctx context.Context) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}))

	errs := make(chan error, 1)
	go func() {
		_, err := s.Trigger(context.Background(), "ingest_live", "ops")
		errs <- err
	}()
	<-started

	s.Stop()
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("manual run was not cancelled by stop")
	}
}
