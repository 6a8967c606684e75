package budget

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/arb-hedger/internal/models"
)

func newTestTracker(cfg Config) (*Tracker, *time.Time) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(cfg)
	tr.now = func() time.Time { return now }
	return tr, &now
}

func TestReserveCommitUsesReportedUsage(t *testing.T) {
	tr, _ := newTestTracker(Config{Limit: 500, Policy: PolicySkip})

	res, err := tr.Reserve(6)
	require.NoError(t, err)
	assert.Equal(t, 494, tr.Remaining())

	tr.Commit(res, models.CreditUsage{Used: 120, Remaining: 380, Reported: true})

	snap := tr.Snapshot()
	assert.Equal(t, 120, snap.Used)
	assert.Equal(t, 380, snap.Remaining)
	assert.Equal(t, 0, snap.Pending)
	assert.True(t, snap.Reported)
}

func TestCommitWithoutReportFallsBackToCost(t *testing.T) {
	tr, _ := newTestTracker(Config{Limit: 100})

	res, err := tr.Reserve(4)
	require.NoError(t, err)
	tr.Commit(res, models.CreditUsage{})
	assert.Equal(t, 4, tr.Snapshot().Used)
	assert.Equal(t, 96, tr.Snapshot().Remaining)

	res, err = tr.Reserve(4)
	require.NoError(t, err)
	tr.Commit(res, models.CreditUsage{Used: 3})
	assert.Equal(t, 7, tr.Snapshot().Used)
	assert.False(t, tr.Snapshot().Reported)
}

func TestReleaseReturnsCredits(t *testing.T) {
	tr, _ := newTestTracker(Config{Limit: 10})

	res, err := tr.Reserve(8)
	require.NoError(t, err)
	_, err = tr.Reserve(5)
	assert.ErrorIs(t, err, models.ErrBudgetExhausted)

	tr.Release(res)
	tr.Release(res)
	assert.Equal(t, 10, tr.Remaining())

	tr.Commit(res, models.CreditUsage{})
	assert.Equal(t, 0, tr.Snapshot().Pending, "settled reservation must not be double counted")
}

func TestSkipPolicyRespectsReserveFloor(t *testing.T) {
	tr, _ := newTestTracker(Config{Limit: 100, Policy: PolicySkip, ReserveFloor: 20})

	_, err := tr.Reserve(80)
	require.NoError(t, err)
	_, err = tr.Reserve(1)
	assert.ErrorIs(t, err, models.ErrBudgetExhausted)

	_, err = tr.Reserve(0)
	assert.NoError(t, err)
}

func TestIgnorePolicyNeverRefuses(t *testing.T) {
	tr, _ := newTestTracker(Config{Limit: 5, Policy: PolicyIgnore})

	res, err := tr.Reserve(50)
	require.NoError(t, err)
	tr.Commit(res, models.CreditUsage{})
	assert.Equal(t, 50, tr.Snapshot().Used)
	assert.Equal(t, 0, tr.Snapshot().Remaining)
}

func TestThrottlePolicySpacesRuns(t *testing.T) {
	tr, now := newTestTracker(Config{
		Limit:            100,
		Policy:           PolicyThrottle,
		ThrottleBelow:    50,
		ThrottleInterval: 10 * time.Minute,
	})

	res, err := tr.Reserve(60)
	require.NoError(t, err)
	tr.Commit(res, models.CreditUsage{})

	_, err = tr.Reserve(5)
	assert.ErrorIs(t, err, ErrThrottled)
	assert.True(t, errors.Is(err, models.ErrBudgetExhausted))

	*now = now.Add(10 * time.Minute)
	_, err = tr.Reserve(5)
	assert.NoError(t, err)
}

func TestObserveOnlyAppliesReportedUsage(t *testing.T) {
	tr, _ := newTestTracker(Config{Limit: 500})

	tr.Observe(models.CreditUsage{Used: 10, Remaining: 0})
	assert.Equal(t, 500, tr.Snapshot().Remaining)

	tr.Observe(models.CreditUsage{Used: 10, Remaining: 490, Reported: true})
	assert.Equal(t, 490, tr.Snapshot().Remaining)
}

func TestReserveRejectsNegativeCost(t *testing.T) {
	tr, _ := newTestTracker(Config{Limit: 10})
	_, err := tr.Reserve(-1)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestConcurrentReservationsNeverOverspend(t *testing.T) {
	tr := NewTracker(Config{Limit: 100, Policy: PolicySkip})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res, err := tr.Reserve(3); err == nil {
				mu.Lock()
				granted += res.Cost
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, granted, 100)
	assert.Equal(t, 99, granted)
}
