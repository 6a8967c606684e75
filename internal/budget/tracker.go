// Package budget tracks provider credit consumption shared by every job and
// manual scan.
package budget

import (
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/arb-hedger/internal/models"
)

// Policy decides what happens to a paid run when credits run low
type Policy string

const (
	// PolicySkip refuses runs that would cross the reserve floor
	PolicySkip Policy = "skip"
	// PolicyThrottle additionally spaces paid runs once remaining credits drop below ThrottleBelow
	PolicyThrottle Policy = "throttle"
	// PolicyIgnore never refuses; usage is still tracked
	PolicyIgnore Policy = "ignore"
)

// ErrThrottled is returned when the throttle policy defers a paid run
var ErrThrottled = fmt.Errorf("%w: throttled", models.ErrBudgetExhausted)

// Config holds the budget policy knobs
type Config struct {
	Limit            int
	Policy           Policy
	ReserveFloor     int
	ThrottleBelow    int
	ThrottleInterval time.Duration
}

// Reservation holds credits for one paid run until it is committed or released
type Reservation struct {
	Cost       int
	ReservedAt time.Time
	settled    bool
}

// Snapshot is a point-in-time view of the tracker
type Snapshot struct {
	Limit     int       `json:"limit"`
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	Pending   int       `json:"pending"`
	Reported  bool      `json:"reported"`
	Policy    Policy    `json:"policy"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tracker is the single shared credit counter. Every mutation holds mu.
type Tracker struct {
	mu          sync.Mutex
	cfg         Config
	used        int
	remaining   int
	pending     int
	reported    bool
	lastPaidRun time.Time
	updatedAt   time.Time
	now         func() time.Time
}

// NewTracker creates a tracker starting with the full limit available
func NewTracker(cfg Config) *Tracker {
	if cfg.Policy == "" {
		cfg.Policy = PolicySkip
	}
	return &Tracker{
		cfg:       cfg,
		remaining: cfg.Limit,
		now:       time.Now,
	}
}

// Reserve sets aside cost credits according to the configured policy.
// A zero-cost reservation always succeeds.
func (t *Tracker) Reserve(cost int) (*Reservation, error) {
	if cost < 0 {
		return nil, models.InvalidInputf("negative credit cost %d", cost)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if cost > 0 && t.cfg.Policy != PolicyIgnore {
		available := t.remaining - t.pending
		if available-cost < t.cfg.ReserveFloor {
			return nil, fmt.Errorf("%w: need %d credits, %d available above floor %d",
				models.ErrBudgetExhausted, cost, available-t.cfg.ReserveFloor, t.cfg.ReserveFloor)
		}
		if t.cfg.Policy == PolicyThrottle && available < t.cfg.ThrottleBelow && !t.lastPaidRun.IsZero() {
			next := t.lastPaidRun.Add(t.cfg.ThrottleInterval)
			if now.Before(next) {
				return nil, fmt.Errorf("%w until %s", ErrThrottled, next.Format(time.RFC3339))
			}
		}
	}

	t.pending += cost
	if cost > 0 {
		t.lastPaidRun = now
	}
	return &Reservation{Cost: cost, ReservedAt: now}, nil
}

// Commit settles a reservation. Provider-reported usage replaces the tracked
// figures; otherwise the request-derived usage (or the reserved cost) is added.
func (t *Tracker) Commit(res *Reservation, usage models.CreditUsage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if res != nil && !res.settled {
		t.pending -= res.Cost
		res.settled = true
	}

	t.apply(res, usage)
}

// Release returns a reservation's credits without charging anything
func (t *Tracker) Release(res *Reservation) {
	if res == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if res.settled {
		return
	}
	t.pending -= res.Cost
	res.settled = true
}

// Observe applies provider-reported usage seen outside a reservation
func (t *Tracker) Observe(usage models.CreditUsage) {
	if !usage.Reported {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.apply(nil, usage)
}

func (t *Tracker) apply(res *Reservation, usage models.CreditUsage) {
	if usage.Reported {
		t.used = usage.Used
		t.remaining = usage.Remaining
		t.reported = true
	} else {
		spent := usage.Used
		if spent == 0 && res != nil {
			spent = res.Cost
		}
		t.used += spent
		t.remaining -= spent
		if t.remaining < 0 {
			t.remaining = 0
		}
	}
	t.updatedAt = t.now()
}

// Snapshot returns the current budget state
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Limit:     t.cfg.Limit,
		Used:      t.used,
		Remaining: t.remaining,
		Pending:   t.pending,
		Reported:  t.reported,
		Policy:    t.cfg.Policy,
		UpdatedAt: t.updatedAt,
	}
}

// Remaining returns credits not yet used or reserved
func (t *Tracker) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining - t.pending
}
