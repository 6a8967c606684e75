// Package hedge computes offsetting bets that lock in profit on an already
// placed user bet.
package hedge

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/arb-hedger/internal/models"
	"github.com/yourusername/arb-hedger/internal/oddsmath"
)

// Config holds hedge confidence and expiry parameters
type Config struct {
	// FreshWindow is the quote age up to which confidence is at its maximum
	FreshWindow time.Duration
	// DecayWindow is how long after FreshWindow confidence falls to the floor
	DecayWindow     time.Duration
	ConfidenceFloor float64
	SuggestionTTL   time.Duration
}

// DefaultConfig returns the stock hedge parameters
func DefaultConfig() Config {
	return Config{
		FreshWindow:     5 * time.Minute,
		DecayWindow:     10 * time.Minute,
		ConfidenceFloor: 0.3,
		SuggestionTTL:   60 * time.Second,
	}
}

// Calculator is stateless and safe for concurrent use
type Calculator struct {
	cfg Config
}

// NewCalculator creates a calculator
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// CalculateHedge returns a suggestion that guarantees profit whichever outcome
// wins, or nil when the bet is not hedgeable or no split locks a profit.
//
// market may be nil. When given, every outcome other than the bet's must be
// quoted; when nil, the opposing outcomes present in opposing are covered.
func (c *Calculator) CalculateHedge(bet models.UserBet, market *models.Market, opposing []models.Quote, now time.Time) *models.HedgeSuggestion {
	if !bet.IsHedgeable(now) {
		return nil
	}
	if market != nil && !market.StartsAt.IsZero() && !now.Before(market.StartsAt) {
		return nil
	}

	best := bestOpposing(bet, opposing)
	if len(best) == 0 {
		return nil
	}

	outcomes := make([]string, 0, len(best))
	if market != nil {
		for _, o := range market.Outcomes {
			if o == bet.OutcomeID {
				continue
			}
			if _, ok := best[o]; !ok {
				return nil
			}
			outcomes = append(outcomes, o)
		}
	} else {
		for o := range best {
			outcomes = append(outcomes, o)
		}
		sort.Strings(outcomes)
	}
	if len(outcomes) == 0 {
		return nil
	}

	potentialReturn := bet.PotentialReturn()
	legs := make([]models.HedgeLeg, 0, len(outcomes))
	totalHedge := 0.0
	oldest := now
	for _, o := range outcomes {
		q := best[o]
		stake := oddsmath.RoundCents(potentialReturn / q.Price)
		legs = append(legs, models.HedgeLeg{
			Sportsbook: q.Sportsbook,
			OutcomeID:  q.OutcomeID,
			Price:      q.Price,
			Stake:      stake,
			CapturedAt: q.CapturedAt,
		})
		totalHedge += stake
		if q.CapturedAt.Before(oldest) {
			oldest = q.CapturedAt
		}
	}

	// One scenario per outcome: the original bet wins, or one hedge leg wins.
	outlay := bet.Stake + totalHedge
	low := oddsmath.RoundCents(potentialReturn - outlay)
	high := low
	for _, leg := range legs {
		p := oddsmath.RoundCents(leg.Stake*leg.Price - outlay)
		low = math.Min(low, p)
		high = math.Max(high, p)
	}

	if low <= 0 {
		return nil
	}

	return &models.HedgeSuggestion{
		ID:               uuid.New(),
		BetID:            bet.ID,
		Legs:             legs,
		LockedProfitLow:  low,
		LockedProfitHigh: high,
		Rationale:        rationale(bet, legs, low, high),
		Confidence:       c.Confidence(now.Sub(oldest)),
		CreatedAt:        now,
		ExpiresAt:        now.Add(c.cfg.SuggestionTTL),
	}
}

// Confidence maps the age of the stalest hedge quote onto [floor, 1]
func (c *Calculator) Confidence(age time.Duration) float64 {
	floor := c.cfg.ConfidenceFloor
	freshness := 1.0
	if age > c.cfg.FreshWindow {
		if c.cfg.DecayWindow <= 0 {
			freshness = 0
		} else {
			freshness = math.Max(0, 1-float64(age-c.cfg.FreshWindow)/float64(c.cfg.DecayWindow))
		}
	}
	return oddsmath.RoundTo(floor+(1-floor)*freshness, 4)
}

func bestOpposing(bet models.UserBet, quotes []models.Quote) map[string]models.Quote {
	best := make(map[string]models.Quote)
	for _, q := range quotes {
		if q.OutcomeID == bet.OutcomeID || q.Price <= 1 {
			continue
		}
		if bet.MarketID != "" && q.MarketID != bet.MarketID {
			continue
		}
		cur, ok := best[q.OutcomeID]
		if !ok || q.Price > cur.Price || (q.Price == cur.Price && q.CapturedAt.After(cur.CapturedAt)) {
			best[q.OutcomeID] = q
		}
	}
	return best
}

func rationale(bet models.UserBet, legs []models.HedgeLeg, low, high float64) string {
	parts := make([]string, 0, len(legs))
	for _, l := range legs {
		parts = append(parts, fmt.Sprintf("%.2f on %s at %s @ %.2f", l.Stake, l.OutcomeID, l.Sportsbook, l.Price))
	}
	return fmt.Sprintf("Original %.2f on %s @ %.2f returns %.2f. Hedge %s to lock %.2f to %.2f.",
		bet.Stake, bet.OutcomeID, bet.PriceAtBet, bet.PotentialReturn(), strings.Join(parts, ", "), low, high)
}
