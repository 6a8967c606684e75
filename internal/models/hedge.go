package models

import (
	"time"

	"github.com/google/uuid"
)

// HedgeLeg is one offsetting bet in a hedge suggestion
type HedgeLeg struct {
	Sportsbook string    `json:"sportsbook"`
	OutcomeID  string    `json:"outcome_id"`
	Price      float64   `json:"price"`
	Stake      float64   `json:"stake"`
	CapturedAt time.Time `json:"captured_at"`
}

// HedgeSuggestion recommends offsetting bets for a tracked UserBet.
// LockedProfitLow is always > 0 for a persisted suggestion.
type HedgeSuggestion struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	BetID            uuid.UUID  `db:"bet_id" json:"bet_id"`
	Legs             []HedgeLeg `db:"legs" json:"legs"`
	LockedProfitLow  float64    `db:"locked_profit_low" json:"locked_profit_low"`
	LockedProfitHigh float64    `db:"locked_profit_high" json:"locked_profit_high"`
	Rationale        string     `db:"rationale" json:"rationale"`
	Confidence       float64    `db:"confidence" json:"confidence"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt        time.Time  `db:"expires_at" json:"expires_at"`
}

// TotalHedgeStake sums the hedge leg stakes
func (h *HedgeSuggestion) TotalHedgeStake() float64 {
	total := 0.0
	for _, l := range h.Legs {
		total += l.Stake
	}
	return total
}
