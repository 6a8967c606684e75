package models

import (
	"time"

	"github.com/google/uuid"
)

// OpportunityLeg is one bet within an arbitrage opportunity
type OpportunityLeg struct {
	Sportsbook    string    `json:"sportsbook"`
	OutcomeID     string    `json:"outcome_id"`
	Price         float64   `json:"price"`
	StakeFraction float64   `json:"stake_fraction"`
	Stake         float64   `json:"stake"`
	CapturedAt    time.Time `json:"captured_at"`
	IsLive        bool      `json:"is_live"`
}

// Payout returns stake * price for the leg
func (l OpportunityLeg) Payout() float64 {
	return l.Stake * l.Price
}

// ArbitrageOpportunity is a sure-win combination detected on one market.
// It is a point-in-time fact: later scans supersede it with new rows.
type ArbitrageOpportunity struct {
	ID              uuid.UUID        `db:"id" json:"id"`
	EventID         string           `db:"event_id" json:"event_id"`
	MarketID        string           `db:"market_id" json:"market_id"`
	Legs            []OpportunityLeg `db:"legs" json:"legs"`
	TotalImplied    float64          `db:"total_implied" json:"total_implied"`
	ProfitPct       float64          `db:"profit_pct" json:"profit_pct"`
	Bankroll        float64          `db:"bankroll" json:"bankroll"`
	LockedProfit    float64          `db:"locked_profit" json:"locked_profit"`
	ValiditySeconds int              `db:"validity_seconds" json:"validity_seconds"`
	Confidence      float64          `db:"confidence" json:"confidence"`
	Jurisdictions   []string         `db:"jurisdictions" json:"jurisdictions"`
	Provenance      Provenance       `db:"provenance" json:"provenance"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	ExpiresAt       time.Time        `db:"expires_at" json:"expires_at"`
}

// IsLive reports whether any leg was priced in-play
func (o *ArbitrageOpportunity) IsLive() bool {
	for _, l := range o.Legs {
		if l.IsLive {
			return true
		}
	}
	return false
}

// Stamp sets creation and expiry from the validity window
func (o *ArbitrageOpportunity) Stamp(now time.Time, validity time.Duration) {
	o.CreatedAt = now
	o.ValiditySeconds = int(validity / time.Second)
	o.ExpiresAt = now.Add(validity)
}

// IsExpired reports whether the opportunity is past its expiry at now
func (o *ArbitrageOpportunity) IsExpired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// TotalStake sums the leg stakes
func (o *ArbitrageOpportunity) TotalStake() float64 {
	total := 0.0
	for _, l := range o.Legs {
		total += l.Stake
	}
	return total
}
