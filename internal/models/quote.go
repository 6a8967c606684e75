package models

import (
	"time"

	"github.com/google/uuid"
)

// Provenance tags where a quote or opportunity came from
type Provenance string

const (
	ProvenanceLive      Provenance = "live"
	ProvenanceSimulated Provenance = "simulated"
)

// Quote is one sportsbook's decimal price for one outcome at one instant.
// Quotes are never updated; a refresh produces a new Quote.
type Quote struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	EventID       string     `db:"event_id" json:"event_id" validate:"required"`
	MarketID      string     `db:"market_id" json:"market_id" validate:"required"`
	Sportsbook    string     `db:"sportsbook" json:"sportsbook" validate:"required"`
	OutcomeID     string     `db:"outcome_id" json:"outcome_id" validate:"required"`
	Price         float64    `db:"price" json:"price" validate:"required,gt=1"`
	IsLive        bool       `db:"is_live" json:"is_live"`
	Jurisdictions []string   `db:"jurisdictions" json:"jurisdictions"`
	CapturedAt    time.Time  `db:"captured_at" json:"captured_at" validate:"required"`
	Provenance    Provenance `db:"provenance" json:"provenance"`
}

// ImpliedProbability returns 1/price
func (q *Quote) ImpliedProbability() float64 {
	if q.Price <= 0 {
		return 0
	}
	return 1.0 / q.Price
}

// Age returns how old the quote is at now
func (q *Quote) Age(now time.Time) time.Duration {
	if now.Before(q.CapturedAt) {
		return 0
	}
	return now.Sub(q.CapturedAt)
}

// FreshSince reports whether the quote was captured at or after cutoff
func (q *Quote) FreshSince(cutoff time.Time) bool {
	return !q.CapturedAt.Before(cutoff)
}

// CreditUsage is the provider's request budget report
type CreditUsage struct {
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
	// Reported is false when the provider sent no rate-limit metadata and the
	// figures were derived from request counts.
	Reported bool `json:"reported"`
}
