package models

import (
	"time"

	"github.com/google/uuid"
)

// BetStatus represents the settlement status of a user bet
type BetStatus string

const (
	BetStatusPending BetStatus = "pending"
	BetStatusWon     BetStatus = "won"
	BetStatusLost    BetStatus = "lost"
	BetStatusVoid    BetStatus = "void"
	BetStatusCashout BetStatus = "cashout"
)

// IsSettlement reports whether s is a terminal settlement status
func (s BetStatus) IsSettlement() bool {
	switch s {
	case BetStatusWon, BetStatusLost, BetStatusVoid, BetStatusCashout:
		return true
	}
	return false
}

// UserBet is a wager the user already placed and recorded manually
type UserBet struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id" validate:"required"`
	EventID       string    `db:"event_id" json:"event_id" validate:"required"`
	MarketID      string    `db:"market_id" json:"market_id" validate:"required"`
	Sportsbook    string    `db:"sportsbook" json:"sportsbook" validate:"required"`
	OutcomeID     string    `db:"outcome_id" json:"outcome_id" validate:"required"`
	Stake         float64   `db:"stake" json:"stake" validate:"required,gt=0"`
	PriceAtBet    float64   `db:"price_at_bet" json:"price_at_bet" validate:"required,gt=1"`
	IsTracked     bool      `db:"is_tracked" json:"is_tracked"`
	Status        BetStatus `db:"status" json:"status" validate:"required,oneof=pending won lost void cashout"`
	EventStartsAt time.Time `db:"event_starts_at" json:"event_starts_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// PotentialReturn is stake * price at bet time
func (b *UserBet) PotentialReturn() float64 {
	return b.Stake * b.PriceAtBet
}

// IsHedgeable reports whether the bet is eligible for hedge monitoring at now
func (b *UserBet) IsHedgeable(now time.Time) bool {
	if !b.IsTracked || b.Status != BetStatusPending {
		return false
	}
	return b.EventStartsAt.IsZero() || now.Before(b.EventStartsAt)
}
