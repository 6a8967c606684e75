package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/arb-hedger/internal/models"
)

// QuoteRepository defines the interface for quote data access.
// Quotes are append-only; a refresh inserts new rows.
type QuoteRepository interface {
	InsertBatch(ctx context.Context, quotes []models.Quote) error
	ListRecentByMarket(ctx context.Context, marketID string, since time.Time) ([]models.Quote, error)
	ListRecent(ctx context.Context, since time.Time) ([]models.Quote, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// MarketRepository defines the interface for market data access
type MarketRepository interface {
	Upsert(ctx context.Context, market *models.Market) error
	GetByID(ctx context.Context, id string) (*models.Market, error)
	// ListActive returns markets whose event starts at or after startsAfter
	ListActive(ctx context.Context, startsAfter time.Time) ([]*models.Market, error)
}

// OpportunityRepository defines the interface for arbitrage opportunity data access
type OpportunityRepository interface {
	InsertBatch(ctx context.Context, opps []*models.ArbitrageOpportunity) error
	ListActive(ctx context.Context, now time.Time) ([]*models.ArbitrageOpportunity, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// UserBetRepository defines the interface for user bet data access
type UserBetRepository interface {
	Create(ctx context.Context, bet *models.UserBet) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserBet, error)
	ListTracked(ctx context.Context) ([]*models.UserBet, error)
	UpdateTracking(ctx context.Context, id uuid.UUID, tracked bool) error
	Settle(ctx context.Context, id uuid.UUID, status models.BetStatus) error
}

// HedgeSuggestionRepository defines the interface for hedge suggestion data access
type HedgeSuggestionRepository interface {
	Create(ctx context.Context, suggestion *models.HedgeSuggestion) error
	ListByBet(ctx context.Context, betID uuid.UUID, now time.Time) ([]*models.HedgeSuggestion, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// JobRunRepository defines the interface for job run records
type JobRunRepository interface {
	Create(ctx context.Context, run *models.JobRun) error
	Finish(ctx context.Context, run *models.JobRun) error
	ListRecent(ctx context.Context, jobName string, limit int) ([]*models.JobRun, error)
}
