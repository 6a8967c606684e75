package repository

import (
	"fmt"

	"github.com/yourusername/arb-hedger/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Quote       QuoteRepository
	Market      MarketRepository
	Opportunity OpportunityRepository
	UserBet     UserBetRepository
	Hedge       HedgeSuggestionRepository
	JobRun      JobRunRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Quote:       NewPostgresQuoteRepository(db),
		Market:      NewPostgresMarketRepository(db),
		Opportunity: NewPostgresOpportunityRepository(db),
		UserBet:     NewPostgresUserBetRepository(db),
		Hedge:       NewPostgresHedgeSuggestionRepository(db),
		JobRun:      NewPostgresJobRunRepository(db),
	}, nil
}
