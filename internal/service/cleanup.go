package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/arb-hedger/internal/repository"
)

// CleanupResult counts deleted rows per table
type CleanupResult struct {
	Opportunities int64
	Hedges        int64
	Quotes        int64
}

// CleanupService purges expired opportunities and suggestions and quotes past retention
type CleanupService struct {
	opps      repository.OpportunityRepository
	hedges    repository.HedgeSuggestionRepository
	quotes    repository.QuoteRepository
	retention time.Duration
	logger    *logrus.Entry
	now       func() time.Time
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(
	opps repository.OpportunityRepository,
	hedges repository.HedgeSuggestionRepository,
	quotes repository.QuoteRepository,
	retention time.Duration,
	log *logrus.Logger,
) *CleanupService {
	return &CleanupService{
		opps:      opps,
		hedges:    hedges,
		quotes:    quotes,
		retention: retention,
		logger:    log.WithField("component", "cleanup"),
		now:       time.Now,
	}
}

// Run deletes everything past its expiry or retention
func (s *CleanupService) Run(ctx context.Context) (*CleanupResult, error) {
	now := s.now()
	result := &CleanupResult{}

	var err error
	if result.Opportunities, err = s.opps.DeleteExpired(ctx, now); err != nil {
		return result, fmt.Errorf("opportunity cleanup: %w", err)
	}
	if result.Hedges, err = s.hedges.DeleteExpired(ctx, now); err != nil {
		return result, fmt.Errorf("hedge cleanup: %w", err)
	}
	if s.retention > 0 {
		if result.Quotes, err = s.quotes.DeleteOlderThan(ctx, now.Add(-s.retention)); err != nil {
			return result, fmt.Errorf("quote cleanup: %w", err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"opportunities": result.Opportunities,
		"hedges":        result.Hedges,
		"quotes":        result.Quotes,
	}).Info("Cleanup completed")
	return result, nil
}
