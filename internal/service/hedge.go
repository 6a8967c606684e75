package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/arb-hedger/internal/hedge"
	"github.com/yourusername/arb-hedger/internal/logger"
	"github.com/yourusername/arb-hedger/internal/metrics"
	"github.com/yourusername/arb-hedger/internal/models"
	"github.com/yourusername/arb-hedger/internal/repository"
)

// HedgeRunResult summarises one re-evaluation pass
type HedgeRunResult struct {
	Evaluated int
	Suggested int
	Failed    int
}

// HedgeService re-evaluates tracked bets against the latest opposing quotes
type HedgeService struct {
	calc        *hedge.Calculator
	bets        repository.UserBetRepository
	markets     repository.MarketRepository
	quotes      repository.QuoteRepository
	hedges      repository.HedgeSuggestionRepository
	quoteMaxAge time.Duration
	scanLog     *logger.ScanLogger
	logger      *logrus.Entry
	now         func() time.Time
}

// NewHedgeService creates a new hedge service
func NewHedgeService(
	calc *hedge.Calculator,
	bets repository.UserBetRepository,
	markets repository.MarketRepository,
	quotes repository.QuoteRepository,
	hedges repository.HedgeSuggestionRepository,
	quoteMaxAge time.Duration,
	log *logrus.Logger,
) *HedgeService {
	return &HedgeService{
		calc:        calc,
		bets:        bets,
		markets:     markets,
		quotes:      quotes,
		hedges:      hedges,
		quoteMaxAge: quoteMaxAge,
		scanLog:     logger.NewScanLogger(log),
		logger:      log.WithField("component", "hedge"),
		now:         time.Now,
	}
}

// Reevaluate checks every tracked bet. A bet that fails is counted and
// logged; the pass continues with the rest.
func (s *HedgeService) Reevaluate(ctx context.Context) (*HedgeRunResult, error) {
	bets, err := s.bets.ListTracked(ctx)
	if err != nil {
		return nil, err
	}
	metrics.UpdateTrackedBets(len(bets))

	result := &HedgeRunResult{}
	now := s.now()
	for _, bet := range bets {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !bet.IsHedgeable(now) {
			continue
		}
		result.Evaluated++

		suggestion, err := s.EvaluateBet(ctx, bet, now)
		if err != nil {
			result.Failed++
			s.logger.WithError(err).WithField("bet_id", bet.ID).Warn("Hedge evaluation failed")
			continue
		}
		if suggestion != nil {
			result.Suggested++
		}
	}
	return result, nil
}

// EvaluateBet computes and stores a suggestion for one bet. It returns nil
// without error when no profitable hedge exists.
func (s *HedgeService) EvaluateBet(ctx context.Context, bet *models.UserBet, now time.Time) (*models.HedgeSuggestion, error) {
	var market *models.Market
	m, err := s.markets.GetByID(ctx, bet.MarketID)
	switch {
	case err == nil:
		market = m
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	quotes, err := s.quotes.ListRecentByMarket(ctx, bet.MarketID, now.Add(-s.quoteMaxAge))
	if err != nil {
		return nil, err
	}

	suggestion := s.calc.CalculateHedge(*bet, market, quotes, now)
	if suggestion == nil {
		return nil, nil
	}
	if err := s.hedges.Create(ctx, suggestion); err != nil {
		return nil, err
	}

	s.scanLog.LogHedgeSuggestion(bet.ID.String(), suggestion.LockedProfitLow, suggestion.LockedProfitHigh, suggestion.Confidence)
	metrics.RecordHedgeSuggestion()
	return suggestion, nil
}

// ListForBet returns unexpired suggestions for a bet
func (s *HedgeService) ListForBet(ctx context.Context, betID uuid.UUID) ([]*models.HedgeSuggestion, error) {
	return s.hedges.ListByBet(ctx, betID, s.now())
}
