package service

import (
	"context"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/arb-hedger/internal/models"
	"github.com/yourusername/arb-hedger/internal/repository"
)

// BetService records user bets and their tracking or settlement changes
type BetService struct {
	bets     repository.UserBetRepository
	hedges   *HedgeService
	audit    Auditor
	validate *validator.Validate
	logger   *logrus.Entry
	now      func() time.Time
}

// NewBetService creates a new bet service. hedges may be nil.
func NewBetService(bets repository.UserBetRepository, hedges *HedgeService, audit Auditor, log *logrus.Logger) *BetService {
	return &BetService{
		bets:     bets,
		hedges:   hedges,
		audit:    audit,
		validate: validator.New(),
		logger:   log.WithField("component", "bets"),
		now:      time.Now,
	}
}

// Create validates and stores a new bet. New bets start pending.
func (s *BetService) Create(ctx context.Context, actor string, bet *models.UserBet) error {
	if bet.Status == "" {
		bet.Status = models.BetStatusPending
	}
	if err := s.validate.Struct(bet); err != nil {
		return models.InvalidInputf("%v", err)
	}

	now := s.now()
	if bet.ID == uuid.Nil {
		bet.ID = uuid.New()
	}
	bet.CreatedAt = now
	bet.UpdatedAt = now

	if err := s.bets.Create(ctx, bet); err != nil {
		return err
	}
	s.audit.LogBetStateChange(actor, bet.ID.String(), "", string(bet.Status))
	return nil
}

// Get returns one bet
func (s *BetService) Get(ctx context.Context, id uuid.UUID) (*models.UserBet, error) {
	return s.bets.GetByID(ctx, id)
}

// SetTracking toggles hedge monitoring
func (s *BetService) SetTracking(ctx context.Context, actor string, id uuid.UUID, tracked bool) (*models.UserBet, error) {
	bet, err := s.bets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tracked && bet.Status.IsSettlement() {
		return nil, models.InvalidInputf("bet %s is already settled", id)
	}
	if bet.IsTracked == tracked {
		return bet, nil
	}

	if err := s.bets.UpdateTracking(ctx, id, tracked); err != nil {
		return nil, err
	}
	s.audit.LogBetStateChange(actor, id.String(), "tracked="+strconv.FormatBool(bet.IsTracked), "tracked="+strconv.FormatBool(tracked))

	bet.IsTracked = tracked
	bet.UpdatedAt = s.now()
	return bet, nil
}

// Settle moves a pending bet to a terminal status and stops tracking it
func (s *BetService) Settle(ctx context.Context, actor string, id uuid.UUID, status models.BetStatus) (*models.UserBet, error) {
	if !status.IsSettlement() {
		return nil, models.InvalidInputf("status %q is not a settlement", status)
	}
	bet, err := s.bets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bet.Status != models.BetStatusPending {
		return nil, models.InvalidInputf("bet %s is already %s", id, bet.Status)
	}

	if err := s.bets.Settle(ctx, id, status); err != nil {
		return nil, err
	}
	s.audit.LogBetStateChange(actor, id.String(), string(bet.Status), string(status))

	bet.Status = status
	bet.IsTracked = false
	bet.UpdatedAt = s.now()
	return bet, nil
}

// Hedges returns the unexpired suggestions for a bet
func (s *BetService) Hedges(ctx context.Context, id uuid.UUID) ([]*models.HedgeSuggestion, error) {
	if _, err := s.bets.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if s.hedges == nil {
		return nil, nil
	}
	return s.hedges.ListForBet(ctx, id)
}
