package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/arb-hedger/internal/arbitrage"
	"github.com/yourusername/arb-hedger/internal/logger"
	"github.com/yourusername/arb-hedger/internal/metrics"
	"github.com/yourusername/arb-hedger/internal/models"
	"github.com/yourusername/arb-hedger/internal/repository"
)

// ArbitrageConfig holds recompute parameters
type ArbitrageConfig struct {
	MinProfitPct float64
	QuoteMaxAge  time.Duration
	Workers      int
	// Jurisdictions constrain scheduled recomputes; manual scans bring their own
	Jurisdictions []string
}

// BookmakerResolver resolves jurisdictions to the books legal in all of them
type BookmakerResolver interface {
	EligibleBookmakers(jurisdictions []string) ([]string, error)
}

// Constraint is the legality context a detection pass runs under. Only quotes
// from Bookmakers are considered and every opportunity found is stamped with
// Jurisdictions.
type Constraint struct {
	Jurisdictions []string
	Bookmakers    []string
}

func (c Constraint) allows(book string) bool {
	for _, b := range c.Bookmakers {
		if b == book {
			return true
		}
	}
	return false
}

// RecomputeResult summarises one detection pass
type RecomputeResult struct {
	MarketsEvaluated int
	Opportunities    []*models.ArbitrageOpportunity
}

// ArbitrageService runs the detector across markets in parallel, ranks the
// results and persists them as fresh rows.
type ArbitrageService struct {
	detector  *arbitrage.Detector
	eligible  BookmakerResolver
	quotes    repository.QuoteRepository
	markets   repository.MarketRepository
	opps      repository.OpportunityRepository
	publisher OpportunityPublisher
	cfg       ArbitrageConfig
	scanLog   *logger.ScanLogger
	logger    *logrus.Entry
	now       func() time.Time
}

// NewArbitrageService creates a new arbitrage service. publisher may be nil.
func NewArbitrageService(
	detector *arbitrage.Detector,
	eligible BookmakerResolver,
	quotes repository.QuoteRepository,
	markets repository.MarketRepository,
	opps repository.OpportunityRepository,
	publisher OpportunityPublisher,
	cfg ArbitrageConfig,
	log *logrus.Logger,
) *ArbitrageService {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &ArbitrageService{
		detector:  detector,
		eligible:  eligible,
		quotes:    quotes,
		markets:   markets,
		opps:      opps,
		publisher: publisher,
		cfg:       cfg,
		scanLog:   logger.NewScanLogger(log),
		logger:    log.WithField("component", "arbitrage"),
		now:       time.Now,
	}
}

// MinProfitPct returns the configured acceptance threshold
func (s *ArbitrageService) MinProfitPct() float64 {
	return s.cfg.MinProfitPct
}

// Evaluate detects opportunities on every market using only that market's
// quotes from books the constraint allows, and returns them ranked. Markets
// are evaluated concurrently.
func (s *ArbitrageService) Evaluate(ctx context.Context, markets []*models.Market, quotes []models.Quote, c Constraint, minProfitPct float64, now time.Time) ([]*models.ArbitrageOpportunity, error) {
	if len(c.Jurisdictions) == 0 {
		return nil, models.InvalidInputf("detection requires a jurisdiction constraint")
	}
	if len(c.Bookmakers) == 0 {
		return nil, models.ErrNoEligibleBookmakers
	}
	jurisdictions := append([]string(nil), c.Jurisdictions...)
	sort.Strings(jurisdictions)

	byMarket := make(map[string][]models.Quote, len(markets))
	for _, q := range quotes {
		if !c.allows(q.Sportsbook) {
			continue
		}
		byMarket[q.MarketID] = append(byMarket[q.MarketID], q)
	}

	start := time.Now()
	var (
		mu    sync.Mutex
		found []*models.ArbitrageOpportunity
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, m := range markets {
		if m == nil {
			continue
		}
		market := m
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			opp := s.detector.DetectAt(*market, byMarket[market.ID], minProfitPct, now)
			if opp == nil {
				return nil
			}
			opp.Jurisdictions = jurisdictions
			mu.Lock()
			found = append(found, opp)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("detection interrupted: %w", err)
	}

	ranked := arbitrage.Rank(found)
	best := 0.0
	if pick := arbitrage.Pick(ranked); pick != nil {
		best = pick.ProfitPct
	}
	metrics.RecordDetection(time.Since(start).Seconds(), len(ranked), best)
	return ranked, nil
}

// Persist inserts the opportunities and publishes them. Publication failures
// are logged, never returned.
func (s *ArbitrageService) Persist(ctx context.Context, opps []*models.ArbitrageOpportunity) error {
	if len(opps) == 0 {
		return nil
	}
	if err := s.opps.InsertBatch(ctx, opps); err != nil {
		return err
	}

	for _, opp := range opps {
		s.scanLog.LogOpportunity(opp.MarketID, opp.ProfitPct, opp.LockedProfit, opp.Confidence, len(opp.Legs), string(opp.Provenance))
		metrics.RecordOpportunity(string(opp.Provenance))
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, opps); err != nil {
			s.logger.WithError(err).Warn("Failed to publish opportunities")
		}
	}
	return nil
}

// Recompute re-runs detection over stored quotes newer than the recency
// cutoff from books legal in every configured jurisdiction, and persists
// what it finds. An empty eligible set is terminal.
func (s *ArbitrageService) Recompute(ctx context.Context) (*RecomputeResult, error) {
	if s.eligible == nil {
		return nil, models.InvalidInputf("recompute has no eligibility filter")
	}
	books, err := s.eligible.EligibleBookmakers(s.cfg.Jurisdictions)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, models.ErrNoEligibleBookmakers
	}
	constraint := Constraint{Jurisdictions: s.cfg.Jurisdictions, Bookmakers: books}

	now := s.now()
	stored, err := s.quotes.ListRecent(ctx, now.Add(-s.cfg.QuoteMaxAge))
	if err != nil {
		return nil, err
	}
	quotes := make([]models.Quote, 0, len(stored))
	for _, q := range stored {
		if constraint.allows(q.Sportsbook) {
			quotes = append(quotes, q)
		}
	}

	live := make(map[string]bool)
	for _, q := range quotes {
		if q.IsLive {
			live[q.MarketID] = true
		}
	}

	var markets []*models.Market
	seen := make(map[string]struct{})
	for _, q := range quotes {
		if _, ok := seen[q.MarketID]; ok {
			continue
		}
		seen[q.MarketID] = struct{}{}

		m, err := s.markets.GetByID(ctx, q.MarketID)
		if errors.Is(err, models.ErrNotFound) {
			s.logger.WithField("market_id", q.MarketID).Debug("Quotes reference an unknown market")
			continue
		}
		if err != nil {
			s.logger.WithError(err).WithField("market_id", q.MarketID).Warn("Failed to load market")
			continue
		}
		if !m.StartsAt.IsZero() && !now.Before(m.StartsAt) && !live[m.ID] {
			continue
		}
		markets = append(markets, m)
	}

	opps, err := s.Evaluate(ctx, markets, quotes, constraint, s.cfg.MinProfitPct, now)
	if err != nil {
		return nil, err
	}
	if err := s.Persist(ctx, opps); err != nil {
		return nil, err
	}
	return &RecomputeResult{MarketsEvaluated: len(markets), Opportunities: opps}, nil
}

// ListActive returns stored opportunities that have not expired
func (s *ArbitrageService) ListActive(ctx context.Context) ([]*models.ArbitrageOpportunity, error) {
	opps, err := s.opps.ListActive(ctx, s.now())
	if err != nil {
		return nil, err
	}
	return arbitrage.Rank(opps), nil
}
