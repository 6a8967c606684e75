// Package service wires the core algorithms to the provider, storage and budget.
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

	"github.com/yourusername/arb-hedger/internal/budget"
	"github.com/yourusername/arb-hedger/internal/eligibility"
	"github.com/yourusername/arb-hedger/internal/logger"
	"github.com/yourusername/arb-hedger/internal/metrics"
	"github.com/yourusername/arb-hedger/internal/models"
	"github.com/yourusername/arb-hedger/internal/provider"
	"github.com/yourusername/arb-hedger/internal/repository"
)

// IngestionConfig holds the scheduled ingestion defaults
type IngestionConfig struct {
	Sports        []string
	Markets       []string
	Jurisdictions []string
	FetchTimeout  time.Duration
	QuoteMaxAge   time.Duration
}

// FetchPlan is one resolved set of provider calls
type FetchPlan struct {
	ScanID     string
	Sports     []string
	Markets    []string
	Bookmakers []string
	LiveOnly   bool
}

// FetchOutcome is the merged result of a plan's per-sport fetches
type FetchOutcome struct {
	Markets         []*models.Market
	Quotes          []models.Quote
	Usage           models.CreditUsage
	Requests        int
	SucceededSports []string
	FailedSports    map[string]error
}

// FailedSportNames returns the failed sports in sorted order
func (o *FetchOutcome) FailedSportNames() []string {
	names := make([]string, 0, len(o.FailedSports))
	for sport := range o.FailedSports {
		names = append(names, sport)
	}
	sort.Strings(names)
	return names
}

// IngestionService fetches odds per sport in parallel, stamps and filters the
// quotes, charges the credit budget and stores the results.
type IngestionService struct {
	provider provider.OddsProvider
	filter   *eligibility.Filter
	quotes   repository.QuoteRepository
	markets  repository.MarketRepository
	budget   *budget.Tracker
	cfg      IngestionConfig
	scanLog  *logger.ScanLogger
	logger   *logrus.Entry
	now      func() time.Time
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	p provider.OddsProvider,
	filter *eligibility.Filter,
	quotes repository.QuoteRepository,
	markets repository.MarketRepository,
	tracker *budget.Tracker,
	cfg IngestionConfig,
	log *logrus.Logger,
) *IngestionService {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	return &IngestionService{
		provider: p,
		filter:   filter,
		quotes:   quotes,
		markets:  markets,
		budget:   tracker,
		cfg:      cfg,
		scanLog:  logger.NewScanLogger(log),
		logger:   log.WithField("component", "ingestion"),
		now:      time.Now,
	}
}

// Config returns the ingestion defaults
func (s *IngestionService) Config() IngestionConfig {
	return s.cfg
}

// Ingest runs one scheduled ingestion using the configured sports, markets
// and jurisdictions.
func (s *IngestionService) Ingest(ctx context.Context, liveOnly bool) (*FetchOutcome, error) {
	books, err := s.filter.EligibleBookmakers(s.cfg.Jurisdictions)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, models.ErrNoEligibleBookmakers
	}

	return s.Run(ctx, FetchPlan{
		ScanID:     newScanID(liveOnly),
		Sports:     s.cfg.Sports,
		Markets:    s.cfg.Markets,
		Bookmakers: books,
		LiveOnly:   liveOnly,
	})
}

// Run reserves the plan's estimated credits, fetches every sport, settles the
// budget with the provider's usage and stores markets and quotes. The outcome
// is returned alongside ErrAllSportsFailed so callers can still report usage.
func (s *IngestionService) Run(ctx context.Context, plan FetchPlan) (*FetchOutcome, error) {
	estimate := provider.EstimateCost(plan.Sports, plan.Markets, plan.Bookmakers)
	res, err := s.budget.Reserve(estimate.TotalCredits)
	if err != nil {
		return nil, err
	}

	outcome, err := s.Fetch(ctx, plan)
	if outcome == nil || outcome.Requests == 0 {
		s.budget.Release(res)
	} else {
		s.budget.Commit(res, outcome.Usage)
	}
	snap := s.budget.Snapshot()
	metrics.UpdateCredits(snap.Used, snap.Remaining)
	if outcome != nil && !outcome.Usage.Reported {
		outcome.Usage.Remaining = snap.Remaining
	}
	if err != nil {
		return outcome, err
	}

	if err := s.store(ctx, outcome); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// Fetch calls the provider once per sport, concurrently, each bounded by the
// fetch timeout. Failed sports are recorded and skipped; the fetch fails only
// when every sport failed or the provider key is missing.
func (s *IngestionService) Fetch(ctx context.Context, plan FetchPlan) (*FetchOutcome, error) {
	if len(plan.Sports) == 0 {
		return nil, models.InvalidInputf("at least one sport is required")
	}

	outcome := &FetchOutcome{FailedSports: make(map[string]error)}
	results := make(map[string]*provider.FetchResult, len(plan.Sports))
	var mu sync.Mutex

	var g errgroup.Group
	for _, sport := range plan.Sports {
		sport := sport
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
			defer cancel()

			start := time.Now()
			res, err := s.provider.FetchOdds(sctx, provider.FetchRequest{
				Sport:      sport,
				Markets:    plan.Markets,
				Bookmakers: plan.Bookmakers,
				LiveOnly:   plan.LiveOnly,
			})
			metrics.RecordProviderLatency(sport, time.Since(start).Seconds())

			if err == nil && res == nil {
				err = fmt.Errorf("%w: empty response for %s", models.ErrProviderUnavailable, sport)
			}
			if err != nil && errors.Is(sctx.Err(), context.DeadlineExceeded) && !errors.Is(err, models.ErrProviderTimeout) {
				err = fmt.Errorf("%w: %v", models.ErrProviderTimeout, err)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				outcome.FailedSports[sport] = err
				s.scanLog.LogSportFailed(plan.ScanID, sport, err)
				metrics.RecordSportFailure(sport)
				return nil
			}
			results[sport] = res
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range outcome.FailedSports {
		if errors.Is(err, models.ErrMissingProviderKey) {
			return outcome, err
		}
	}

	now := s.now()
	cutoff := time.Time{}
	if s.cfg.QuoteMaxAge > 0 {
		cutoff = now.Add(-s.cfg.QuoteMaxAge)
	}
	snapshot := s.filter.Snapshot()
	seenMarkets := make(map[string]struct{})

	for _, sport := range plan.Sports {
		res, ok := results[sport]
		if !ok {
			continue
		}
		outcome.SucceededSports = append(outcome.SucceededSports, sport)
		outcome.Requests += res.Requests
		outcome.Usage = mergeUsage(outcome.Usage, res.Usage)

		for i := range res.Events {
			for _, m := range res.Events[i].Markets {
				if _, dup := seenMarkets[m.ID]; !dup {
					seenMarkets[m.ID] = struct{}{}
					outcome.Markets = append(outcome.Markets, m)
				}
				for _, q := range m.Quotes {
					if !cutoff.IsZero() && !q.FreshSince(cutoff) {
						continue
					}
					q.Jurisdictions = snapshot.JurisdictionsFor(q.Sportsbook)
					outcome.Quotes = append(outcome.Quotes, q)
				}
			}
		}
	}

	if len(outcome.SucceededSports) == 0 {
		return outcome, fmt.Errorf("%w: %d sports attempted", models.ErrAllSportsFailed, len(plan.Sports))
	}
	return outcome, nil
}

// store persists markets one by one and quotes as a batch. A market that fails
// to store is logged and its quotes are kept out of the batch.
func (s *IngestionService) store(ctx context.Context, outcome *FetchOutcome) error {
	failed := make(map[string]struct{})
	for _, m := range outcome.Markets {
		if err := s.markets.Upsert(ctx, m); err != nil {
			failed[m.ID] = struct{}{}
			s.logger.WithError(err).WithField("market_id", m.ID).Warn("Failed to store market")
		}
	}

	quotes := outcome.Quotes
	if len(failed) > 0 {
		quotes = make([]models.Quote, 0, len(outcome.Quotes))
		for _, q := range outcome.Quotes {
			if _, skip := failed[q.MarketID]; !skip {
				quotes = append(quotes, q)
			}
		}
	}

	if err := s.quotes.InsertBatch(ctx, quotes); err != nil {
		return fmt.Errorf("failed to store quotes: %w", err)
	}
	metrics.RecordQuotesIngested(len(quotes))

	s.logger.WithFields(logrus.Fields{
		"markets":       len(outcome.Markets),
		"quotes":        len(quotes),
		"failed_sports": len(outcome.FailedSports),
	}).Debug("Ingestion stored")
	return nil
}

// mergeUsage combines per-sport usage. Provider-reported figures are
// cumulative so the most advanced report wins; derived figures add up.
func mergeUsage(acc, next models.CreditUsage) models.CreditUsage {
	switch {
	case next.Reported && (!acc.Reported || next.Used >= acc.Used):
		return next
	case acc.Reported:
		return acc
	default:
		return models.CreditUsage{Used: acc.Used + next.Used}
	}
}

func newScanID(liveOnly bool) string {
	prefix := "prematch"
	if liveOnly {
		prefix = "live"
	}
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
