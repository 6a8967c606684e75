package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/arb-hedger/internal/arbitrage"
	"github.com/yourusername/arb-hedger/internal/eligibility"
	"github.com/yourusername/arb-hedger/internal/logger"
	"github.com/yourusername/arb-hedger/internal/metrics"
	"github.com/yourusername/arb-hedger/internal/models"
	"github.com/yourusername/arb-hedger/internal/provider"
)

// ScanFilter selects what a scan or estimate covers. Empty sports or markets
// fall back to the configured defaults; jurisdictions are mandatory.
type ScanFilter struct {
	Jurisdictions []string `json:"jurisdictions"`
	Sports        []string `json:"sports"`
	Markets       []string `json:"markets"`
	LiveOnly      bool     `json:"live_only"`
}

// ScanRequest is a paid scan. Confirm must be set.
type ScanRequest struct {
	Filter       ScanFilter `json:"filter"`
	Confirm      bool       `json:"confirm"`
	MinProfitPct *float64   `json:"min_profit_pct,omitempty"`
	Actor        string     `json:"-"`
}

// ScanResult is the ranked outcome of one scan
type ScanResult struct {
	ScanID           string                         `json:"scan_id"`
	Opportunities    []*models.ArbitrageOpportunity `json:"opportunities"`
	Pick             *models.ArbitrageOpportunity   `json:"pick,omitempty"`
	Usage            models.CreditUsage             `json:"usage"`
	EstimatedCredits int                            `json:"estimated_credits"`
	FailedSports     []string                       `json:"failed_sports,omitempty"`
	MarketsEvaluated int                            `json:"markets_evaluated"`
	CacheExpiresAt   *time.Time                     `json:"cache_expires_at,omitempty"`
	Provenance       models.Provenance              `json:"provenance"`
}

// ScanService implements the estimate and confirmed-scan contracts
type ScanService struct {
	filter    *eligibility.Filter
	ingestion *IngestionService
	arbitrage *ArbitrageService
	provider  provider.OddsProvider
	estimates *eligibility.TTLCache
	audit     Auditor
	scanLog   *logger.ScanLogger
	now       func() time.Time
}

// NewScanService creates a new scan service. estimates may be nil to disable
// estimate caching.
func NewScanService(
	filter *eligibility.Filter,
	ingestion *IngestionService,
	arb *ArbitrageService,
	p provider.OddsProvider,
	estimates *eligibility.TTLCache,
	audit Auditor,
	log *logrus.Logger,
) *ScanService {
	return &ScanService{
		filter:    filter,
		ingestion: ingestion,
		arbitrage: arb,
		provider:  p,
		estimates: estimates,
		audit:     audit,
		scanLog:   logger.NewScanLogger(log),
		now:       time.Now,
	}
}

// Estimate returns the endpoints, requests and credits a scan with filter
// would cost. It makes no network calls and is deterministic for a given
// filter and eligibility snapshot.
func (s *ScanService) Estimate(filter ScanFilter) (*provider.Estimate, error) {
	plan, err := s.resolve(filter)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("v%d|%s|%s|%s|%t", s.filter.Snapshot().Version(),
		strings.Join(plan.Bookmakers, ","), strings.Join(plan.Sports, ","), strings.Join(plan.Markets, ","), plan.LiveOnly)
	if s.estimates != nil {
		if cached, ok := s.estimates.Get(key); ok {
			est := cached.(provider.Estimate).Clone()
			return &est, nil
		}
	}

	est := provider.EstimateCost(plan.Sports, plan.Markets, plan.Bookmakers)
	if s.estimates != nil {
		s.estimates.Set(key, est.Clone())
	}
	return &est, nil
}

// Scan runs a confirmed paid scan: fetch every sport, detect across every
// market, rank, persist and publish. Validation and eligibility failures are
// returned before any provider call.
func (s *ScanService) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	plan, err := s.resolve(req.Filter)
	if err != nil {
		metrics.RecordScan("manual", "rejected")
		return nil, err
	}
	if !req.Confirm {
		metrics.RecordScan("manual", "rejected")
		return nil, models.ErrConfirmationRequired
	}

	minProfit := s.arbitrage.MinProfitPct()
	if req.MinProfitPct != nil {
		if *req.MinProfitPct < 0 {
			return nil, models.InvalidInputf("min_profit_pct must not be negative")
		}
		minProfit = *req.MinProfitPct
	}

	estimate := provider.EstimateCost(plan.Sports, plan.Markets, plan.Bookmakers)
	if s.audit != nil {
		s.audit.LogScanConfirmed(req.Actor, req.Filter.Jurisdictions, plan.Sports, estimate.TotalCredits)
	}

	start := time.Now()
	plan.ScanID = fmt.Sprintf("scan-%d", start.UnixNano())
	outcome, err := s.ingestion.Run(ctx, plan)
	if err != nil {
		metrics.RecordScan("manual", "failed")
		return nil, err
	}

	now := s.now()
	constraint := Constraint{Jurisdictions: req.Filter.Jurisdictions, Bookmakers: plan.Bookmakers}
	opps, err := s.arbitrage.Evaluate(ctx, outcome.Markets, outcome.Quotes, constraint, minProfit, now)
	if err != nil {
		metrics.RecordScan("manual", "failed")
		return nil, err
	}
	if err := s.arbitrage.Persist(ctx, opps); err != nil {
		metrics.RecordScan("manual", "failed")
		return nil, err
	}

	result := &ScanResult{
		ScanID:           plan.ScanID,
		Opportunities:    opps,
		Pick:             arbitrage.Pick(opps),
		Usage:            outcome.Usage,
		EstimatedCredits: estimate.TotalCredits,
		FailedSports:     outcome.FailedSportNames(),
		MarketsEvaluated: len(outcome.Markets),
		CacheExpiresAt:   earliestExpiry(opps),
		Provenance:       s.provider.Provenance(),
	}

	s.scanLog.LogScanCompleted(plan.ScanID, outcome.SucceededSports, result.FailedSports,
		result.MarketsEvaluated, len(opps), result.Usage.Used, result.Usage.Remaining, time.Since(start))
	metrics.RecordScan("manual", "success")
	return result, nil
}

// resolve validates a filter and turns it into a fetch plan
func (s *ScanService) resolve(filter ScanFilter) (FetchPlan, error) {
	if len(filter.Jurisdictions) == 0 {
		return FetchPlan{}, models.InvalidInputf("at least one jurisdiction is required")
	}

	defaults := s.ingestion.Config()
	sports := cleanList(filter.Sports)
	if len(sports) == 0 {
		sports = cleanList(defaults.Sports)
	}
	if len(sports) == 0 {
		return FetchPlan{}, models.InvalidInputf("at least one sport is required")
	}

	markets := cleanList(filter.Markets)
	if len(markets) == 0 {
		markets = cleanList(defaults.Markets)
	}
	for _, m := range markets {
		if _, err := models.ParseMarketKind(m); err != nil {
			return FetchPlan{}, err
		}
	}

	books, err := s.filter.EligibleBookmakers(filter.Jurisdictions)
	if err != nil {
		return FetchPlan{}, err
	}
	if len(books) == 0 {
		return FetchPlan{}, models.ErrNoEligibleBookmakers
	}

	return FetchPlan{
		Sports:     sports,
		Markets:    markets,
		Bookmakers: books,
		LiveOnly:   filter.LiveOnly,
	}, nil
}

// earliestExpiry returns the shortest-lived opportunity's expiry
func earliestExpiry(opps []*models.ArbitrageOpportunity) *time.Time {
	var earliest *time.Time
	for _, o := range opps {
		if earliest == nil || o.ExpiresAt.Before(*earliest) {
			t := o.ExpiresAt
			earliest = &t
		}
	}
	return earliest
}

// cleanList lowercases, trims, dedupes and sorts
func cleanList(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
