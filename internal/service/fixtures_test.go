package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/arb-hedger/internal/arbitrage"
	"github.com/yourusername/arb-hedger/internal/budget"
	"github.com/yourusername/arb-hedger/internal/eligibility"
	"github.com/yourusername/arb-hedger/internal/models"
	"github.com/yourusername/arb-hedger/internal/provider"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testMapping() map[string][]string {
	return map[string][]string{
		"us-nj": {"draftkings", "fanduel", "betmgm"},
		"us-ny": {"draftkings", "fanduel"},
		"us-xx": {"pointsbet"},
	}
}

func testFilter() *eligibility.Filter {
	return eligibility.NewFilter(eligibility.NewRegistry(testMapping()), nil, nil)
}

// arbEvent builds a moneyline event priced 2.15 / 1.90 across two books
func arbEvent(id string, startsAt time.Time, capturedAt time.Time) models.Event {
	evt, _ := models.NewEvent(id, "basketball", "nba", "Home", "Away", startsAt)
	m, _ := models.NewMarket(id, models.MarketKindMoneyline, nil, []string{"home", "away"}, startsAt)
	_ = m.AddQuote(models.Quote{ID: uuid.New(), EventID: id, MarketID: m.ID, Sportsbook: "draftkings", OutcomeID: "home", Price: 2.15, CapturedAt: capturedAt, Provenance: models.ProvenanceLive})
	_ = m.AddQuote(models.Quote{ID: uuid.New(), EventID: id, MarketID: m.ID, Sportsbook: "fanduel", OutcomeID: "away", Price: 1.90, CapturedAt: capturedAt, Provenance: models.ProvenanceLive})
	_ = m.AddQuote(models.Quote{ID: uuid.New(), EventID: id, MarketID: m.ID, Sportsbook: "fanduel", OutcomeID: "home", Price: 2.00, CapturedAt: capturedAt, Provenance: models.ProvenanceLive})
	evt.AddMarket(m)
	return *evt
}

func testIngestionConfig() IngestionConfig {
	return IngestionConfig{
		Sports:        []string{"basketball_nba"},
		Markets:       []string{"h2h"},
		Jurisdictions: []string{"us-nj", "us-ny"},
		FetchTimeout:  time.Second,
		QuoteMaxAge:   10 * time.Minute,
	}
}

func testTracker(limit int) *budget.Tracker {
	return budget.NewTracker(budget.Config{Limit: limit, Policy: budget.PolicySkip})
}

type scanFixture struct {
	provider *fakeProvider
	quotes   *MockQuoteRepository
	markets  *MockMarketRepository
	opps     *MockOpportunityRepository
	audit    *fakeAuditor
	tracker  *budget.Tracker
	scan     *ScanService
}

func newScanFixture(limit int) *scanFixture {
	f := &scanFixture{
		provider: newFakeProvider(),
		quotes:   new(MockQuoteRepository),
		markets:  new(MockMarketRepository),
		opps:     new(MockOpportunityRepository),
		audit:    &fakeAuditor{},
		tracker:  testTracker(limit),
	}
	log := quietLogger()
	filter := testFilter()

	ingestion := NewIngestionService(f.provider, filter, f.quotes, f.markets, f.tracker, testIngestionConfig(), log)
	ingestion.now = func() time.Time { return testNow }

	arb := NewArbitrageService(arbitrage.NewDetector(arbitrage.DefaultConfig()), filter, f.quotes, f.markets, f.opps, nil,
		ArbitrageConfig{MinProfitPct: 0.1, QuoteMaxAge: 10 * time.Minute, Workers: 2, Jurisdictions: []string{"us-nj"}}, log)
	arb.now = func() time.Time { return testNow }

	f.scan = NewScanService(filter, ingestion, arb, f.provider, eligibility.NewTTLCache(time.Minute, nil), f.audit, log)
	f.scan.now = func() time.Time { return testNow }
	return f
}

func reportedResult(events ...models.Event) *provider.FetchResult {
	return &provider.FetchResult{
		Events:   events,
		Usage:    models.CreditUsage{Used: 12, Remaining: 488, Reported: true},
		Requests: 1,
	}
}
