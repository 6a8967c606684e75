package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/yourusername/arb-hedger/internal/models"
	"github.com/yourusername/arb-hedger/internal/provider"
)

// MockQuoteRepository mocks the quote repository
type MockQuoteRepository struct {
	mock.Mock
}

func (m *MockQuoteRepository) InsertBatch(ctx context.Context, quotes []models.Quote) error {
	args := m.Called(ctx, quotes)
	return args.Error(0)
}

func (m *MockQuoteRepository) ListRecentByMarket(ctx context.Context, marketID string, since time.Time) ([]models.Quote, error) {
	args := m.Called(ctx, marketID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Quote), args.Error(1)
}

func (m *MockQuoteRepository) ListRecent(ctx context.Context, since time.Time) ([]models.Quote, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Quote), args.Error(1)
}

func (m *MockQuoteRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockMarketRepository mocks the market repository
type MockMarketRepository struct {
	mock.Mock
}

func (m *MockMarketRepository) Upsert(ctx context.Context, market *models.Market) error {
	args := m.Called(ctx, market)
	return args.Error(0)
}

func (m *MockMarketRepository) GetByID(ctx context.Context, id string) (*models.Market, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Market), args.Error(1)
}

func (m *MockMarketRepository) ListActive(ctx context.Context, startsAfter time.Time) ([]*models.Market, error) {
	args := m.Called(ctx, startsAfter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Market), args.Error(1)
}

// MockOpportunityRepository mocks the opportunity repository
type MockOpportunityRepository struct {
	mock.Mock
}

func (m *MockOpportunityRepository) InsertBatch(ctx context.Context, opps []*models.ArbitrageOpportunity) error {
	args := m.Called(ctx, opps)
	return args.Error(0)
}

func (m *MockOpportunityRepository) ListActive(ctx context.Context, now time.Time) ([]*models.ArbitrageOpportunity, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ArbitrageOpportunity), args.Error(1)
}

func (m *MockOpportunityRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserBetRepository mocks the user bet repository
type MockUserBetRepository struct {
	mock.Mock
}

func (m *MockUserBetRepository) Create(ctx context.Context, bet *models.UserBet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockUserBetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserBet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserBet), args.Error(1)
}

func (m *MockUserBetRepository) ListTracked(ctx context.Context) ([]*models.UserBet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserBet), args.Error(1)
}

func (m *MockUserBetRepository) UpdateTracking(ctx context.Context, id uuid.UUID, tracked bool) error {
	args := m.Called(ctx, id, tracked)
	return args.Error(0)
}

func (m *MockUserBetRepository) Settle(ctx context.Context, id uuid.UUID, status models.BetStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockHedgeRepository mocks the hedge suggestion repository
type MockHedgeRepository struct {
	mock.Mock
}

func (m *MockHedgeRepository) Create(ctx context.Context, s *models.HedgeSuggestion) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockHedgeRepository) ListByBet(ctx context.Context, betID uuid.UUID, now time.Time) ([]*models.HedgeSuggestion, error) {
	args := m.Called(ctx, betID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.HedgeSuggestion), args.Error(1)
}

func (m *MockHedgeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// fakeProvider serves canned per-sport results and counts calls
type fakeProvider struct {
	mu      sync.Mutex
	results map[string]*provider.FetchResult
	errs    map[string]error
	calls   atomic.Int32
	seen    []provider.FetchRequest
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		results: make(map[string]*provider.FetchResult),
		errs:    make(map[string]error),
	}
}

func (p *fakeProvider) FetchOdds(_ context.Context, req provider.FetchRequest) (*provider.FetchResult, error) {
	p.calls.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, req)
	if err, ok := p.errs[req.Sport]; ok {
		return nil, err
	}
	if res, ok := p.results[req.Sport]; ok {
		return res, nil
	}
	return &provider.FetchResult{Requests: 1}, nil
}

func (p *fakeProvider) Name() string                  { return "fake" }
func (p *fakeProvider) Provenance() models.Provenance { return models.ProvenanceLive }

// fakeAuditor records audit calls
type fakeAuditor struct {
	mu      sync.Mutex
	entries []string
}

func (a *fakeAuditor) LogScanConfirmed(actor string, _, _ []string, _ int) {
	a.add("scan.confirmed:" + actor)
}

func (a *fakeAuditor) LogBetStateChange(actor, betID, oldState, newState string) {
	a.add("bet:" + oldState + "->" + newState)
}

func (a *fakeAuditor) LogManualTrigger(actor, jobName string) {
	a.add("job:" + jobName)
}

func (a *fakeAuditor) add(s string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, s)
}

func (a *fakeAuditor) Entries() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.entries...)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}
