package hedge

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/arb-hedger/internal/models"
)

var testNow = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

func trackedBet(stake, price float64) models.UserBet {
	return models.UserBet{
		ID:            uuid.New(),
		UserID:        "user-1",
		EventID:       "evt-1",
		MarketID:      "evt-1:moneyline",
		Sportsbook:    "bookA",
		OutcomeID:     "home",
		Stake:         stake,
		PriceAtBet:    price,
		IsTracked:     true,
		Status:        models.BetStatusPending,
		EventStartsAt: testNow.Add(time.Hour),
	}
}

func opposing(book, outcome string, price float64, age time.Duration) models.Quote {
	return models.Quote{
		EventID:    "evt-1",
		MarketID:   "evt-1:moneyline",
		Sportsbook: book,
		OutcomeID:  outcome,
		Price:      price,
		CapturedAt: testNow.Add(-age),
	}
}

func TestCalculateHedgeScenario(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	bet := trackedBet(100, 2.20)

	s := calc.CalculateHedge(bet, nil, []models.Quote{
		opposing("bookB", "away", 1.95, time.Minute),
		opposing("bookC", "away", 1.80, time.Minute),
	}, testNow)

	require.NotNil(t, s)
	require.Len(t, s.Legs, 1)
	assert.Equal(t, "bookB", s.Legs[0].Sportsbook)
	assert.Equal(t, 112.82, s.Legs[0].Stake)
	assert.Equal(t, 7.18, s.LockedProfitLow)
	assert.Equal(t, 7.18, s.LockedProfitHigh)
	assert.Equal(t, bet.ID, s.BetID)
	assert.Equal(t, testNow.Add(60*time.Second), s.ExpiresAt)
	assert.Equal(t, 1.0, s.Confidence)
	assert.Contains(t, s.Rationale, "bookB")
}

func TestCalculateHedgeSuppressedWithoutProfit(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	s := calc.CalculateHedge(trackedBet(100, 1.80), nil, []models.Quote{
		opposing("bookB", "away", 2.10, 0),
	}, testNow)
	assert.Nil(t, s)

	// 2.00 vs 2.00 breaks even: zero is not a locked profit
	s = calc.CalculateHedge(trackedBet(100, 2.00), nil, []models.Quote{
		opposing("bookB", "away", 2.00, 0),
	}, testNow)
	assert.Nil(t, s)
}

func TestCalculateHedgePreconditions(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	quotes := []models.Quote{opposing("bookB", "away", 1.95, 0)}

	untracked := trackedBet(100, 2.20)
	untracked.IsTracked = false
	assert.Nil(t, calc.CalculateHedge(untracked, nil, quotes, testNow))

	settled := trackedBet(100, 2.20)
	settled.Status = models.BetStatusWon
	assert.Nil(t, calc.CalculateHedge(settled, nil, quotes, testNow))

	started := trackedBet(100, 2.20)
	started.EventStartsAt = testNow.Add(-time.Minute)
	assert.Nil(t, calc.CalculateHedge(started, nil, quotes, testNow))

	assert.Nil(t, calc.CalculateHedge(trackedBet(100, 2.20), nil, nil, testNow))

	sameSide := []models.Quote{opposing("bookB", "home", 3.0, 0)}
	assert.Nil(t, calc.CalculateHedge(trackedBet(100, 2.20), nil, sameSide, testNow))

	otherMarket := opposing("bookB", "away", 1.95, 0)
	otherMarket.MarketID = "evt-9:moneyline"
	assert.Nil(t, calc.CalculateHedge(trackedBet(100, 2.20), nil, []models.Quote{otherMarket}, testNow))
}

func TestCalculateHedgeLockedLowAlwaysPositive(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	prices := []float64{1.2, 1.5, 1.8, 1.95, 2.0, 2.2, 2.6, 3.5, 6.0}

	for _, betPrice := range prices {
		for _, hedgePrice := range prices {
			s := calc.CalculateHedge(trackedBet(50, betPrice), nil, []models.Quote{
				opposing("bookB", "away", hedgePrice, 0),
			}, testNow)
			if s != nil {
				assert.Greater(t, s.LockedProfitLow, 0.0, "bet %.2f hedge %.2f", betPrice, hedgePrice)
				assert.LessOrEqual(t, s.LockedProfitLow, s.LockedProfitHigh)
			}
		}
	}
}

func TestCalculateHedgeThreeWayMarket(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	market, err := models.NewMarket("evt-1", models.MarketKindMoneyline, nil, []string{"home", "draw", "away"}, testNow.Add(time.Hour))
	require.NoError(t, err)

	quotes := []models.Quote{
		opposing("bookB", "draw", 4.5, 0),
		opposing("bookC", "away", 3.0, 0),
		opposing("bookD", "away", 2.8, 0),
	}

	s := calc.CalculateHedge(trackedBet(100, 4.0), market, quotes, testNow)
	require.NotNil(t, s)
	require.Len(t, s.Legs, 2)
	assert.Equal(t, "draw", s.Legs[0].OutcomeID)
	assert.Equal(t, "away", s.Legs[1].OutcomeID)
	assert.Equal(t, "bookC", s.Legs[1].Sportsbook)
	assert.InDelta(t, 77.78, s.LockedProfitLow, 0.02)
	assert.InDelta(t, 77.78, s.LockedProfitHigh, 0.02)

	// an unquoted opposing outcome means no guarantee is possible
	s = calc.CalculateHedge(trackedBet(100, 4.0), market, quotes[:1], testNow)
	assert.Nil(t, s)
}

func TestConfidenceDecaysToFloor(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	assert.Equal(t, 1.0, calc.Confidence(0))
	assert.Equal(t, 1.0, calc.Confidence(5*time.Minute))
	assert.InDelta(t, 0.65, calc.Confidence(10*time.Minute), 1e-4)
	assert.Equal(t, 0.3, calc.Confidence(15*time.Minute))
	assert.Equal(t, 0.3, calc.Confidence(24*time.Hour))

	prev := 1.0
	for age := time.Duration(0); age < 20*time.Minute; age += 30 * time.Second {
		c := calc.Confidence(age)
		assert.LessOrEqual(t, c, prev)
		assert.GreaterOrEqual(t, c, 0.3)
		prev = c
	}
}

func TestCalculateHedgeUsesStalestLegForConfidence(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	s := calc.CalculateHedge(trackedBet(100, 2.20), nil, []models.Quote{
		opposing("bookB", "away", 1.95, 15*time.Minute),
	}, testNow)

	require.NotNil(t, s)
	assert.Equal(t, 0.3, s.Confidence)
}
