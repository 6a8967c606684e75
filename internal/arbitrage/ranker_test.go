package arbitrage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/arb-hedger/internal/models"
)

func opp(id string, profit, confidence float64, expiresIn time.Duration) *models.ArbitrageOpportunity {
	return &models.ArbitrageOpportunity{
		MarketID:     id,
		LockedProfit: profit,
		Confidence:   confidence,
		ExpiresAt:    testNow.Add(expiresIn),
	}
}

func ids(opps []*models.ArbitrageOpportunity) []string {
	out := make([]string, len(opps))
	for i, o := range opps {
		out[i] = o.MarketID
	}
	return out
}

func TestRankOrdering(t *testing.T) {
	input := []*models.ArbitrageOpportunity{
		opp("small", 3.10, 0.9, time.Minute),
		opp("big", 12.50, 0.2, time.Minute),
		opp("tie-low-conf", 8.00, 0.5, time.Minute),
		opp("tie-high-conf-late", 8.00, 0.7, 2*time.Minute),
		opp("tie-high-conf-early", 8.00, 0.7, 30*time.Second),
		nil,
	}

	ranked := Rank(input)
	assert.Equal(t, []string{"big", "tie-high-conf-early", "tie-high-conf-late", "tie-low-conf", "small"}, ids(ranked))
	assert.Equal(t, "small", input[0].MarketID, "input must not be reordered")
}

func TestRankIsMonotonic(t *testing.T) {
	ranked := Rank([]*models.ArbitrageOpportunity{
		opp("a", 1, 0.1, time.Minute),
		opp("b", 5, 0.1, time.Minute),
		opp("c", 3, 0.1, time.Minute),
		opp("d", 5, 0.9, time.Minute),
	})
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].LockedProfit, ranked[i].LockedProfit)
	}
}

func TestPick(t *testing.T) {
	assert.Nil(t, Pick(nil))
	assert.Nil(t, Pick([]*models.ArbitrageOpportunity{}))

	best := Pick([]*models.ArbitrageOpportunity{
		opp("a", 2, 0.5, time.Minute),
		opp("b", 9, 0.5, time.Minute),
	})
	assert.Equal(t, "b", best.MarketID)
}
