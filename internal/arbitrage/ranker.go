package arbitrage

import (
	"sort"

	"github.com/yourusername/arb-hedger/internal/models"
)

// Rank returns a new slice ordered by locked profit in currency, then
// confidence, then earliest expiry. The input is left untouched.
func Rank(opps []*models.ArbitrageOpportunity) []*models.ArbitrageOpportunity {
	ranked := make([]*models.ArbitrageOpportunity, 0, len(opps))
	for _, o := range opps {
		if o != nil {
			ranked = append(ranked, o)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.LockedProfit != b.LockedProfit {
			return a.LockedProfit > b.LockedProfit
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.ExpiresAt.Before(b.ExpiresAt)
	})
	return ranked
}

// Pick returns the top-ranked opportunity, or nil when there is none
func Pick(opps []*models.ArbitrageOpportunity) *models.ArbitrageOpportunity {
	ranked := Rank(opps)
	if len(ranked) == 0 {
		return nil
	}
	return ranked[0]
}
