package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreditsFor(t *testing.T) {
	assert.Equal(t, 0, CreditsFor(0, 5))
	assert.Equal(t, 0, CreditsFor(3, 0))
	assert.Equal(t, 3, CreditsFor(3, 1))
	assert.Equal(t, 3, CreditsFor(3, 10))
	assert.Equal(t, 6, CreditsFor(3, 11))
	assert.Equal(t, 2, CreditsFor(1, 20))
}

func TestEstimateCost(t *testing.T) {
	est := EstimateCost(
		[]string{"basketball_nba", "americanfootball_nfl"},
		[]string{"totals", "h2h", "h2h"},
		[]string{"fanduel", "draftkings"},
	)

	assert.Equal(t, 2, est.TotalRequests)
	assert.Equal(t, 4, est.TotalCredits)
	assert.Equal(t, []string{"draftkings", "fanduel"}, est.EligibleBookmakers)
	assert.Equal(t, "/v4/sports/basketball_nba/odds", est.Endpoints[0].Path)
	assert.Equal(t, []string{"h2h", "totals"}, est.Endpoints[0].Markets)
	assert.Equal(t, 2, est.Endpoints[1].Credits)
}

func TestEstimateCostIsIdempotent(t *testing.T) {
	sports := []string{"soccer_epl", "basketball_nba"}
	markets := []string{"h2h", "spreads"}
	books := []string{"a", "b", "c"}

	first := EstimateCost(sports, markets, books)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, EstimateCost(sports, markets, books))
	}
	assert.Equal(t, first, EstimateCost(sports, []string{"spreads", "H2H"}, []string{"c", "b", "a", "a"}))
}
