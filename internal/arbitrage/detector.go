// Package arbitrage finds sure-win price combinations on a single market and
// ranks them.
package arbitrage

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/arb-hedger/internal/models"
	"github.com/yourusername/arb-hedger/internal/oddsmath"
)

// Config holds detection and staking parameters
type Config struct {
	// Bankroll is the notional amount split across the legs
	Bankroll float64
	// SafetyMargin is subtracted from 1 to get the highest accepted total implied probability
	SafetyMargin     float64
	FreshnessCeiling time.Duration
	QuoteSaturation  int
	RecencyWeight    float64
	CountWeight      float64
	ValidityPrematch time.Duration
	ValidityLive     time.Duration
}

// DefaultConfig returns the stock detection parameters
func DefaultConfig() Config {
	return Config{
		Bankroll:         1000,
		SafetyMargin:     0.005,
		FreshnessCeiling: 5 * time.Minute,
		QuoteSaturation:  10,
		RecencyWeight:    0.6,
		CountWeight:      0.4,
		ValidityPrematch: 2 * time.Minute,
		ValidityLive:     30 * time.Second,
	}
}

// MaxTotalImplied is the exclusive upper bound on the summed implied probability
func (c Config) MaxTotalImplied() float64 {
	return 1 - c.SafetyMargin
}

// Detector evaluates one market at a time. It holds no mutable state and is
// safe for concurrent use.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Config returns the detector parameters
func (d *Detector) Config() Config {
	return d.cfg
}

// Detect evaluates market at the current time. See DetectAt.
func (d *Detector) Detect(market models.Market, quotes []models.Quote, minProfitPct float64) *models.ArbitrageOpportunity {
	return d.DetectAt(market, quotes, minProfitPct, time.Now())
}

// DetectAt returns an opportunity if the best price per outcome gives a total
// implied probability under MaxTotalImplied and a profit of at least
// minProfitPct. It returns nil when there is no opportunity, when the market
// has fewer than two outcomes, when any outcome is unquoted or when the legs'
// books share no jurisdiction.
func (d *Detector) DetectAt(market models.Market, quotes []models.Quote, minProfitPct float64, now time.Time) *models.ArbitrageOpportunity {
	if len(market.Outcomes) < 2 {
		return nil
	}

	best, considered := bestPrices(market, quotes)
	if len(best) != len(market.Outcomes) {
		return nil
	}

	legQuotes := make([]models.Quote, 0, len(market.Outcomes))
	prices := make([]float64, 0, len(market.Outcomes))
	for _, outcome := range market.Outcomes {
		q := best[outcome]
		legQuotes = append(legQuotes, q)
		prices = append(prices, q.Price)
	}

	jurisdictions, constrained := commonJurisdictions(legQuotes)
	if constrained && len(jurisdictions) == 0 {
		return nil
	}

	total := oddsmath.TotalImplied(prices)
	if total >= d.cfg.MaxTotalImplied() {
		return nil
	}

	profitPct := (1/total - 1) * 100
	if profitPct < minProfitPct {
		return nil
	}

	bankroll := d.cfg.Bankroll
	legs := make([]models.OpportunityLeg, 0, len(legQuotes))
	live := false
	simulated := false
	for _, q := range legQuotes {
		fraction := (1 / q.Price) / total
		legs = append(legs, models.OpportunityLeg{
			Sportsbook:    q.Sportsbook,
			OutcomeID:     q.OutcomeID,
			Price:         q.Price,
			StakeFraction: oddsmath.RoundTo(fraction, 6),
			Stake:         oddsmath.RoundCents(bankroll * fraction),
			CapturedAt:    q.CapturedAt,
			IsLive:        q.IsLive,
		})
		live = live || q.IsLive
		simulated = simulated || q.Provenance == models.ProvenanceSimulated
	}

	opp := &models.ArbitrageOpportunity{
		ID:            uuid.New(),
		EventID:       market.EventID,
		MarketID:      market.ID,
		Legs:          legs,
		TotalImplied:  oddsmath.RoundTo(total, 6),
		ProfitPct:     oddsmath.RoundTo(profitPct, 4),
		Bankroll:      bankroll,
		LockedProfit:  oddsmath.RoundCents(bankroll/total - bankroll),
		Confidence:    Confidence(d.cfg, legQuotes, considered, now),
		Jurisdictions: jurisdictions,
		Provenance:    models.ProvenanceLive,
	}
	if simulated {
		opp.Provenance = models.ProvenanceSimulated
	}

	validity := d.cfg.ValidityPrematch
	if live {
		validity = d.cfg.ValidityLive
	}
	opp.Stamp(now, validity)
	return opp
}

// bestPrices picks the highest price per outcome, preferring the most recent
// capture on ties. It also returns how many quotes were usable.
func bestPrices(market models.Market, quotes []models.Quote) (map[string]models.Quote, int) {
	best := make(map[string]models.Quote, len(market.Outcomes))
	considered := 0
	for _, q := range quotes {
		if q.MarketID != market.ID || !market.HasOutcome(q.OutcomeID) || q.Price <= 1 {
			continue
		}
		considered++
		cur, ok := best[q.OutcomeID]
		if !ok || q.Price > cur.Price || (q.Price == cur.Price && q.CapturedAt.After(cur.CapturedAt)) {
			best[q.OutcomeID] = q
		}
	}
	return best, considered
}

// commonJurisdictions returns the jurisdictions every leg's book is legal in
// and whether any leg carried jurisdiction data at all. Legs with no
// jurisdiction data do not narrow the set.
func commonJurisdictions(legs []models.Quote) ([]string, bool) {
	var common map[string]struct{}
	for _, q := range legs {
		if len(q.Jurisdictions) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(q.Jurisdictions))
		for _, j := range q.Jurisdictions {
			set[j] = struct{}{}
		}
		if common == nil {
			common = set
			continue
		}
		for j := range common {
			if _, ok := set[j]; !ok {
				delete(common, j)
			}
		}
	}
	out := make([]string, 0, len(common))
	for j := range common {
		out = append(out, j)
	}
	sort.Strings(out)
	return out, common != nil
}
