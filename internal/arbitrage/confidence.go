package arbitrage

import (
	"math"
	"time"

	"github.com/yourusername/arb-hedger/internal/models"
	"github.com/yourusername/arb-hedger/internal/oddsmath"
)

// Confidence blends leg recency and quote depth into [0, 1]:
//
//	recency = mean over legs of max(0, 1 - age/FreshnessCeiling)
//	count   = min(quoteCount/QuoteSaturation, 1)
func Confidence(cfg Config, legs []models.Quote, quoteCount int, now time.Time) float64 {
	if len(legs) == 0 {
		return 0
	}

	recency := 0.0
	if cfg.FreshnessCeiling > 0 {
		for _, q := range legs {
			age := q.Age(now)
			recency += math.Max(0, 1-float64(age)/float64(cfg.FreshnessCeiling))
		}
		recency /= float64(len(legs))
	}

	count := 1.0
	if cfg.QuoteSaturation > 0 {
		count = math.Min(float64(quoteCount)/float64(cfg.QuoteSaturation), 1)
	}

	c := cfg.RecencyWeight*recency + cfg.CountWeight*count
	return oddsmath.RoundTo(math.Max(0, math.Min(1, c)), 4)
}
