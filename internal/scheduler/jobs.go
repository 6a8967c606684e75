package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/arb-hedger/internal/config"
	"github.com/yourusername/arb-hedger/internal/metrics"
	"github.com/yourusername/arb-hedger/internal/service"
)

// Job names
const (
	JobIngestPrematch     = "ingest_prematch"
	JobIngestLive         = "ingest_live"
	JobArbitrageRecompute = "arbitrage_recompute"
	JobHedgeReevaluate    = "hedge_reevaluate"
	JobCleanup            = "cleanup"
)

// Ingester fetches and stores fresh quotes
type Ingester interface {
	Ingest(ctx context.Context, liveOnly bool) (*service.FetchOutcome, error)
}

// Recomputer re-runs arbitrage detection over stored quotes
type Recomputer interface {
	Recompute(ctx context.Context) (*service.RecomputeResult, error)
}

// HedgeEvaluator re-checks tracked bets
type HedgeEvaluator interface {
	Reevaluate(ctx context.Context) (*service.HedgeRunResult, error)
}

// Cleaner purges expired rows
type Cleaner interface {
	Run(ctx context.Context) (*service.CleanupResult, error)
}

// Services are the job bodies the engine schedules
type Services struct {
	Ingestion Ingester
	Arbitrage Recomputer
	Hedge     HedgeEvaluator
	Cleanup   Cleaner
}

// RegisterEngineJobs registers the five engine jobs at their configured cadences
func RegisterEngineJobs(s *Scheduler, svc Services, cfg config.ScheduleConfig) error {
	jobs := []struct {
		name     string
		interval int
		fn       JobFunc
	}{
		{JobIngestPrematch, cfg.PrematchIntervalSeconds, ingestJob(svc.Ingestion, false)},
		{JobIngestLive, cfg.LiveIntervalSeconds, ingestJob(svc.Ingestion, true)},
		{JobArbitrageRecompute, cfg.ArbitrageIntervalSeconds, recomputeJob(svc.Arbitrage)},
		{JobHedgeReevaluate, cfg.HedgeIntervalSeconds, hedgeJob(svc.Hedge)},
		{JobCleanup, cfg.CleanupIntervalSeconds, cleanupJob(svc.Cleanup)},
	}

	for _, j := range jobs {
		if err := s.Register(j.name, time.Duration(j.interval)*time.Second, 0, j.fn); err != nil {
			return err
		}
	}
	return nil
}

func ingestJob(svc Ingester, liveOnly bool) JobFunc {
	trigger := "prematch"
	if liveOnly {
		trigger = "live"
	}
	return func(ctx context.Context) (string, error) {
		outcome, err := svc.Ingest(ctx, liveOnly)
		if err != nil {
			metrics.RecordScan(trigger, "failed")
			return "", err
		}
		metrics.RecordScan(trigger, "success")

		summary := fmt.Sprintf("markets=%d quotes=%d credits_used=%d credits_remaining=%d",
			len(outcome.Markets), len(outcome.Quotes), outcome.Usage.Used, outcome.Usage.Remaining)
		if failed := outcome.FailedSportNames(); len(failed) > 0 {
			summary += " failed_sports=" + strings.Join(failed, ",")
		}
		return summary, nil
	}
}

func recomputeJob(svc Recomputer) JobFunc {
	return func(ctx context.Context) (string, error) {
		result, err := svc.Recompute(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("markets=%d opportunities=%d", result.MarketsEvaluated, len(result.Opportunities)), nil
	}
}

func hedgeJob(svc HedgeEvaluator) JobFunc {
	return func(ctx context.Context) (string, error) {
		result, err := svc.Reevaluate(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("evaluated=%d suggested=%d failed=%d", result.Evaluated, result.Suggested, result.Failed), nil
	}
}

func cleanupJob(svc Cleaner) JobFunc {
	return func(ctx context.Context) (string, error) {
		result, err := svc.Run(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("opportunities=%d hedges=%d quotes=%d", result.Opportunities, result.Hedges, result.Quotes), nil
	}
}
