// Package metrics provides the centralized Prometheus metrics registry for the engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "arb_hedger"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	ScansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scans_total",
		Help:      "Total number of odds scans by outcome",
	}, []string{"trigger", "status"})
	SportFetchFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sport_fetch_failures_total",
		Help:      "Provider fetches that failed or timed out, per sport",
	}, []string{"sport"})
	QuotesIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quotes_ingested_total",
		Help:      "Total number of quotes stored",
	})
	OpportunitiesDetectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "opportunities_detected_total",
		Help:      "Total number of arbitrage opportunities detected",
	}, []string{"provenance"})
	HedgeSuggestionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hedge_suggestions_total",
		Help:      "Total number of hedge suggestions emitted",
	})
	JobRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_runs_total",
		Help:      "Total number of job runs by terminal state",
	}, []string{"job", "state"})
	BudgetRefusalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "budget_refusals_total",
		Help:      "Paid runs refused by the budget policy",
	}, []string{"job"})
	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of provider circuit breaker trips",
	})
)

// Gauge metrics
var (
	CreditsRemaining = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "credits_remaining",
		Help:      "Provider credits remaining",
	})
	CreditsUsed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "credits_used",
		Help:      "Provider credits used",
	})
	ActiveOpportunities = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_opportunities",
		Help:      "Opportunities found by the latest recompute",
	})
	BestProfitPct = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "best_profit_pct",
		Help:      "Profit percentage of the top ranked opportunity",
	})
	TrackedBets = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tracked_bets",
		Help:      "User bets under hedge monitoring",
	})
)

// Histogram metrics
var (
	JobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Duration of job runs in seconds",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
	}, []string{"job"})
	ProviderLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_latency_seconds",
		Help:      "Latency of provider fetches per sport in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"sport"})
	DetectionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "detection_duration_seconds",
		Help:      "Duration of one detection pass across markets",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(ScansTotal)
		registry.MustRegister(SportFetchFailuresTotal)
		registry.MustRegister(QuotesIngestedTotal)
		registry.MustRegister(OpportunitiesDetectedTotal)
		registry.MustRegister(HedgeSuggestionsTotal)
		registry.MustRegister(JobRunsTotal)
		registry.MustRegister(BudgetRefusalsTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)

		registry.MustRegister(CreditsRemaining)
		registry.MustRegister(CreditsUsed)
		registry.MustRegister(ActiveOpportunities)
		registry.MustRegister(BestProfitPct)
		registry.MustRegister(TrackedBets)

		registry.MustRegister(JobDuration)
		registry.MustRegister(ProviderLatency)
		registry.MustRegister(DetectionDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordScan records a completed or failed scan.
func RecordScan(trigger, status string) {
	ScansTotal.WithLabelValues(trigger, status).Inc()
}

// RecordSportFailure records one failed sport fetch.
func RecordSportFailure(sport string) {
	SportFetchFailuresTotal.WithLabelValues(sport).Inc()
}

// RecordProviderLatency records the duration of one sport fetch.
func RecordProviderLatency(sport string, durationSeconds float64) {
	ProviderLatency.WithLabelValues(sport).Observe(durationSeconds)
}

// RecordQuotesIngested adds n stored quotes.
func RecordQuotesIngested(n int) {
	QuotesIngestedTotal.Add(float64(n))
}

// RecordOpportunity records one detected opportunity.
func RecordOpportunity(provenance string) {
	OpportunitiesDetectedTotal.WithLabelValues(provenance).Inc()
}

// RecordDetection records one detection pass and its result set.
func RecordDetection(durationSeconds float64, found int, bestProfitPct float64) {
	DetectionDuration.Observe(durationSeconds)
	ActiveOpportunities.Set(float64(found))
	BestProfitPct.Set(bestProfitPct)
}

// RecordHedgeSuggestion records one emitted hedge suggestion.
func RecordHedgeSuggestion() {
	HedgeSuggestionsTotal.Inc()
}

// UpdateTrackedBets sets the tracked bet gauge.
func UpdateTrackedBets(count int) {
	TrackedBets.Set(float64(count))
}

// RecordJobRun records a job's terminal state and duration.
func RecordJobRun(job, state string, durationSeconds float64) {
	JobRunsTotal.WithLabelValues(job, state).Inc()
	JobDuration.WithLabelValues(job).Observe(durationSeconds)
}

// RecordBudgetRefusal records a paid run refused by the budget policy.
func RecordBudgetRefusal(job string) {
	BudgetRefusalsTotal.WithLabelValues(job).Inc()
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}

// UpdateCredits sets the credit gauges.
func UpdateCredits(used, remaining int) {
	CreditsUsed.Set(float64(used))
	CreditsRemaining.Set(float64(remaining))
}
