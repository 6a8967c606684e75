// Package logger provides scan-specific logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ScanLogger provides dedicated logging for scans, detection and hedging.
type ScanLogger struct {
	*logrus.Entry
}

// NewScanLogger creates a new scan logger.
func NewScanLogger(baseLogger *logrus.Logger) *ScanLogger {
	return &ScanLogger{
		Entry: baseLogger.WithField("component", "scan"),
	}
}

// LogScanCompleted logs the outcome of one scan.
func (sl *ScanLogger) LogScanCompleted(scanID string, sports, failedSports []string, marketsEvaluated, opportunities, creditsUsed, creditsRemaining int, duration time.Duration) {
	sl.WithFields(logrus.Fields{
		"scan_id":           scanID,
		"sports":            sports,
		"failed_sports":     failedSports,
		"markets_evaluated": marketsEvaluated,
		"opportunities":     opportunities,
		"credits_used":      creditsUsed,
		"credits_remaining": creditsRemaining,
		"duration_ms":       duration.Milliseconds(),
	}).Info("Scan completed")
}

// LogSportFailed logs a sport whose fetch failed; the scan continues without it.
func (sl *ScanLogger) LogSportFailed(scanID, sport string, err error) {
	sl.WithFields(logrus.Fields{
		"scan_id": scanID,
		"sport":   sport,
	}).WithError(err).Warn("Sport fetch failed")
}

// LogOpportunity logs a detected arbitrage opportunity.
func (sl *ScanLogger) LogOpportunity(marketID string, profitPct, lockedProfit, confidence float64, legs int, provenance string) {
	sl.WithFields(logrus.Fields{
		"market_id":     marketID,
		"profit_pct":    profitPct,
		"locked_profit": lockedProfit,
		"confidence":    confidence,
		"legs":          legs,
		"provenance":    provenance,
	}).Info("Arbitrage opportunity detected")
}

// LogHedgeSuggestion logs an emitted hedge suggestion.
func (sl *ScanLogger) LogHedgeSuggestion(betID string, lockedLow, lockedHigh, confidence float64) {
	sl.WithFields(logrus.Fields{
		"bet_id":      betID,
		"locked_low":  lockedLow,
		"locked_high": lockedHigh,
		"confidence":  confidence,
	}).Info("Hedge suggestion emitted")
}

// LogJobRun logs a finished scheduler job run.
func (sl *ScanLogger) LogJobRun(job, trigger, state string, duration time.Duration, err error) {
	entry := sl.WithFields(logrus.Fields{
		"job":         job,
		"trigger":     trigger,
		"state":       state,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Error("Job run failed")
		return
	}
	entry.Info("Job run finished")
}
