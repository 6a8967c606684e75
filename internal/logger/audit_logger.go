// Package logger provides audit logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// AuditSink records who did what to which object
type AuditSink interface {
	Record(actor, action, target string, payload map[string]interface{})
}

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// Record writes one audit entry.
func (al *AuditLogger) Record(actor, action, target string, payload map[string]interface{}) {
	fields := logrus.Fields{
		"actor":  actor,
		"action": action,
		"target": target,
	}
	if len(payload) > 0 {
		fields["payload"] = payload
	}
	al.WithFields(fields).Info("Audit event recorded")
}

// LogScanConfirmed logs a caller's confirmation of a paid scan.
func (al *AuditLogger) LogScanConfirmed(actor string, jurisdictions, sports []string, estimatedCredits int) {
	al.Record(actor, "scan.confirmed", "provider", map[string]interface{}{
		"jurisdictions":     jurisdictions,
		"sports":            sports,
		"estimated_credits": estimatedCredits,
	})
}

// LogBetStateChange logs a user bet tracking or settlement change.
func (al *AuditLogger) LogBetStateChange(actor, betID, oldState, newState string) {
	al.Record(actor, "bet.state_changed", betID, map[string]interface{}{
		"old_state": oldState,
		"new_state": newState,
	})
}

// LogManualTrigger logs an on-demand job run.
func (al *AuditLogger) LogManualTrigger(actor, jobName string) {
	al.Record(actor, "job.triggered", jobName, nil)
}
