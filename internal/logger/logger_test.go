package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevelsAndFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New("debug", "production", buf)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = New("nonsense", "development", buf)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestAuditRecord(t *testing.T) {
	log, buf := setupTestLogger()
	audit := NewAuditLogger(log)

	audit.Record("user-1", "bet.tracked", "bet-9", map[string]interface{}{"tracked": true})

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "audit", entry["component"])
	assert.Equal(t, "user-1", entry["actor"])
	assert.Equal(t, "bet.tracked", entry["action"])
	assert.Equal(t, "bet-9", entry["target"])
	assert.Equal(t, map[string]interface{}{"tracked": true}, entry["payload"])
}

func TestAuditLoggerSatisfiesSink(t *testing.T) {
	log, buf := setupTestLogger()
	var sink AuditSink = NewAuditLogger(log)

	sink.Record("system", "job.triggered", "cleanup", nil)

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	_, hasPayload := entry["payload"]
	assert.False(t, hasPayload)
}

func TestAuditScanConfirmed(t *testing.T) {
	log, buf := setupTestLogger()
	NewAuditLogger(log).LogScanConfirmed("cli", []string{"us-nj"}, []string{"basketball_nba"}, 3)

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "scan.confirmed", entry["action"])
	payload := entry["payload"].(map[string]interface{})
	assert.Equal(t, float64(3), payload["estimated_credits"])
}

func TestScanLoggerCompleted(t *testing.T) {
	log, buf := setupTestLogger()
	NewScanLogger(log).LogScanCompleted("scan-1", []string{"a", "b"}, []string{"b"}, 12, 2, 6, 494, 1500*time.Millisecond)

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "scan", entry["component"])
	assert.Equal(t, float64(1500), entry["duration_ms"])
	assert.Equal(t, float64(494), entry["credits_remaining"])
}

func TestScanLoggerJobRunFailure(t *testing.T) {
	log, buf := setupTestLogger()
	NewScanLogger(log).LogJobRun("ingest_live", "manual", "failed", time.Second, errors.New("boom"))

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "boom", entry["error"])
}
