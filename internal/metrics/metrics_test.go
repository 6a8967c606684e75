package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordScan(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(ScansTotal.WithLabelValues("manual", "success"))

	RecordScan("manual", "success")

	assert.Equal(t, before+1, testutil.ToFloat64(ScansTotal.WithLabelValues("manual", "success")))
}

func TestUpdateCredits(t *testing.T) {
	tests := []struct {
		name      string
		used      int
		remaining int
	}{
		{"fresh budget", 0, 500},
		{"partly used", 120, 380},
		{"exhausted", 500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			UpdateCredits(tt.used, tt.remaining)
			assert.Equal(t, float64(tt.used), testutil.ToFloat64(CreditsUsed))
			assert.Equal(t, float64(tt.remaining), testutil.ToFloat64(CreditsRemaining))
		})
	}
}

func TestRecordDetection(t *testing.T) {
	RecordDetection(0.2, 3, 1.25)

	assert.Equal(t, 3.0, testutil.ToFloat64(ActiveOpportunities))
	assert.Equal(t, 1.25, testutil.ToFloat64(BestProfitPct))
}

func TestRecordJobRunAndRefusal(t *testing.T) {
	before := testutil.ToFloat64(JobRunsTotal.WithLabelValues("cleanup", "success"))
	RecordJobRun("cleanup", "success", 0.01)
	assert.Equal(t, before+1, testutil.ToFloat64(JobRunsTotal.WithLabelValues("cleanup", "success")))

	assert.NotPanics(t, func() {
		RecordBudgetRefusal("ingest_live")
		RecordSportFailure("basketball_nba")
		RecordProviderLatency("basketball_nba", 0.3)
		RecordQuotesIngested(12)
		RecordOpportunity("live")
		RecordHedgeSuggestion()
		UpdateTrackedBets(4)
		RecordCircuitBreakerTrip()
	})
}

func TestMetricsHandler(t *testing.T) {
	RecordScan("scheduled", "success")

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "arb_hedger_scans_total")
}

func BenchmarkRecordOpportunity(b *testing.B) {
	InitRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		RecordOpportunity("live")
	}
}
