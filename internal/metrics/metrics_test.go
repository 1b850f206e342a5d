package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistry(t *testing.T) {
	// Initialize the registry
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
}

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRecordBatch(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordBatch(0.25, 4, 3, 2, 1700000000)
	})
	body := scrape(t)
	assert.Contains(t, body, "clever_tipster_last_run_timestamp_seconds 1.7e+09")
	assert.Contains(t, body, "clever_tipster_batch_duration_seconds_count")
}

func TestRecordMatchSkipped(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name   string
		reason string
	}{
		{name: "missing odds", reason: "missing_odds"},
		{name: "malformed", reason: "malformed"},
		{name: "deadline", reason: "deadline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordMatchSkipped(tt.reason)
			})
			assert.Contains(t, scrape(t), `clever_tipster_matches_skipped_total{reason="`+tt.reason+`"}`)
		})
	}
}

func TestUpdateReliabilityWeight(t *testing.T) {
	InitRegistry()

	UpdateReliabilityWeight("lstm", 1.4)
	assert.Contains(t, scrape(t), `clever_tipster_reliability_weight{source_id="lstm"} 1.4`)
}

func TestRecordHistograms(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordEdgeScore(0.42)
		RecordOptimizerDuration(0.003)
		RecordFeedRequest("success", 0.1)
		RecordFeedEntryDropped("engine")
		RecordFeedback("roi")
	})
}

func TestMetricsHandler(t *testing.T) {
	InitRegistry()
	RecordMatchSkipped("missing_odds")

	handler := Handler()
	assert.NotNil(t, handler)
	assert.Implements(t, (*http.Handler)(nil), handler)

	assert.Contains(t, scrape(t), "clever_tipster_matches_skipped_total")
}

func BenchmarkRecordEdgeScore(b *testing.B) {
	InitRegistry()

	for i := 0; i < b.N; i++ {
		RecordEdgeScore(0.5)
	}
}
