package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordDecision(ctx, "donor_selection", "heuristic")
		m.RecordModelAttempts(ctx, "donor_selection", "fallback", 3)
		m.RecordExampleWrite(ctx, "donor_selection", "ok")
		m.RecordExport(ctx, "donor_selection", "train", 80)
		RecordRequestMetric(ctx, nil, "GET", "/health", 200, time.Millisecond)
	})
}

func TestMetrics_RecordsDecisionCounts(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordDecision(ctx, "urgency_assessment", "model")
	m.RecordDecision(ctx, "urgency_assessment", "model")
	m.RecordExport(ctx, "urgency_assessment", "train", 8)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if sum, ok := md.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[md.Name] += dp.Value
				}
			}
		}
	}

	assert.Equal(t, int64(2), totals["decision.count"])
	assert.Equal(t, int64(8), totals["training.export.records"])
}

func TestInitLogger_FallsBackToInfo(t *testing.T) {
	InitLogger("test", "production", "not-a-level")
	assert.NotNil(t, GetLogger())
	assert.NotNil(t, LoggerFromContext(context.Background()))
}
