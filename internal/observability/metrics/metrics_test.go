package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("document_id", "123"),
		attribute.String("generator", "template"),
		attribute.String("outcome", "success"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "document_id" {
			t.Fatalf("expected document_id to be dropped")
		}
	}
}

func TestRecordTransaction(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := New(Config{ServiceName: "test"}, provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordTransaction(ctx, GeneratorTemplate, "SALES_INVOICE", OutcomeSuccess, 3)
	m.RecordTransaction(ctx, GeneratorTemplate, "SALES_INVOICE", OutcomeUnbalanced, 0)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, mt := range sm.Metrics {
			data, ok := mt.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range data.DataPoints {
				sums[mt.Name] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), sums["taxledger_transactions_total"])
	assert.Equal(t, int64(3), sums["taxledger_ledger_entries_total"])
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordTransaction(context.Background(), GeneratorTotals, "X", OutcomeError, 1)
	m.RecordTaxCalculation(context.Background(), "X", OutcomeSuccess)
}
