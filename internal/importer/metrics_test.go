package importer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/nutrilog/nutrilog/internal/importer"
)

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := importer.NewMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	metrics.Record(ctx, importer.SourceRetailer, importer.OutcomeWritten, 3)
	metrics.Record(ctx, importer.SourceRetailer, importer.OutcomeWritten, 2)
	metrics.Record(ctx, importer.SourceRetailer, importer.OutcomeFailed, 0)
	metrics.ObserveBatch(ctx, 250*time.Millisecond, false)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = true
			if m.Name != "importer.records" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			require.Len(t, sum.DataPoints, 1, "zero counts are not recorded")
			assert.Equal(t, int64(5), sum.DataPoints[0].Value)
			outcome, _ := sum.DataPoints[0].Attributes.Value(attribute.Key("outcome"))
			assert.Equal(t, importer.OutcomeWritten, outcome.AsString())
		}
	}
	assert.True(t, found["importer.records"])
	assert.True(t, found["importer.load.batch.duration"])
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var metrics *importer.Metrics
	assert.NotPanics(t, func() {
		metrics.Record(context.Background(), importer.SourceCatalog, importer.OutcomeImported, 1)
		metrics.ObserveBatch(context.Background(), time.Second, true)
	})
}
