// Package importer acquires catalog data from upstream sources, cleans it
// and loads it into the food catalog.
package importer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "nutrilog/importer"

// Record outcomes.
const (
	OutcomeWritten  = "written"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
	OutcomeImported = "imported"
	OutcomeRejected = "rejected"
)

// Metrics counts records per source and outcome and times load batches.
// A nil *Metrics records nothing.
type Metrics struct {
	records       metric.Int64Counter
	batchDuration metric.Float64Histogram
}

// NewMetrics creates the importer instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	records, err := meter.Int64Counter(
		"importer.records",
		metric.WithDescription("Records handled by the importer"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	batchDuration, err := meter.Float64Histogram(
		"importer.load.batch.duration",
		metric.WithDescription("Duration of catalog import batches"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{records: records, batchDuration: batchDuration}, nil
}

// Record adds n records with the given source and outcome.
func (m *Metrics) Record(ctx context.Context, source, outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.records.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	))
}

// ObserveBatch records how long one load batch took.
func (m *Metrics) ObserveBatch(ctx context.Context, d time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.batchDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.Bool("error", failed)))
}
