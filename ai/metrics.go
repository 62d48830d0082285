package ai

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/icco/spot/ai"

// engineMetrics are recorded on the global meter provider, so they go
// wherever the binary points otel.
type engineMetrics struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

func newEngineMetrics() *engineMetrics {
	meter := otel.Meter(meterName)

	// The names are constant, so these cannot fail.
	requests, _ := meter.Int64Counter(
		"spot.engine.requests",
		metric.WithDescription("Calls made to the move generator."),
	)
	latency, _ := meter.Float64Histogram(
		"spot.engine.latency",
		metric.WithDescription("Time spent waiting on the move generator."),
		metric.WithUnit("s"),
	)

	return &engineMetrics{requests: requests, latency: latency}
}

func (m *engineMetrics) record(ctx context.Context, op, result string, started time.Time) {
	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("result", result),
	)
	m.requests.Add(ctx, 1, attrs)
	m.latency.Record(ctx, time.Since(started).Seconds(), attrs)
}
