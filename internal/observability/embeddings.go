package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// EmbeddingMetrics covers the embed-and-index path: the publisher provider that enqueues jobs and the
// worker that runs them.
type EmbeddingMetrics interface {
	RecordJobsEnqueued(ctx context.Context, count int64)
	RecordProviderError(ctx context.Context, reason string)
	RecordEmbeddingOutcome(ctx context.Context, status string, duration time.Duration)
	RecordWorkerError(ctx context.Context, reason string)
}

type embeddingMetrics struct {
	enqueued       metric.Int64Counter
	providerErrors metric.Int64Counter
	outcomes       metric.Int64Counter
	workerErrors   metric.Int64Counter
	duration       metric.Float64Histogram
}

// NewEmbeddingMetrics returns (nil, nil) when meter is nil.
func NewEmbeddingMetrics(meter metric.Meter) (EmbeddingMetrics, error) {
	if meter == nil {
		//nolint:nilnil // callers check "if metrics != nil"
		return nil, nil
	}

	m := &embeddingMetrics{}

	var err error
	if m.enqueued, err = newCounter(meter, MetricNameEmbeddingJobsEnqueued,
		"Embedding jobs enqueued for newly created feedback"); err != nil {
		return nil, err
	}

	if m.providerErrors, err = newCounter(meter, MetricNameEmbeddingProviderErrors,
		"Feedback events whose embedding job could not be enqueued"); err != nil {
		return nil, err
	}

	if m.outcomes, err = newCounter(meter, MetricNameEmbeddingOutcomes,
		"Embedding job attempts by status (success, skipped, retry, failed_final)"); err != nil {
		return nil, err
	}

	if m.workerErrors, err = newCounter(meter, MetricNameEmbeddingWorkerErrors,
		"Embedding job failures by stage (load record, provider call, vector upsert)"); err != nil {
		return nil, err
	}

	if m.duration, err = newSecondsHistogram(meter, MetricNameEmbeddingDuration,
		"Time spent on one embedding job attempt"); err != nil {
		return nil, err
	}

	return m, nil
}

func (e *embeddingMetrics) RecordJobsEnqueued(ctx context.Context, count int64) {
	e.enqueued.Add(ctx, count)
}

func (e *embeddingMetrics) RecordProviderError(ctx context.Context, reason string) {
	e.providerErrors.Add(ctx, 1, boundedAttr(AttrReason, reason, AllowedEmbeddingProviderReason))
}

func (e *embeddingMetrics) RecordEmbeddingOutcome(ctx context.Context, status string, duration time.Duration) {
	attrs := boundedAttr(AttrStatus, status, allowedEmbeddingOutcome)
	e.outcomes.Add(ctx, 1, attrs)
	e.duration.Record(ctx, duration.Seconds(), attrs)
}

func (e *embeddingMetrics) RecordWorkerError(ctx context.Context, reason string) {
	e.workerErrors.Add(ctx, 1, boundedAttr(AttrReason, reason, AllowedEmbeddingWorkerReason))
}
