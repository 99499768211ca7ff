package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// BackfillMetrics records embedding backfill runs.
type BackfillMetrics interface {
	RecordItems(ctx context.Context, status string, count int)
	RecordRunDuration(ctx context.Context, duration time.Duration)
}

type backfillMetrics struct {
	items    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewBackfillMetrics returns (nil, nil) when meter is nil.
func NewBackfillMetrics(meter metric.Meter) (BackfillMetrics, error) {
	if meter == nil {
		//nolint:nilnil // callers check "if metrics != nil"
		return nil, nil
	}

	items, err := newCounter(meter, MetricNameBackfillItems, "Backfilled records by status (processed, error)")
	if err != nil {
		return nil, err
	}

	duration, err := newSecondsHistogram(meter, MetricNameBackfillDuration, "Full backfill run duration")
	if err != nil {
		return nil, err
	}

	return &backfillMetrics{items: items, duration: duration}, nil
}

func (b *backfillMetrics) RecordItems(ctx context.Context, status string, count int) {
	if count <= 0 {
		return
	}

	b.items.Add(ctx, int64(count), boundedAttr(AttrStatus, status, AllowedBackfillStatus))
}

func (b *backfillMetrics) RecordRunDuration(ctx context.Context, duration time.Duration) {
	b.duration.Record(ctx, duration.Seconds())
}
