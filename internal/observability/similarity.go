package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SimilarityMetrics records similar-feedback lookups.
type SimilarityMetrics interface {
	RecordLookup(ctx context.Context, status string, duration time.Duration)
	RecordResultCount(ctx context.Context, count int)
}

type similarityMetrics struct {
	lookups  metric.Int64Counter
	results  metric.Int64Histogram
	duration metric.Float64Histogram
}

// NewSimilarityMetrics returns (nil, nil) when meter is nil.
func NewSimilarityMetrics(meter metric.Meter) (SimilarityMetrics, error) {
	if meter == nil {
		//nolint:nilnil // callers check "if metrics != nil"
		return nil, nil
	}

	lookups, err := newCounter(meter, MetricNameSimilarityLookups, "Similar-feedback lookups by status")
	if err != nil {
		return nil, err
	}

	results, err := meter.Int64Histogram(
		MetricNameSimilarityResults,
		metric.WithDescription("Number of similar records returned per lookup"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 4, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("create histogram %s: %w", MetricNameSimilarityResults, err)
	}

	duration, err := newSecondsHistogram(meter, MetricNameSimilarityDuration,
		"Similar-feedback lookup duration including embedding and hydration")
	if err != nil {
		return nil, err
	}

	return &similarityMetrics{lookups: lookups, results: results, duration: duration}, nil
}

func (s *similarityMetrics) RecordLookup(ctx context.Context, status string, duration time.Duration) {
	attrs := boundedAttr(AttrStatus, status, AllowedSimilarityStatus)
	s.lookups.Add(ctx, 1, attrs)
	s.duration.Record(ctx, duration.Seconds(), attrs)
}

func (s *similarityMetrics) RecordResultCount(ctx context.Context, count int) {
	s.results.Record(ctx, int64(count))
}
