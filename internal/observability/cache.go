package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CacheMetrics counts cache lookups by cache name and result (hit, miss).
type CacheMetrics interface {
	RecordLookup(ctx context.Context, cacheName string, hit bool)
}

type cacheMetrics struct {
	lookups metric.Int64Counter
}

// NewCacheMetrics returns (nil, nil) when meter is nil.
func NewCacheMetrics(meter metric.Meter) (CacheMetrics, error) {
	if meter == nil {
		//nolint:nilnil // callers check "if metrics != nil"
		return nil, nil
	}

	lookups, err := newCounter(meter, MetricNameCacheLookups,
		"Cache lookups. Hit ratio = rate(result=hit) / rate(all). A miss means the embedding provider was called.")
	if err != nil {
		return nil, err
	}

	return &cacheMetrics{lookups: lookups}, nil
}

func (c *cacheMetrics) RecordLookup(ctx context.Context, cacheName string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}

	c.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrCache, NormalizeCacheName(cacheName)),
		attribute.String(AttrResult, result),
	))
}
