package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric collectors. When metrics are disabled, NewMetrics returns nil and
// components receive nil interfaces, which they already handle.
type Metrics struct {
	Events        EventMetrics
	Embeddings    EmbeddingMetrics
	Similarity    SimilarityMetrics
	Backfill      BackfillMetrics
	Notifications NotificationMetrics
	Cache         CacheMetrics
	API           APIMetrics
}

// NewMetrics creates every collector from the given meter.
// Returns (nil, nil) when meter is nil (metrics disabled).
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	events, err := NewEventMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("event metrics: %w", err)
	}

	embeddings, err := NewEmbeddingMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("embedding metrics: %w", err)
	}

	similarity, err := NewSimilarityMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("similarity metrics: %w", err)
	}

	backfill, err := NewBackfillMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("backfill metrics: %w", err)
	}

	notifications, err := NewNotificationMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("notification metrics: %w", err)
	}

	cache, err := NewCacheMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("cache metrics: %w", err)
	}

	api, err := NewAPIMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("api metrics: %w", err)
	}

	return &Metrics{
		Events:        events,
		Embeddings:    embeddings,
		Similarity:    similarity,
		Backfill:      backfill,
		Notifications: notifications,
		Cache:         cache,
		API:           api,
	}, nil
}
