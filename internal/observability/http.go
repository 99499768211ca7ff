package observability

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// APIMetrics counts requests that middleware rejects before any handler runs.
type APIMetrics interface {
	RecordRequestBodyTooLarge(ctx context.Context)
	RecordUnauthorized(ctx context.Context)
}

type apiMetrics struct {
	rejected metric.Int64Counter
}

// NewAPIMetrics returns (nil, nil) when meter is nil.
func NewAPIMetrics(meter metric.Meter) (APIMetrics, error) {
	if meter == nil {
		//nolint:nilnil // callers check "if metrics != nil"
		return nil, nil
	}

	rejected, err := newCounter(meter, MetricNameRequestsRejected,
		"Requests rejected by middleware. Label reason: body_too_large (413) or unauthorized (401 on admin routes).")
	if err != nil {
		return nil, err
	}

	return &apiMetrics{rejected: rejected}, nil
}

func (a *apiMetrics) RecordRequestBodyTooLarge(ctx context.Context) {
	a.rejected.Add(ctx, 1, boundedAttr(AttrReason, "body_too_large", AllowedRejectionReason))
}

func (a *apiMetrics) RecordUnauthorized(ctx context.Context) {
	a.rejected.Add(ctx, 1, boundedAttr(AttrReason, "unauthorized", AllowedRejectionReason))
}
