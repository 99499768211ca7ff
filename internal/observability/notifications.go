package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// NotificationMetrics records the urgency notification pipeline (publisher provider, workflow, sender).
type NotificationMetrics interface {
	RecordJobsEnqueued(ctx context.Context, count int64)
	RecordUrgency(ctx context.Context, level string)
	RecordDelivery(ctx context.Context, status string)
	RecordDeliveryDuration(ctx context.Context, duration time.Duration, status string)
}

type notificationMetrics struct {
	enqueued   metric.Int64Counter
	urgency    metric.Int64Counter
	deliveries metric.Int64Counter
	duration   metric.Float64Histogram
}

// NewNotificationMetrics returns (nil, nil) when meter is nil.
func NewNotificationMetrics(meter metric.Meter) (NotificationMetrics, error) {
	if meter == nil {
		//nolint:nilnil // callers check "if metrics != nil"
		return nil, nil
	}

	m := &notificationMetrics{}

	var err error
	if m.enqueued, err = newCounter(meter, MetricNameNotificationJobsEnqueued,
		"Notification workflow jobs enqueued"); err != nil {
		return nil, err
	}

	if m.urgency, err = newCounter(meter, MetricNameUrgencyLevels, "Urgency assessments by level"); err != nil {
		return nil, err
	}

	if m.deliveries, err = newCounter(meter, MetricNameNotificationDeliveries,
		"Alert delivery outcomes by status"); err != nil {
		return nil, err
	}

	if m.duration, err = newSecondsHistogram(meter, MetricNameNotificationDuration,
		"Alert webhook POST duration"); err != nil {
		return nil, err
	}

	return m, nil
}

func (n *notificationMetrics) RecordJobsEnqueued(ctx context.Context, count int64) {
	n.enqueued.Add(ctx, count)
}

func (n *notificationMetrics) RecordUrgency(ctx context.Context, level string) {
	n.urgency.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrLevel, NormalizeLevel(level))))
}

func (n *notificationMetrics) RecordDelivery(ctx context.Context, status string) {
	n.deliveries.Add(ctx, 1, boundedAttr(AttrStatus, status, AllowedDeliveryStatuses))
}

func (n *notificationMetrics) RecordDeliveryDuration(ctx context.Context, duration time.Duration, status string) {
	n.duration.Record(ctx, duration.Seconds(), boundedAttr(AttrStatus, status, AllowedDeliveryStatuses))
}
