package observability

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EventMetrics observes the in-process feedback event bus.
type EventMetrics interface {
	RecordEventDiscarded(ctx context.Context, eventType string)
	RecordFanOutDuration(ctx context.Context, duration time.Duration, eventType string)
	SetChannelDepth(depth int)
}

type eventMetrics struct {
	discarded metric.Int64Counter
	fanOut    metric.Float64Histogram
	depth     atomic.Int64
}

// NewEventMetrics also registers an observable gauge reporting the last depth passed to SetChannelDepth.
// Returns (nil, nil) when meter is nil.
func NewEventMetrics(meter metric.Meter) (EventMetrics, error) {
	if meter == nil {
		//nolint:nilnil // callers check "if metrics != nil"
		return nil, nil
	}

	m := &eventMetrics{}

	var err error
	if m.discarded, err = newCounter(meter, MetricNameEventsDiscarded,
		"Feedback events dropped because the bus buffer was full"); err != nil {
		return nil, err
	}

	if m.fanOut, err = newSecondsHistogram(meter, MetricNameFanOutDuration,
		"Time to deliver one event to every registered provider"); err != nil {
		return nil, err
	}

	if _, err = meter.Int64ObservableGauge(
		MetricNameEventChannelDepth,
		metric.WithDescription("Events buffered and not yet fanned out"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(m.depth.Load())

			return nil
		}),
	); err != nil {
		return nil, fmt.Errorf("create gauge %s: %w", MetricNameEventChannelDepth, err)
	}

	return m, nil
}

func eventTypeAttr(eventType string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String(AttrEventType, NormalizeEventType(eventType)))
}

func (e *eventMetrics) RecordEventDiscarded(ctx context.Context, eventType string) {
	e.discarded.Add(ctx, 1, eventTypeAttr(eventType))
}

func (e *eventMetrics) RecordFanOutDuration(ctx context.Context, duration time.Duration, eventType string) {
	e.fanOut.Record(ctx, duration.Seconds(), eventTypeAttr(eventType))
}

func (e *eventMetrics) SetChannelDepth(depth int) {
	e.depth.Store(int64(depth))
}
