package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func newCounter(meter metric.Meter, name, desc string) (metric.Int64Counter, error) {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("create counter %s: %w", name, err)
	}

	return c, nil
}

func newSecondsHistogram(meter metric.Meter, name, desc string) (metric.Float64Histogram, error) {
	h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create histogram %s: %w", name, err)
	}

	return h, nil
}

// boundedAttr returns key=value when value is allowed, key="other" otherwise.
func boundedAttr(key, value string, allowed map[string]bool) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String(key, NormalizeReason(value, allowed)))
}
