package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SecurityEventMetrics counts security events by type and level.
type SecurityEventMetrics interface {
	RecordSecurityEvent(ctx context.Context, eventType, level string)
}

type securityEventMetrics struct {
	events metric.Int64Counter
}

// NewSecurityEventMetrics creates <namespace>_security_events_total.
func NewSecurityEventMetrics(meterProvider metric.MeterProvider, namespace string) (SecurityEventMetrics, error) {
	events, err := meterProvider.Meter(namespace).Int64Counter(
		namespace+"_security_events",
		metric.WithDescription("Security events published on the event bus"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create security event counter: %w", err)
	}
	return &securityEventMetrics{events: events}, nil
}

func (s *securityEventMetrics) RecordSecurityEvent(ctx context.Context, eventType, level string) {
	s.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", eventType),
		attribute.String("level", level),
	))
}

// NoOpSecurityEventMetrics discards everything.
type NoOpSecurityEventMetrics struct{}

func (NoOpSecurityEventMetrics) RecordSecurityEvent(context.Context, string, string) {}
