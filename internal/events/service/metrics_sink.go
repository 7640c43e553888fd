package service

import (
	"context"

	eventsDomain "github.com/allisson/trustcore/internal/events/domain"
	"github.com/allisson/trustcore/internal/metrics"
)

// MetricsSink counts events by type and level.
type MetricsSink struct {
	metrics metrics.SecurityEventMetrics
}

// NewMetricsSink creates a MetricsSink.
func NewMetricsSink(m metrics.SecurityEventMetrics) *MetricsSink {
	return &MetricsSink{metrics: m}
}

// Handle implements Sink.
func (s *MetricsSink) Handle(ctx context.Context, event eventsDomain.SecurityEvent) {
	s.metrics.RecordSecurityEvent(ctx, string(event.Type), event.Level.String())
}
