package service

import (
	"context"
	"log/slog"
	"sort"

	eventsDomain "github.com/allisson/trustcore/internal/events/domain"
)

// LogSink writes events to a structured logger at a severity-mapped level.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Handle implements Sink.
func (s *LogSink) Handle(ctx context.Context, event eventsDomain.SecurityEvent) {
	attrs := []slog.Attr{
		slog.String("event_id", event.ID.String()),
		slog.String("type", string(event.Type)),
		slog.String("security_level", event.Level.String()),
		slog.Time("timestamp", event.Timestamp),
	}
	if len(event.Details) > 0 {
		keys := make([]string, 0, len(event.Details))
		for k := range event.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		details := make([]any, 0, len(keys))
		for _, k := range keys {
			details = append(details, slog.String(k, event.Details[k]))
		}
		attrs = append(attrs, slog.Group("details", details...))
	}
	if event.Level == eventsDomain.LevelCritical {
		attrs = append(attrs, slog.Bool("critical", true))
	}

	s.logger.LogAttrs(ctx, logLevel(event.Level), event.Message, attrs...)
}

func logLevel(level eventsDomain.Level) slog.Level {
	switch level {
	case eventsDomain.LevelInfo:
		return slog.LevelInfo
	case eventsDomain.LevelWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Reporter forwards events to an external crash/monitoring collaborator.
type Reporter interface {
	Report(ctx context.Context, event eventsDomain.SecurityEvent) error
}

// NoopReporter is used when no monitoring collaborator is configured.
type NoopReporter struct{}

// Report implements Reporter.
func (NoopReporter) Report(context.Context, eventsDomain.SecurityEvent) error { return nil }

// ReporterSink forwards Error and Critical events to a Reporter with every
// sensitive detail stripped. Reporter failures are logged and swallowed.
type ReporterSink struct {
	reporter Reporter
	logger   *slog.Logger
}

// NewReporterSink creates a ReporterSink. A nil reporter selects NoopReporter.
func NewReporterSink(reporter Reporter, logger *slog.Logger) *ReporterSink {
	if reporter == nil {
		reporter = NoopReporter{}
	}
	return &ReporterSink{reporter: reporter, logger: logger}
}

// Handle implements Sink.
func (s *ReporterSink) Handle(ctx context.Context, event eventsDomain.SecurityEvent) {
	if !event.Level.IsReportable() {
		return
	}
	if err := s.reporter.Report(ctx, event.Sanitized()); err != nil {
		s.logger.Warn("failed to report security event to monitoring",
			slog.String("event_id", event.ID.String()),
			slog.Any("error", err),
		)
	}
}
