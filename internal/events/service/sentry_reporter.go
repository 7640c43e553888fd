package service

import (
	"context"
	"errors"
	"time"

	"github.com/getsentry/sentry-go"

	eventsDomain "github.com/allisson/trustcore/internal/events/domain"
)

// SentryReporter reports security events to Sentry. Events arrive already
// sanitized from ReporterSink; details become tags prefixed with "security_".
type SentryReporter struct {
	hub *sentry.Hub
}

// NewSentryReporter creates a reporter bound to its own hub so it never
// touches the process-wide Sentry state.
func NewSentryReporter(options sentry.ClientOptions) (*SentryReporter, error) {
	client, err := sentry.NewClient(options)
	if err != nil {
		return nil, err
	}
	return &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// Report implements Reporter.
func (r *SentryReporter) Report(ctx context.Context, event eventsDomain.SecurityEvent) error {
	sentryEvent := sentry.NewEvent()
	sentryEvent.Message = "[Security] " + event.Level.String() + " - " + string(event.Type) + ": " + event.Message
	sentryEvent.Level = sentryLevel(event.Level)
	sentryEvent.Timestamp = event.Timestamp
	sentryEvent.Tags = map[string]string{
		"security_event_type": string(event.Type),
		"security_level":      event.Level.String(),
		"security_event_id":   event.ID.String(),
	}
	for k, v := range event.Details {
		sentryEvent.Tags["security_"+k] = v
	}

	if id := r.hub.CaptureEvent(sentryEvent); id == nil {
		return errors.New("sentry dropped security event")
	}
	return nil
}

// Flush waits for queued events to be delivered.
func (r *SentryReporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}

func sentryLevel(level eventsDomain.Level) sentry.Level {
	switch level {
	case eventsDomain.LevelInfo:
		return sentry.LevelInfo
	case eventsDomain.LevelWarning:
		return sentry.LevelWarning
	case eventsDomain.LevelError:
		return sentry.LevelError
	default:
		return sentry.LevelFatal
	}
}
