// Package domain defines security audit events, their severity levels and the
// helpers used to construct them without leaking sensitive values.
package domain

import (
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType classifies a security event.
type EventType string

const (
	// Authentication marks login and credential exchange attempts.
	Authentication EventType = "AUTHENTICATION"
	// Authorization marks access decisions.
	Authorization EventType = "AUTHORIZATION"
	// Encryption marks encrypt/decrypt and key lifecycle operations.
	Encryption EventType = "ENCRYPTION"
	// ThreatDetected marks integrity and trust violations.
	ThreatDetected EventType = "THREAT_DETECTED"
	// DataAccess marks reads and writes of protected resources.
	DataAccess EventType = "DATA_ACCESS"
	// APIRequest marks outbound requests and their status.
	APIRequest EventType = "API_REQUEST"
	// Session marks credential state transitions.
	Session EventType = "SESSION"
	// Validation marks rejected input.
	Validation EventType = "VALIDATION"
)

// Level is the severity of a security event.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
	LevelCritical
)

// String returns the upper-case level name used in logs and reports.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the level by name so JSON payloads stay readable.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// IsReportable reports whether events at this level are forwarded to monitoring.
func (l Level) IsReportable() bool {
	return l >= LevelError
}

// SecurityEvent is an append-only audit record. Details must never carry
// plaintext secrets; use MaskSensitive for identifiers.
type SecurityEvent struct {
	ID        uuid.UUID         `json:"id"`
	Type      EventType         `json:"type"`
	Level     Level             `json:"level"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewEvent builds an event with a fresh ID and the current UTC time.
func NewEvent(eventType EventType, level Level, message string, details map[string]string) SecurityEvent {
	return SecurityEvent{
		ID:        uuid.Must(uuid.NewV7()),
		Type:      eventType,
		Level:     level,
		Message:   message,
		Details:   maps.Clone(details),
		Timestamp: time.Now().UTC(),
	}
}

// Sanitized returns a copy of the event with every detail whose key looks
// sensitive removed. The original event is not modified.
func (e SecurityEvent) Sanitized() SecurityEvent {
	clean := e
	clean.Details = make(map[string]string, len(e.Details))
	for k, v := range e.Details {
		if !IsSensitiveKey(k) {
			clean.Details[k] = v
		}
	}
	return clean
}

var sensitivePatterns = []string{
	"password", "token", "key", "secret", "credential",
	"email", "phone", "ssn", "card", "pin",
}

// IsSensitiveKey reports whether a detail key name matches the sensitive-key heuristic.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, pattern := range sensitivePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// MaskSensitive keeps the first and last two characters of an identifier.
// Values of four characters or fewer are fully masked.
func MaskSensitive(value string) string {
	if len(strings.TrimSpace(value)) == 0 || len(value) <= 4 {
		return "***"
	}
	return value[:2] + "***" + value[len(value)-2:]
}
