package domain

import (
	"fmt"
	"strconv"
)

// Publisher accepts security events. Implementations must not block the caller.
type Publisher interface {
	Publish(event SecurityEvent)
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(SecurityEvent) {}

func successLevel(success bool, failure Level) Level {
	if success {
		return LevelInfo
	}
	return failure
}

func outcome(success bool) string {
	if success {
		return "succeeded"
	}
	return "failed"
}

// AuthenticationAttempt records a login or token exchange attempt.
func AuthenticationAttempt(success bool, method, userID string) SecurityEvent {
	return NewEvent(
		Authentication,
		successLevel(success, LevelWarning),
		"Authentication attempt "+outcome(success),
		map[string]string{
			"method":  method,
			"success": strconv.FormatBool(success),
			"userId":  MaskSensitive(userID),
		},
	)
}

// AuthorizationCheck records an access decision.
func AuthorizationCheck(resource, action string, granted bool) SecurityEvent {
	return NewEvent(
		Authorization,
		successLevel(granted, LevelWarning),
		fmt.Sprintf("Authorization check: %s on %s", action, resource),
		map[string]string{
			"resource": resource,
			"action":   action,
			"granted":  strconv.FormatBool(granted),
		},
	)
}

// CryptoOperation records the outcome of an encryption operation. Only the
// operation name and outcome are recorded; plaintext and key aliases never are.
func CryptoOperation(operation string, success bool) SecurityEvent {
	return NewEvent(
		Encryption,
		successLevel(success, LevelError),
		"Crypto operation: "+operation,
		map[string]string{
			"operation": operation,
			"success":   strconv.FormatBool(success),
		},
	)
}

// SecurityThreat records a detected threat.
func SecurityThreat(threat string, level Level, details map[string]string) SecurityEvent {
	return NewEvent(ThreatDetected, level, "Security threat detected: "+threat, details)
}

// DataAccessEvent records access to a protected resource.
func DataAccessEvent(resource, action, userID string) SecurityEvent {
	return NewEvent(
		DataAccess,
		LevelInfo,
		fmt.Sprintf("Data access: %s on %s", action, resource),
		map[string]string{
			"resource": resource,
			"action":   action,
			"userId":   MaskSensitive(userID),
		},
	)
}

// APIRequestEvent records an outbound request. Status codes map to levels:
// below 400 info, below 500 warning, otherwise error.
func APIRequestEvent(endpoint, method string, statusCode int) SecurityEvent {
	level := LevelError
	switch {
	case statusCode < 400:
		level = LevelInfo
	case statusCode < 500:
		level = LevelWarning
	}
	return NewEvent(
		APIRequest,
		level,
		fmt.Sprintf("API request: %s %s", method, endpoint),
		map[string]string{
			"endpoint":   endpoint,
			"method":     method,
			"statusCode": strconv.Itoa(statusCode),
		},
	)
}

// SessionEvent records a credential state transition.
func SessionEvent(event, userID string) SecurityEvent {
	return NewEvent(
		Session,
		LevelInfo,
		"Session event: "+event,
		map[string]string{
			"event":  event,
			"userId": MaskSensitive(userID),
		},
	)
}

// ValidationFailure records rejected input.
func ValidationFailure(field, reason string) SecurityEvent {
	return NewEvent(
		Validation,
		LevelWarning,
		"Validation failed for "+field,
		map[string]string{
			"field":  field,
			"reason": reason,
		},
	)
}
