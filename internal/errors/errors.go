// Package errors provides standardized domain errors that express failure categories
// rather than infrastructure details. Components wrap these sentinels so callers can
// branch on the category with errors.Is while still seeing the specific cause.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	// Validation failures are surfaced immediately and never leave partial side effects.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the request lacks valid authentication credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller is not allowed to perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrCrypto indicates a cryptographic failure: key unavailable, cipher
	// initialization failure or authentication tag mismatch. Never recoverable locally.
	ErrCrypto = errors.New("crypto failure")

	// ErrAuth indicates an authentication flow failure: CSRF state mismatch, OAuth
	// error response, malformed or expired token.
	ErrAuth = errors.New("authentication failure")

	// ErrTrust indicates a transport trust failure such as a certificate pin mismatch.
	ErrTrust = errors.New("trust failure")

	// ErrIntegrity indicates the runtime environment failed attestation.
	ErrIntegrity = errors.New("integrity failure")
)

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message while preserving the error chain.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors, discarding nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
