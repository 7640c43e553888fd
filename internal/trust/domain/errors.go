package domain

import (
	"github.com/allisson/trustcore/internal/errors"
)

// Trust errors.
var (
	// ErrInvalidPin indicates a pin not in "sha256/<base64>" form.
	ErrInvalidPin = errors.Wrap(errors.ErrInvalidInput, "invalid certificate pin")

	// ErrInvalidHostPattern indicates a malformed host pattern.
	ErrInvalidHostPattern = errors.Wrap(errors.ErrInvalidInput, "invalid host pattern")

	// ErrInsufficientPins indicates a host without a backup pin.
	ErrInsufficientPins = errors.Wrap(errors.ErrInvalidInput, "at least two pins are required per host")

	// ErrPinMismatch indicates no presented key matched the host's pins.
	ErrPinMismatch = errors.Wrap(errors.ErrTrust, "certificate pin mismatch")

	// ErrInsecureScheme indicates a request that is not https.
	ErrInsecureScheme = errors.Wrap(errors.ErrTrust, "insecure scheme, https required")

	// ErrDiscoveryDisabled indicates pin discovery in a configuration that forbids it.
	ErrDiscoveryDisabled = errors.Wrap(errors.ErrForbidden, "pin discovery disabled")
)
