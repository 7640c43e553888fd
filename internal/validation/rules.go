// Package validation provides custom validation rules for the application.
package validation

import (
	"net/url"
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/trustcore/internal/errors"
)

var (
	// keyAliasRegex matches key alias names
	keyAliasRegex = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

	// pinRegex matches "sha256/" followed by a standard base64 SHA-256 digest
	pinRegex = regexp.MustCompile(`^sha256/[A-Za-z0-9+/]{43}=$`)

	// hostPatternRegex matches an exact host name or a single leading "*." wildcard
	hostPatternRegex = regexp.MustCompile(
		`^(\*\.)?([A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?)(\.[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?)*$`,
	)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// KeyAlias validates a key alias: 1-64 characters of [A-Za-z0-9._-]
var KeyAlias = validation.NewStringRuleWithError(
	func(s string) bool {
		return keyAliasRegex.MatchString(s)
	},
	validation.NewError("validation_key_alias", "must be 1-64 characters of letters, digits, '.', '_' or '-'"),
)

// Pin validates a certificate pin in "sha256/<base64>" form
var Pin = validation.NewStringRuleWithError(
	func(s string) bool {
		return pinRegex.MatchString(s)
	},
	validation.NewError("validation_pin_format", "must be sha256/<base64 SHA-256 digest>"),
)

// HostPattern validates a pinned host pattern
var HostPattern = validation.NewStringRuleWithError(
	func(s string) bool {
		return len(s) <= 253 && hostPatternRegex.MatchString(s)
	},
	validation.NewError("validation_host_pattern", "must be a host name optionally prefixed by '*.'"),
)

// HTTPSURL validates an absolute https URL with a host
var HTTPSURL = validation.NewStringRuleWithError(
	func(s string) bool {
		u, err := url.Parse(s)
		return err == nil && u.Scheme == "https" && u.Host != ""
	},
	validation.NewError("validation_https_url", "must be an absolute https URL"),
)

// AbsoluteURI validates an absolute URI with any scheme, used for redirect URIs
// that may be custom app schemes
var AbsoluteURI = validation.NewStringRuleWithError(
	func(s string) bool {
		u, err := url.Parse(s)
		return err == nil && u.Scheme != "" && (u.Host != "" || u.Opaque != "" || u.Path != "")
	},
	validation.NewError("validation_absolute_uri", "must be an absolute URI"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
