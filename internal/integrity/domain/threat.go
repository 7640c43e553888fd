// Package domain defines the runtime threat model: the closed set of threat
// kinds, the aggregated report and the policies callers apply to it.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// ThreatKind is one class of runtime compromise.
type ThreatKind int

const (
	RootDetected ThreatKind = iota + 1
	DebuggableBuild
	DebuggerAttached
	AppTampered
	EmulatorDetected
	HookingDetected
)

// AllThreatKinds lists every ThreatKind in report order.
var AllThreatKinds = []ThreatKind{
	RootDetected,
	DebuggableBuild,
	DebuggerAttached,
	AppTampered,
	EmulatorDetected,
	HookingDetected,
}

func (k ThreatKind) String() string {
	switch k {
	case RootDetected:
		return "RootDetected"
	case DebuggableBuild:
		return "DebuggableBuild"
	case DebuggerAttached:
		return "DebuggerAttached"
	case AppTampered:
		return "AppTampered"
	case EmulatorDetected:
		return "EmulatorDetected"
	case HookingDetected:
		return "HookingDetected"
	default:
		return fmt.Sprintf("ThreatKind(%d)", int(k))
	}
}

// Description is a human readable sentence for k.
func (k ThreatKind) Description() string {
	switch k {
	case RootDetected:
		return "Device is rooted"
	case DebuggableBuild:
		return "App is debuggable"
	case DebuggerAttached:
		return "Debugger is attached"
	case AppTampered:
		return "App has been tampered with"
	case EmulatorDetected:
		return "Running on emulator"
	case HookingDetected:
		return "Hooking framework detected"
	default:
		return k.String()
	}
}

// Critical reports whether k alone should stop sensitive work.
func (k ThreatKind) Critical() bool {
	return k == AppTampered || k == DebuggerAttached
}

// MarshalText implements encoding.TextMarshaler.
func (k ThreatKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ThreatReport is the result of one scan.
type ThreatReport struct {
	IsSecure  bool         `json:"is_secure"`
	Threats   []ThreatKind `json:"threats"`
	CheckedAt time.Time    `json:"checked_at"`
}

// NewThreatReport builds a report from the detected kinds, ordered as in
// AllThreatKinds and without duplicates.
func NewThreatReport(detected map[ThreatKind]bool, checkedAt time.Time) ThreatReport {
	threats := make([]ThreatKind, 0, len(detected))
	for _, kind := range AllThreatKinds {
		if detected[kind] {
			threats = append(threats, kind)
		}
	}
	return ThreatReport{IsSecure: len(threats) == 0, Threats: threats, CheckedAt: checkedAt}
}

// Has reports whether kind was detected.
func (r ThreatReport) Has(kind ThreatKind) bool {
	for _, t := range r.Threats {
		if t == kind {
			return true
		}
	}
	return false
}

// HasCritical reports whether any detected kind is critical.
func (r ThreatReport) HasCritical() bool {
	for _, t := range r.Threats {
		if t.Critical() {
			return true
		}
	}
	return false
}

// Message summarizes the report.
func (r ThreatReport) Message() string {
	switch len(r.Threats) {
	case 0:
		return "App is secure"
	case 1:
		return "Security threat detected: " + r.Threats[0].Description()
	default:
		descriptions := make([]string, 0, len(r.Threats))
		for _, t := range r.Threats {
			descriptions = append(descriptions, t.Description())
		}
		return "Multiple security threats detected: " + strings.Join(descriptions, ", ")
	}
}

// ScanResult carries the outcome of an asynchronous scan.
type ScanResult struct {
	Report ThreatReport
	Err    error
}
