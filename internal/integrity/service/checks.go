package service

import (
	"bufio"
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"io/fs"
	"strconv"
	"strings"

	integrityDomain "github.com/allisson/trustcore/internal/integrity/domain"
)

// RootBinaryPaths are historically common superuser binary locations.
var RootBinaryPaths = []string{
	"/system/app/Superuser.apk",
	"/sbin/su",
	"/system/bin/su",
	"/system/xbin/su",
	"/data/local/xbin/su",
	"/data/local/bin/su",
	"/system/sd/xbin/su",
	"/system/bin/failsafe/su",
	"/data/local/su",
	"/su/bin/su",
}

// RootPackages are root-management applications.
var RootPackages = []string{
	"com.noshufou.android.su",
	"com.noshufou.android.su.elite",
	"eu.chainfire.supersu",
	"com.koushikdutta.superuser",
	"com.thirdparty.superuser",
	"com.yellowes.su",
	"com.topjohnwu.magisk",
}

// InstrumentationLibraries are dynamic instrumentation libraries looked for
// in the mapped-memory listing.
var InstrumentationLibraries = []string{
	"frida-agent",
	"frida-server",
	"frida-gadget",
	"libsubstrate",
	"xposed",
}

// HypervisorVendors are DMI vendor strings of virtual machines.
var HypervisorVendors = []string{"QEMU", "VirtualBox", "VMware", "KVM"}

var dmiFiles = []string{
	"sys/class/dmi/id/sys_vendor",
	"sys/class/dmi/id/product_name",
	"sys/class/dmi/id/board_vendor",
	"sys/class/dmi/id/bios_vendor",
}

var errProbeMissing = errors.New("probe not available")

// Check is a single heuristic contributing to one ThreatKind.
type Check struct {
	Name string
	Kind integrityDomain.ThreatKind
	// FailClosed treats a probe error as a detection.
	FailClosed bool
	Run        func(ctx context.Context) (bool, error)
}

// CheckConfig carries the deployment-specific inputs of the checks.
type CheckConfig struct {
	TrustedInstallers []string
	// ExpectedSignatures are SHA-256 digests of the released executable. Empty
	// disables the signature comparison.
	ExpectedSignatures [][]byte
}

// DefaultChecks returns every heuristic, grouped by ThreatKind in report order.
func DefaultChecks(host Host, cfg CheckConfig) []Check {
	return []Check{
		{Name: "root_paths", Kind: integrityDomain.RootDetected, Run: rootPaths(host)},
		{Name: "su_lookup", Kind: integrityDomain.RootDetected, Run: suLookup(host)},
		{Name: "root_packages", Kind: integrityDomain.RootDetected, Run: rootPackages(host)},
		{Name: "debuggable_build", Kind: integrityDomain.DebuggableBuild, Run: debuggableBuild(host)},
		{Name: "tracer_pid", Kind: integrityDomain.DebuggerAttached, Run: tracerAttached(host)},
		{
			Name:       "installer",
			Kind:       integrityDomain.AppTampered,
			FailClosed: true,
			Run:        untrustedInstaller(host, cfg.TrustedInstallers),
		},
		{
			Name:       "signature",
			Kind:       integrityDomain.AppTampered,
			FailClosed: true,
			Run:        signatureMismatch(host, cfg.ExpectedSignatures),
		},
		{Name: "emulator_build", Kind: integrityDomain.EmulatorDetected, Run: emulatorBuild(host)},
		{Name: "hypervisor_dmi", Kind: integrityDomain.EmulatorDetected, Run: hypervisorDMI(host)},
		{Name: "instrumentation", Kind: integrityDomain.HookingDetected, Run: instrumentationLoaded(host)},
		{Name: "mapped_libraries", Kind: integrityDomain.HookingDetected, Run: mappedLibraries(host)},
	}
}

func exists(fsys fs.FS, path string) bool {
	if fsys == nil {
		return false
	}
	_, err := fs.Stat(fsys, strings.TrimPrefix(path, "/"))
	return err == nil
}

func rootPaths(host Host) func(context.Context) (bool, error) {
	return func(context.Context) (bool, error) {
		for _, path := range RootBinaryPaths {
			if exists(host.FS, path) {
				return true, nil
			}
		}
		return false, nil
	}
}

func suLookup(host Host) func(context.Context) (bool, error) {
	return func(context.Context) (bool, error) {
		if host.LookPath == nil {
			return false, nil
		}
		_, err := host.LookPath("su")
		return err == nil, nil
	}
}

func rootPackages(host Host) func(context.Context) (bool, error) {
	return func(context.Context) (bool, error) {
		for _, pkg := range RootPackages {
			if exists(host.FS, "data/data/"+pkg) || exists(host.FS, "data/app/"+pkg) {
				return true, nil
			}
		}
		return false, nil
	}
}

func debuggableBuild(host Host) func(context.Context) (bool, error) {
	return func(context.Context) (bool, error) {
		if host.Debuggable == nil {
			return false, nil
		}
		return host.Debuggable()
	}
}

// tracerAttached reads TracerPid from proc/self/status.
func tracerAttached(host Host) func(context.Context) (bool, error) {
	return func(context.Context) (bool, error) {
		if host.FS == nil {
			return false, nil
		}
		data, err := fs.ReadFile(host.FS, "proc/self/status")
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return false, nil
			}
			return false, err
		}
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			name, value, ok := strings.Cut(scanner.Text(), ":")
			if !ok || name != "TracerPid" {
				continue
			}
			pid, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return false, err
			}
			return pid != 0, nil
		}
		return false, scanner.Err()
	}
}

func untrustedInstaller(host Host, trusted []string) func(context.Context) (bool, error) {
	return func(context.Context) (bool, error) {
		if host.Installer == nil {
			return false, errProbeMissing
		}
		installer, err := host.Installer()
		if err != nil {
			return false, err
		}
		for _, t := range trusted {
			if installer == t {
				return false, nil
			}
		}
		return true, nil
	}
}

func signatureMismatch(host Host, expected [][]byte) func(context.Context) (bool, error) {
	return func(context.Context) (bool, error) {
		if len(expected) == 0 {
			return false, nil
		}
		if host.ExecutableDigest == nil {
			return false, errProbeMissing
		}
		digest, err := host.ExecutableDigest()
		if err != nil {
			return false, err
		}
		for _, e := range expected {
			if subtle.ConstantTimeCompare(digest, e) == 1 {
				return false, nil
			}
		}
		return true, nil
	}
}

// IsEmulatorBuild applies the fingerprint, model and manufacturer patterns.
func IsEmulatorBuild(d DeviceInfo) bool {
	return strings.HasPrefix(d.Fingerprint, "generic") ||
		strings.HasPrefix(d.Fingerprint, "unknown") ||
		strings.Contains(d.Model, "google_sdk") ||
		strings.Contains(d.Model, "Emulator") ||
		strings.Contains(d.Model, "Android SDK built for x86") ||
		strings.Contains(d.Manufacturer, "Genymotion") ||
		(strings.HasPrefix(d.Brand, "generic") && strings.HasPrefix(d.Device, "generic")) ||
		d.Product == "google_sdk"
}

func emulatorBuild(host Host) func(context.Context) (bool, error) {
	return func(context.Context) (bool, error) {
		if host.Device == nil {
			return false, nil
		}
		device, err := host.Device()
		if err != nil {
			return false, err
		}
		return IsEmulatorBuild(device), nil
	}
}

func hypervisorDMI(host Host) func(context.Context) (bool, error) {
	return func(context.Context) (bool, error) {
		if host.FS == nil {
			return false, nil
		}
		for _, name := range dmiFiles {
			data, err := fs.ReadFile(host.FS, name)
			if err != nil {
				continue
			}
			value := strings.ToLower(string(data))
			for _, vendor := range HypervisorVendors {
				if strings.Contains(value, strings.ToLower(vendor)) {
					return true, nil
				}
			}
		}
		return false, nil
	}
}

func instrumentationLoaded(host Host) func(context.Context) (bool, error) {
	return func(context.Context) (bool, error) {
		if host.InstrumentationLoaded == nil {
			return false, nil
		}
		return host.InstrumentationLoaded()
	}
}

func mappedLibraries(host Host) func(context.Context) (bool, error) {
	return func(context.Context) (bool, error) {
		if host.MappedFiles == nil {
			return false, nil
		}
		paths, err := host.MappedFiles()
		if err != nil {
			return false, err
		}
		for _, path := range paths {
			for _, lib := range InstrumentationLibraries {
				if strings.Contains(path, lib) {
					return true, nil
				}
			}
		}
		return false, nil
	}
}
