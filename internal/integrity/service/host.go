// Package service holds the individual integrity heuristics and the host
// probes they read.
package service

import (
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"runtime/debug"
	"strings"
)

// Installer names the channel that produced this binary. Release pipelines
// stamp it with -ldflags "-X <pkg>.Installer=<name>".
var Installer string

var errUnknownInstaller = errors.New("installer source not stamped into build")

// DeviceInfo holds the build identity strings the emulator heuristics read.
type DeviceInfo struct {
	Fingerprint  string
	Model        string
	Manufacturer string
	Brand        string
	Device       string
	Product      string
}

// Host exposes the facts the checks read. A nil probe reports nothing,
// except Installer and ExecutableDigest whose absence counts as a failure.
type Host struct {
	// FS is the host root. Paths are unrooted, e.g. "system/bin/su".
	FS                    fs.FS
	LookPath              func(file string) (string, error)
	Debuggable            func() (bool, error)
	Installer             func() (string, error)
	ExecutableDigest      func() ([]byte, error)
	MappedFiles           func() ([]string, error)
	Device                func() (DeviceInfo, error)
	InstrumentationLoaded func() (bool, error)
}

// NewHost returns the probes for the running process. procMount is the
// procfs mount point, normally "/proc".
func NewHost(procMount string) Host {
	if procMount == "" {
		procMount = "/proc"
	}
	return Host{
		FS:                    os.DirFS("/"),
		LookPath:              exec.LookPath,
		Debuggable:            buildDebuggable,
		Installer:             stampedInstaller,
		ExecutableDigest:      func() ([]byte, error) { return executableDigest(procMount) },
		MappedFiles:           func() ([]string, error) { return mappedFiles(procMount) },
		InstrumentationLoaded: preloadInstrumentation,
	}
}

func stampedInstaller() (string, error) {
	if Installer == "" {
		return "", errUnknownInstaller
	}
	return Installer, nil
}

// buildDebuggable reports whether the binary was compiled with optimizations
// disabled, which is how debugger-friendly builds are produced.
func buildDebuggable() (bool, error) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return false, errors.New("build info unavailable")
	}
	for _, setting := range info.Settings {
		if setting.Key == "-gcflags" && strings.Contains(setting.Value, "-N") {
			return true, nil
		}
	}
	return false, nil
}

// preloadInstrumentation reports injected libraries requested through the
// dynamic loader.
func preloadInstrumentation() (bool, error) {
	for _, name := range []string{"LD_PRELOAD", "DYLD_INSERT_LIBRARIES"} {
		if strings.TrimSpace(os.Getenv(name)) != "" {
			return true, nil
		}
	}
	return false, nil
}
