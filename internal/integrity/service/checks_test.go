package service

import (
	"context"
	"crypto/sha256"
	"errors"
	"io/fs"
	"os/exec"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	integrityDomain "github.com/allisson/trustcore/internal/integrity/domain"
)

func cleanHost() Host {
	return Host{
		FS: fstest.MapFS{
			"proc/self/status":            {Data: []byte("Name:\ttrustcore\nTracerPid:\t0\n")},
			"sys/class/dmi/id/sys_vendor": {Data: []byte("Dell Inc.\n")},
		},
		LookPath:              func(string) (string, error) { return "", exec.ErrNotFound },
		Debuggable:            func() (bool, error) { return false, nil },
		Installer:             func() (string, error) { return "com.android.vending", nil },
		ExecutableDigest:      func() ([]byte, error) { return digest("release"), nil },
		MappedFiles:           func() ([]string, error) { return []string{"/usr/lib/libc.so.6"}, nil },
		Device:                func() (DeviceInfo, error) { return DeviceInfo{Fingerprint: "google/raven", Model: "Pixel 6"}, nil },
		InstrumentationLoaded: func() (bool, error) { return false, nil },
	}
}

func digest(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}

func cleanConfig() CheckConfig {
	return CheckConfig{
		TrustedInstallers:  []string{"com.android.vending", "com.google.android.feedback"},
		ExpectedSignatures: [][]byte{digest("release")},
	}
}

func runChecks(t *testing.T, host Host, cfg CheckConfig) map[string]bool {
	t.Helper()
	results := map[string]bool{}
	for _, check := range DefaultChecks(host, cfg) {
		detected, err := check.Run(context.Background())
		if err != nil && check.FailClosed {
			detected = true
		}
		results[check.Name] = detected
	}
	return results
}

func TestDefaultChecks_CleanHost(t *testing.T) {
	for name, detected := range runChecks(t, cleanHost(), cleanConfig()) {
		assert.False(t, detected, name)
	}
}

func TestDefaultChecks_CoverEveryThreatKind(t *testing.T) {
	kinds := map[integrityDomain.ThreatKind]bool{}
	for _, check := range DefaultChecks(Host{}, CheckConfig{}) {
		kinds[check.Kind] = true
	}
	for _, kind := range integrityDomain.AllThreatKinds {
		assert.True(t, kinds[kind], kind.String())
	}
}

func TestRootHeuristics(t *testing.T) {
	for _, path := range RootBinaryPaths {
		t.Run(path, func(t *testing.T) {
			host := cleanHost()
			host.FS.(fstest.MapFS)[path[1:]] = &fstest.MapFile{Data: []byte{}}
			assert.True(t, runChecks(t, host, cleanConfig())["root_paths"])
		})
	}

	t.Run("su on path", func(t *testing.T) {
		host := cleanHost()
		host.LookPath = func(string) (string, error) { return "/system/xbin/su", nil }
		assert.True(t, runChecks(t, host, cleanConfig())["su_lookup"])
	})

	t.Run("root package installed", func(t *testing.T) {
		host := cleanHost()
		host.FS.(fstest.MapFS)["data/data/com.topjohnwu.magisk"] = &fstest.MapFile{Mode: fs.ModeDir | 0o755}
		assert.True(t, runChecks(t, host, cleanConfig())["root_packages"])
	})
}

func TestTracerPid(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		want    bool
		wantErr bool
	}{
		{name: "not traced", status: "TracerPid:\t0\n", want: false},
		{name: "traced", status: "State:\tS\nTracerPid:\t4242\n", want: true},
		{name: "malformed", status: "TracerPid:\tabc\n", wantErr: true},
		{name: "absent field", status: "Name:\tx\n", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := Host{FS: fstest.MapFS{"proc/self/status": {Data: []byte(tt.status)}}}
			got, err := tracerAttached(host)(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := tracerAttached(Host{FS: fstest.MapFS{}})(context.Background())
	require.NoError(t, err)
	assert.False(t, got)
}

func TestTamperChecks(t *testing.T) {
	t.Run("untrusted installer", func(t *testing.T) {
		host := cleanHost()
		host.Installer = func() (string, error) { return "com.sideload.market", nil }
		assert.True(t, runChecks(t, host, cleanConfig())["installer"])
	})

	t.Run("installer probe failure fails closed", func(t *testing.T) {
		host := cleanHost()
		host.Installer = func() (string, error) { return "", errors.New("boom") }
		assert.True(t, runChecks(t, host, cleanConfig())["installer"])

		host.Installer = nil
		assert.True(t, runChecks(t, host, cleanConfig())["installer"])
	})

	t.Run("signature mismatch", func(t *testing.T) {
		host := cleanHost()
		host.ExecutableDigest = func() ([]byte, error) { return digest("repackaged"), nil }
		assert.True(t, runChecks(t, host, cleanConfig())["signature"])
	})

	t.Run("signature digest failure fails closed", func(t *testing.T) {
		host := cleanHost()
		host.ExecutableDigest = func() ([]byte, error) { return nil, errors.New("unreadable") }
		assert.True(t, runChecks(t, host, cleanConfig())["signature"])
	})

	t.Run("no expected signatures skips comparison", func(t *testing.T) {
		host := cleanHost()
		host.ExecutableDigest = func() ([]byte, error) { return digest("anything"), nil }
		cfg := cleanConfig()
		cfg.ExpectedSignatures = nil
		assert.False(t, runChecks(t, host, cfg)["signature"])
	})
}

func TestEmulatorHeuristics(t *testing.T) {
	emulators := []DeviceInfo{
		{Fingerprint: "generic/sdk_gphone"},
		{Fingerprint: "unknown/x"},
		{Model: "google_sdk"},
		{Model: "Android Emulator"},
		{Model: "Android SDK built for x86"},
		{Manufacturer: "Genymotion"},
		{Brand: "generic_x86", Device: "generic_x86"},
		{Product: "google_sdk"},
	}
	for _, device := range emulators {
		assert.True(t, IsEmulatorBuild(device), "%+v", device)
	}
	assert.False(t, IsEmulatorBuild(DeviceInfo{Brand: "generic", Device: "raven"}))

	for _, vendor := range []string{"QEMU", "innotek GmbH VirtualBox", "VMware, Inc.", "kvm"} {
		host := cleanHost()
		host.FS.(fstest.MapFS)["sys/class/dmi/id/sys_vendor"] = &fstest.MapFile{Data: []byte(vendor)}
		assert.True(t, runChecks(t, host, cleanConfig())["hypervisor_dmi"], vendor)
	}
}

func TestHookingHeuristics(t *testing.T) {
	for _, lib := range InstrumentationLibraries {
		host := cleanHost()
		host.MappedFiles = func() ([]string, error) { return []string{"/data/local/tmp/re." + lib + ".so"}, nil }
		assert.True(t, runChecks(t, host, cleanConfig())["mapped_libraries"], lib)
	}

	host := cleanHost()
	host.InstrumentationLoaded = func() (bool, error) { return true, nil }
	assert.True(t, runChecks(t, host, cleanConfig())["instrumentation"])

	host = cleanHost()
	host.MappedFiles = func() ([]string, error) { return nil, errors.New("no procfs") }
	assert.False(t, runChecks(t, host, cleanConfig())["mapped_libraries"])
}

func TestNewHost(t *testing.T) {
	host := NewHost("")
	require.NotNil(t, host.FS)
	require.NotNil(t, host.MappedFiles)

	Installer = ""
	_, err := host.Installer()
	assert.ErrorIs(t, err, errUnknownInstaller)

	Installer = "com.android.vending"
	defer func() { Installer = "" }()
	installer, err := host.Installer()
	require.NoError(t, err)
	assert.Equal(t, "com.android.vending", installer)
}
