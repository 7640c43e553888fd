package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	eventsDomain "github.com/allisson/trustcore/internal/events/domain"
	integrityDomain "github.com/allisson/trustcore/internal/integrity/domain"
	integrityService "github.com/allisson/trustcore/internal/integrity/service"
	"github.com/allisson/trustcore/internal/integrity/usecase/mocks"
	"github.com/allisson/trustcore/internal/metrics"
	"github.com/allisson/trustcore/internal/worker"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []eventsDomain.SecurityEvent
}

func (p *capturePublisher) Publish(event eventsDomain.SecurityEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) snapshot() []eventsDomain.SecurityEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]eventsDomain.SecurityEvent(nil), p.events...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func staticCheck(name string, kind integrityDomain.ThreatKind, hit bool, err error) integrityService.Check {
	return integrityService.Check{
		Name: name,
		Kind: kind,
		Run:  func(context.Context) (bool, error) { return hit, err },
	}
}

func TestScanner_PerformSecurityCheck(t *testing.T) {
	t.Run("clean checks produce a secure report", func(t *testing.T) {
		publisher := &capturePublisher{}
		scanner := NewScanner([]integrityService.Check{
			staticCheck("a", integrityDomain.RootDetected, false, nil),
			staticCheck("b", integrityDomain.HookingDetected, false, nil),
		}, nil, publisher, discardLogger())

		report, err := scanner.PerformSecurityCheck(context.Background())
		require.NoError(t, err)
		assert.True(t, report.IsSecure)
		assert.Empty(t, publisher.snapshot())
	})

	t.Run("checks are OR'd per kind and each kind emits one event", func(t *testing.T) {
		publisher := &capturePublisher{}
		scanner := NewScanner([]integrityService.Check{
			staticCheck("root_paths", integrityDomain.RootDetected, true, nil),
			staticCheck("su_lookup", integrityDomain.RootDetected, true, nil),
			staticCheck("tracer_pid", integrityDomain.DebuggerAttached, true, nil),
			staticCheck("emulator_build", integrityDomain.EmulatorDetected, false, nil),
		}, nil, publisher, discardLogger())

		report, err := scanner.PerformSecurityCheck(context.Background())
		require.NoError(t, err)
		assert.False(t, report.IsSecure)
		assert.Equal(t, []integrityDomain.ThreatKind{
			integrityDomain.RootDetected,
			integrityDomain.DebuggerAttached,
		}, report.Threats)

		events := publisher.snapshot()
		require.Len(t, events, 2)
		assert.Equal(t, eventsDomain.ThreatDetected, events[0].Type)
		assert.Equal(t, eventsDomain.LevelWarning, events[0].Level)
		assert.Equal(t, "root_paths,su_lookup", events[0].Details["check"])
		assert.Equal(t, eventsDomain.LevelCritical, events[1].Level)
		assert.Contains(t, events[1].Message, "DebuggerAttached")
	})

	t.Run("probe errors respect fail closed", func(t *testing.T) {
		failing := staticCheck("installer", integrityDomain.AppTampered, false, errors.New("probe"))
		failing.FailClosed = true
		scanner := NewScanner([]integrityService.Check{
			failing,
			staticCheck("mapped_libraries", integrityDomain.HookingDetected, false, errors.New("probe")),
		}, nil, nil, discardLogger())

		report, err := scanner.PerformSecurityCheck(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []integrityDomain.ThreatKind{integrityDomain.AppTampered}, report.Threats)
	})

	t.Run("cancelled context returns no partial report", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		scanner := NewScanner([]integrityService.Check{
			{Name: "first", Kind: integrityDomain.RootDetected, Run: func(context.Context) (bool, error) {
				cancel()
				return true, nil
			}},
			staticCheck("second", integrityDomain.HookingDetected, true, nil),
		}, nil, nil, discardLogger())

		report, err := scanner.PerformSecurityCheck(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, report.Threats)
	})

	t.Run("every call is fresh", func(t *testing.T) {
		var rooted bool
		scanner := NewScanner([]integrityService.Check{{
			Name: "toggle",
			Kind: integrityDomain.RootDetected,
			Run:  func(context.Context) (bool, error) { return rooted, nil },
		}}, nil, nil, discardLogger())

		first, err := scanner.PerformSecurityCheck(context.Background())
		require.NoError(t, err)
		rooted = true
		second, err := scanner.PerformSecurityCheck(context.Background())
		require.NoError(t, err)

		assert.True(t, first.IsSecure)
		assert.False(t, second.IsSecure)
	})
}

func TestScanner_RootHeuristicOnFilesystem(t *testing.T) {
	host := integrityService.Host{FS: fstest.MapFS{"system/xbin/su": {Data: []byte{}}}}
	checks := integrityService.DefaultChecks(host, integrityService.CheckConfig{})

	var rootChecks []integrityService.Check
	for _, check := range checks {
		if check.Kind == integrityDomain.RootDetected {
			rootChecks = append(rootChecks, check)
		}
	}
	scanner := NewScanner(rootChecks, nil, nil, discardLogger())

	report, err := scanner.PerformSecurityCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Has(integrityDomain.RootDetected))

	host.FS = fstest.MapFS{"usr/bin/env": {Data: []byte{}}}
	scanner = NewScanner(integrityService.DefaultChecks(host, integrityService.CheckConfig{})[:3], nil, nil, discardLogger())
	report, err = scanner.PerformSecurityCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, report.IsSecure)
}

func TestScanner_PerformSecurityCheckAsync(t *testing.T) {
	pool := worker.NewPool(context.Background(), 2)
	defer func() { require.NoError(t, pool.Close()) }()

	scanner := NewScanner([]integrityService.Check{
		staticCheck("tracer_pid", integrityDomain.DebuggerAttached, true, nil),
	}, pool, nil, discardLogger())

	select {
	case result, ok := <-scanner.PerformSecurityCheckAsync(context.Background()):
		require.True(t, ok)
		require.NoError(t, result.Err)
		assert.True(t, result.Report.Has(integrityDomain.DebuggerAttached))
	case <-time.After(5 * time.Second):
		t.Fatal("async scan did not complete")
	}

	t.Run("closed pool still delivers a result", func(t *testing.T) {
		closed := worker.NewPool(context.Background(), 1)
		require.NoError(t, closed.Close())
		scanner := NewScanner([]integrityService.Check{
			staticCheck("x", integrityDomain.RootDetected, true, nil),
		}, closed, nil, discardLogger())

		result, ok := <-scanner.PerformSecurityCheckAsync(context.Background())
		require.True(t, ok)
		assert.ErrorIs(t, result.Err, context.Canceled)

		_, ok = <-scanner.PerformSecurityCheckAsync(context.Background())
		assert.True(t, ok)
	})
}

type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

var _ metrics.BusinessMetrics = (*mockBusinessMetrics)(nil)

func TestScannerWithMetrics(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		report integrityDomain.ThreatReport
		err    error
		status string
	}{
		{name: "secure", report: integrityDomain.NewThreatReport(nil, time.Now()), status: "secure"},
		{
			name:   "threats",
			report: integrityDomain.NewThreatReport(map[integrityDomain.ThreatKind]bool{integrityDomain.RootDetected: true}, time.Now()),
			status: "threats",
		},
		{name: "error", err: context.Canceled, status: "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := &mocks.MockScanner{}
			m := &mockBusinessMetrics{}
			scanner.On("PerformSecurityCheck", ctx).Return(tt.report, tt.err).Once()
			m.On("RecordOperation", ctx, "integrity", "integrity_scan", tt.status).Return().Once()
			m.On("RecordDuration", ctx, "integrity", "integrity_scan", mock.AnythingOfType("time.Duration"), tt.status).
				Return().
				Once()

			_, err := NewScannerWithMetrics(scanner, m).PerformSecurityCheck(ctx)
			assert.Equal(t, tt.err, err)
			scanner.AssertExpectations(t)
			m.AssertExpectations(t)
		})
	}

	t.Run("async", func(t *testing.T) {
		scanner := &mocks.MockScanner{}
		m := &mockBusinessMetrics{}
		in := make(chan integrityDomain.ScanResult, 1)
		in <- integrityDomain.ScanResult{Report: integrityDomain.NewThreatReport(nil, time.Now())}
		close(in)
		scanner.On("PerformSecurityCheckAsync", ctx).Return((<-chan integrityDomain.ScanResult)(in)).Once()
		m.On("RecordOperation", ctx, "integrity", "integrity_scan_async", "secure").Return().Once()
		m.On("RecordDuration", ctx, "integrity", "integrity_scan_async", mock.AnythingOfType("time.Duration"), "secure").
			Return().
			Once()

		result := <-NewScannerWithMetrics(scanner, m).PerformSecurityCheckAsync(ctx)
		require.NoError(t, result.Err)
		assert.True(t, result.Report.IsSecure)
		m.AssertExpectations(t)
	})
}
var _ Scanner = (*mocks.MockScanner)(nil)
