package usecase

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gocloud.dev/secrets/localsecrets"

	authService "github.com/allisson/trustcore/internal/auth/service"
	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
	cryptoRepository "github.com/allisson/trustcore/internal/crypto/repository"
	cryptoService "github.com/allisson/trustcore/internal/crypto/service"
	cryptoUsecase "github.com/allisson/trustcore/internal/crypto/usecase"
	eventsDomain "github.com/allisson/trustcore/internal/events/domain"
	prefsRepository "github.com/allisson/trustcore/internal/preferences/repository"
	prefsUsecase "github.com/allisson/trustcore/internal/preferences/usecase"
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

func (p *capturePublisher) count(eventType eventsDomain.EventType, detail, value string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == eventType && (detail == "" || e.Details[detail] == value) {
			n++
		}
	}
	return n
}

// fakeClock is a settable time source shared by the components under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newPrefs(t *testing.T) prefsUsecase.SecurePreferenceStore {
	t.Helper()

	key, err := localsecrets.NewRandomKey()
	require.NoError(t, err)
	keeper := localsecrets.NewKeeper(key)
	t.Cleanup(func() { _ = keeper.Close() })

	facility := cryptoService.NewEnvelopeKeyFacility(
		keeper,
		cryptoRepository.NewMemoryWrappedKeyRepository(),
		cryptoService.NewAEADManager(),
		nil,
	)
	secrets := cryptoUsecase.NewSecretStore(facility, cryptoDomain.DefaultKeySpec(), nil, nil, discardLogger())

	return prefsUsecase.NewSecurePreferenceStore(
		prefsRepository.NewMemoryPreferenceRepository(),
		secrets,
		cryptoService.NewAEADManager(),
		cryptoDomain.AESGCM,
		nil,
		discardLogger(),
	)
}

func makeToken(t *testing.T, exp time.Time, extra jwt.MapClaims) string {
	t.Helper()
	claims := jwt.MapClaims{"exp": exp.Unix(), "sub": "user-1"}
	for k, v := range extra {
		claims[k] = v
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

func newTestTokenManager(t *testing.T, clock *fakeClock, publisher eventsDomain.Publisher) *tokenManager {
	t.Helper()
	tm := NewTokenManager(newPrefs(t), authService.NewTokenParser(), 0, publisher, discardLogger()).(*tokenManager)
	tm.now = clock.Now
	return tm
}
