package commands

import (
	"bytes"
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
	cryptoService "github.com/allisson/trustcore/internal/crypto/service"
)

type MockKMSService struct {
	mock.Mock
}

func (m *MockKMSService) OpenKeeper(ctx context.Context, uri string) (cryptoDomain.KMSKeeper, error) {
	args := m.Called(ctx, uri)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(cryptoDomain.KMSKeeper), args.Error(1)
}

type MockKMSKeeper struct {
	mock.Mock
}

func (m *MockKMSKeeper) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	args := m.Called(ctx, plaintext)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockKMSKeeper) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	args := m.Called(ctx, ciphertext)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockKMSKeeper) Close() error {
	return m.Called().Error(0)
}

func TestRunCreateKek(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()

	t.Run("local keeper round trip", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, RunCreateKek(ctx, cryptoService.NewKMSService(), logger, &out))

		match := regexp.MustCompile(`KEK_URI="(base64key://[A-Za-z0-9_\-=]+)"`).FindStringSubmatch(out.String())
		require.Len(t, match, 2)

		keeper, err := cryptoService.NewKMSService().OpenKeeper(ctx, match[1])
		require.NoError(t, err)
		require.NoError(t, keeper.Close())
	})

	t.Run("keys differ between runs", func(t *testing.T) {
		var first, second bytes.Buffer
		require.NoError(t, RunCreateKek(ctx, cryptoService.NewKMSService(), logger, &first))
		require.NoError(t, RunCreateKek(ctx, cryptoService.NewKMSService(), logger, &second))
		require.NotEqual(t, first.String(), second.String())
	})

	t.Run("round trip mismatch", func(t *testing.T) {
		service := &MockKMSService{}
		keeper := &MockKMSKeeper{}
		service.On("OpenKeeper", ctx, mock.AnythingOfType("string")).Return(keeper, nil)
		keeper.On("Encrypt", ctx, mock.Anything).Return([]byte("ct"), nil)
		keeper.On("Decrypt", ctx, []byte("ct")).Return([]byte("other"), nil)
		keeper.On("Close").Return(nil)

		var out bytes.Buffer
		err := RunCreateKek(ctx, service, logger, &out)
		require.ErrorContains(t, err, "failed to verify KEK round trip")
		require.Empty(t, out.String())
		keeper.AssertExpectations(t)
	})

	t.Run("open error", func(t *testing.T) {
		service := &MockKMSService{}
		service.On("OpenKeeper", ctx, mock.AnythingOfType("string")).Return(nil, assertErr)

		err := RunCreateKek(ctx, service, logger, &bytes.Buffer{})
		require.ErrorIs(t, err, assertErr)
	})
}
