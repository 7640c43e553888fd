package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/trustcore/internal/metrics"
	"github.com/allisson/trustcore/internal/preferences/usecase/mocks"
)

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

func expectMetrics(m *mockBusinessMetrics, ctx context.Context, operation, status string) {
	m.On("RecordOperation", ctx, "preferences", operation, status).Return().Once()
	m.On("RecordDuration", ctx, "preferences", operation, mock.AnythingOfType("time.Duration"), status).Return().Once()
}

func TestSecurePreferenceStoreWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("put success", func(t *testing.T) {
		store := &mocks.MockSecurePreferenceStore{}
		m := &mockBusinessMetrics{}

		store.On("PutString", ctx, "k", "v").Return(nil).Once()
		expectMetrics(m, ctx, "pref_put", "success")

		require.NoError(t, NewSecurePreferenceStoreWithMetrics(store, m).PutString(ctx, "k", "v"))
		store.AssertExpectations(t)
		m.AssertExpectations(t)
	})

	t.Run("get error", func(t *testing.T) {
		store := &mocks.MockSecurePreferenceStore{}
		m := &mockBusinessMetrics{}

		store.On("GetLong", ctx, "k", int64(3)).Return(int64(3), assert.AnError).Once()
		expectMetrics(m, ctx, "pref_get", "error")

		v, err := NewSecurePreferenceStoreWithMetrics(store, m).GetLong(ctx, "k", 3)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, int64(3), v)
		store.AssertExpectations(t)
		m.AssertExpectations(t)
	})

	t.Run("contains is not instrumented", func(t *testing.T) {
		store := &mocks.MockSecurePreferenceStore{}
		m := &mockBusinessMetrics{}

		store.On("Contains", ctx, "k").Return(true, nil).Once()

		ok, err := NewSecurePreferenceStoreWithMetrics(store, m).Contains(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		m.AssertNotCalled(t, "RecordOperation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("dump", func(t *testing.T) {
		store := &mocks.MockSecurePreferenceStore{}
		m := &mockBusinessMetrics{}

		store.On("Dump", ctx).Return(map[string]string{"a": "1"}, nil).Once()
		expectMetrics(m, ctx, "pref_dump", "success")

		dump, err := NewSecurePreferenceStoreWithMetrics(store, m).Dump(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"a": "1"}, dump)
		m.AssertExpectations(t)
	})
}
