// Package mocks provides mock implementations of the preference use cases.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockSecurePreferenceStore is a mock implementation of SecurePreferenceStore for testing.
type MockSecurePreferenceStore struct {
	mock.Mock
}

func (m *MockSecurePreferenceStore) PutString(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockSecurePreferenceStore) PutBool(ctx context.Context, key string, value bool) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockSecurePreferenceStore) PutInt(ctx context.Context, key string, value int32) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockSecurePreferenceStore) PutLong(ctx context.Context, key string, value int64) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockSecurePreferenceStore) GetString(ctx context.Context, key, def string) (string, error) {
	args := m.Called(ctx, key, def)
	return args.String(0), args.Error(1)
}

func (m *MockSecurePreferenceStore) GetBool(ctx context.Context, key string, def bool) (bool, error) {
	args := m.Called(ctx, key, def)
	return args.Bool(0), args.Error(1)
}

func (m *MockSecurePreferenceStore) GetInt(ctx context.Context, key string, def int32) (int32, error) {
	args := m.Called(ctx, key, def)
	return args.Get(0).(int32), args.Error(1)
}

func (m *MockSecurePreferenceStore) GetLong(ctx context.Context, key string, def int64) (int64, error) {
	args := m.Called(ctx, key, def)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSecurePreferenceStore) Remove(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockSecurePreferenceStore) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSecurePreferenceStore) Contains(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockSecurePreferenceStore) Keys(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSecurePreferenceStore) Dump(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}
