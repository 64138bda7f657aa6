package mocks

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"carebook/internal/storage"
)

type MockAvatarStore struct {
	mock.Mock
}

// Save accepts either a storage.Stored or a func(storage.Picture) storage.Stored
// as its first return value.
func (m *MockAvatarStore) Save(ctx context.Context, p storage.Picture) (storage.Stored, error) {
	args := m.Called(ctx, p)
	if f, ok := args.Get(0).(func(storage.Picture) storage.Stored); ok {
		return f(p), args.Error(1)
	}
	return args.Get(0).(storage.Stored), args.Error(1)
}

func (m *MockAvatarStore) Open(ctx context.Context, key string) (io.ReadCloser, storage.Stored, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, storage.Stored{}, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.Stored), args.Error(2)
}

func (m *MockAvatarStore) Remove(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockAvatarStore) Link(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}
