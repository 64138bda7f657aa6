package mocks

import (
	"context"
	"time"

	"carebook/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, s *model.Session) (*model.Session, error) {
	args := m.Called(ctx, s)
	if fn, ok := args.Get(0).(func(context.Context, *model.Session) *model.Session); ok {
		return fn(ctx, s), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockSessionRepository) FindByID(ctx context.Context, id string) (*model.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockAvatarRepository struct {
	mock.Mock
}

func (m *MockAvatarRepository) Upsert(ctx context.Context, a *model.Avatar) (*model.Avatar, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Avatar), args.Error(1)
}

func (m *MockAvatarRepository) FindByUser(ctx context.Context, userID string) (*model.Avatar, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Avatar), args.Error(1)
}
