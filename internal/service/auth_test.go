package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"carebook/internal/apiclient"
	backendMocks "carebook/internal/backend/mocks"
	"carebook/internal/model"
	"carebook/internal/repository"
	repoMocks "carebook/internal/repository/mocks"
)

func newAuth(t *testing.T) (AuthService, *backendMocks.MockBackend, *repoMocks.MockSessionRepository) {
	t.Helper()
	api := new(backendMocks.MockBackend)
	repo := new(repoMocks.MockSessionRepository)
	return NewAuthService(api, repo, newCodec(t), time.Hour, fixedClock), api, repo
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, api, repo := newAuth(t)
		api.On("Login", ctx, model.Credentials{Email: "ann@example.com", Password: "pw"}).
			Return(&model.AuthResult{Token: "tok", User: model.UserProfile{ID: "u1", Name: "Ann"}}, nil)
		repo.On("Create", ctx, mock.MatchedBy(func(s *model.Session) bool {
			_, err := uuid.Parse(s.ID)
			return err == nil && s.UserID == "u1" && s.BackendToken == "tok" &&
				s.ExpiresAt.Equal(fixedNow.Add(time.Hour))
		})).Return(func(_ context.Context, s *model.Session) *model.Session { return s }, nil)

		res, err := svc.Login(ctx, model.Credentials{Email: "  Ann@Example.com ", Password: "pw"})

		require.NoError(t, err)
		assert.Equal(t, "u1", res.Session.UserID)
		assert.NotEqual(t, "u1", res.User.ID)
		assert.Equal(t, "u1", open(t, newCodec(t), res.User.ID))
		api.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("validation", func(t *testing.T) {
		svc, api, _ := newAuth(t)

		_, err := svc.Login(ctx, model.Credentials{Email: "nope", Password: "pw"})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.Login(ctx, model.Credentials{Email: "ann@example.com"})
		assert.ErrorIs(t, err, ErrInvalidInput)
		api.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})

	t.Run("rejected credentials", func(t *testing.T) {
		svc, api, _ := newAuth(t)
		api.On("Login", ctx, mock.Anything).Return(nil, &apiclient.Error{Status: http.StatusUnauthorized})

		_, err := svc.Login(ctx, model.Credentials{Email: "ann@example.com", Password: "bad"})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, "email or password is incorrect", Message(err))
	})

	t.Run("backend down", func(t *testing.T) {
		svc, api, _ := newAuth(t)
		api.On("Login", ctx, mock.Anything).Return(nil, &apiclient.Error{Status: http.StatusBadGateway})

		_, err := svc.Login(ctx, model.Credentials{Email: "ann@example.com", Password: "pw"})

		assert.ErrorIs(t, err, ErrUpstream)
	})

	t.Run("response without token", func(t *testing.T) {
		svc, api, _ := newAuth(t)
		api.On("Login", ctx, mock.Anything).Return(&model.AuthResult{User: model.UserProfile{ID: "u1"}}, nil)

		_, err := svc.Login(ctx, model.Credentials{Email: "ann@example.com", Password: "pw"})

		assert.ErrorIs(t, err, ErrUpstream)
	})

	t.Run("session store error", func(t *testing.T) {
		svc, api, repo := newAuth(t)
		api.On("Login", ctx, mock.Anything).Return(&model.AuthResult{Token: "tok", User: model.UserProfile{ID: "u1"}}, nil)
		repo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db down"))

		_, err := svc.Login(ctx, model.Credentials{Email: "ann@example.com", Password: "pw"})

		assert.EqualError(t, err, "create session: db down")
	})
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		reg  model.Registration
	}{
		{"missing name", model.Registration{Email: "ann@example.com", Password: "secret1"}},
		{"bad email", model.Registration{Name: "Ann", Email: "ann.example.com", Password: "secret1"}},
		{"short password", model.Registration{Name: "Ann", Email: "ann@example.com", Password: "123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newAuth(t)
			_, err := svc.Register(ctx, tt.reg)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	t.Run("email taken", func(t *testing.T) {
		svc, api, _ := newAuth(t)
		api.On("Register", ctx, mock.Anything).Return(nil, &apiclient.Error{Status: http.StatusConflict})

		_, err := svc.Register(ctx, model.Registration{Name: "Ann", Email: "ann@example.com", Password: "secret1"})

		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("success logs in", func(t *testing.T) {
		svc, api, repo := newAuth(t)
		api.On("Register", ctx, model.Registration{Name: "Ann", Email: "ann@example.com", Password: "secret1"}).
			Return(&model.UserProfile{ID: "u9"}, nil)
		api.On("Login", ctx, model.Credentials{Email: "ann@example.com", Password: "secret1"}).
			Return(&model.AuthResult{Token: "tok", User: model.UserProfile{ID: "u9"}}, nil)
		repo.On("Create", ctx, mock.Anything).
			Return(func(_ context.Context, s *model.Session) *model.Session { return s }, nil)

		res, err := svc.Register(ctx, model.Registration{Name: " Ann ", Email: "ANN@example.com", Password: "secret1"})

		require.NoError(t, err)
		assert.Equal(t, "u9", res.Session.UserID)
		api.AssertExpectations(t)
	})
}

func TestAuthService_Resolve(t *testing.T) {
	ctx := context.Background()
	id := uuid.NewString()

	t.Run("malformed id", func(t *testing.T) {
		svc, _, repo := newAuth(t)
		_, err := svc.Resolve(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, ErrUnauthorized)
		repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("unknown", func(t *testing.T) {
		svc, _, repo := newAuth(t)
		repo.On("FindByID", ctx, id).Return(nil, repository.ErrNotFound)
		_, err := svc.Resolve(ctx, id)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("expired is deleted", func(t *testing.T) {
		svc, _, repo := newAuth(t)
		repo.On("FindByID", ctx, id).Return(&model.Session{ID: id, ExpiresAt: fixedNow.Add(-time.Minute)}, nil)
		repo.On("Delete", ctx, id).Return(nil).Once()

		_, err := svc.Resolve(ctx, id)

		assert.ErrorIs(t, err, ErrUnauthorized)
		repo.AssertExpectations(t)
	})

	t.Run("live", func(t *testing.T) {
		svc, _, repo := newAuth(t)
		repo.On("FindByID", ctx, id).Return(&model.Session{ID: id, UserID: "u1", ExpiresAt: fixedNow.Add(time.Minute)}, nil)

		s, err := svc.Resolve(ctx, id)

		require.NoError(t, err)
		assert.Equal(t, "u1", s.UserID)
	})

	t.Run("store error", func(t *testing.T) {
		svc, _, repo := newAuth(t)
		repo.On("FindByID", ctx, id).Return(nil, errors.New("db down"))

		_, err := svc.Resolve(ctx, id)

		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnauthorized)
	})
}

func TestAuthService_LogoutAndPurge(t *testing.T) {
	ctx := context.Background()
	svc, _, repo := newAuth(t)
	id := uuid.NewString()

	repo.On("Delete", ctx, id).Return(nil).Once()
	repo.On("DeleteExpired", ctx, fixedNow).Return(int64(2), nil).Once()

	assert.NoError(t, svc.Logout(ctx, id))
	assert.NoError(t, svc.Logout(ctx, "garbage"))

	n, err := svc.PurgeExpired(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	repo.AssertExpectations(t)
}
