package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"carebook/internal/apiclient"
	"carebook/internal/backend"
	"carebook/internal/model"
	"carebook/internal/repository"
)

// MinPasswordLength is enforced on signup before the backend is called.
const MinPasswordLength = 6

// LoginResult is returned to the browser after a successful login or signup.
type LoginResult struct {
	Session *model.Session    `json:"session"`
	User    model.UserProfile `json:"user"`
}

// AuthService defines the login, signup and session use cases.
type AuthService interface {
	// Login checks the credentials against the backend and opens a portal session.
	Login(ctx context.Context, creds model.Credentials) (*LoginResult, error)
	// Register creates the account on the backend, then logs the user in.
	Register(ctx context.Context, reg model.Registration) (*LoginResult, error)
	// Logout closes a session. Unknown sessions are not an error.
	Logout(ctx context.Context, sessionID string) error
	// Resolve returns the live session for sessionID or ErrUnauthorized.
	Resolve(ctx context.Context, sessionID string) (*model.Session, error)
	// PurgeExpired removes sessions that are past their expiry.
	PurgeExpired(ctx context.Context) (int64, error)
}

type authService struct {
	api      backend.Backend
	sessions repository.SessionRepository
	ids      ids
	ttl      time.Duration
	now      Clock
}

// NewAuthService constructs a new AuthService.
func NewAuthService(api backend.Backend, sessions repository.SessionRepository, codec IDCodec, ttl time.Duration, now Clock) AuthService {
	if now == nil {
		now = time.Now
	}
	return &authService{api: api, sessions: sessions, ids: ids{codec}, ttl: ttl, now: now}
}

func (s *authService) Login(ctx context.Context, creds model.Credentials) (*LoginResult, error) {
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	if !validEmail(creds.Email) {
		return nil, invalid("email", "is not a valid address")
	}
	if creds.Password == "" {
		return nil, invalid("password", "is required")
	}

	res, err := s.api.Login(ctx, creds)
	if err != nil {
		switch apiclient.StatusOf(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound:
			return nil, newError(ErrInvalidCredentials, "email or password is incorrect", err)
		}
		return nil, fromBackend(err, "account")
	}
	if res.Token == "" || res.User.ID == "" {
		return nil, newError(ErrUpstream, "", errors.New("login response without token or user"))
	}

	now := s.now().UTC()
	sess, err := s.sessions.Create(ctx, &model.Session{
		ID:           uuid.NewString(),
		UserID:       res.User.ID,
		BackendToken: res.Token,
		ExpiresAt:    now.Add(s.ttl),
		CreatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	user := res.User
	if err := s.ids.sealAll(&user.ID); err != nil {
		return nil, err
	}
	return &LoginResult{Session: sess, User: user}, nil
}

func (s *authService) Register(ctx context.Context, reg model.Registration) (*LoginResult, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	reg.Phone = strings.TrimSpace(reg.Phone)
	switch {
	case reg.Name == "":
		return nil, invalid("name", "is required")
	case !validEmail(reg.Email):
		return nil, invalid("email", "is not a valid address")
	case len(reg.Password) < MinPasswordLength:
		return nil, invalid("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	if _, err := s.api.Register(ctx, reg); err != nil {
		if apiclient.IsStatus(err, http.StatusConflict) {
			return nil, newError(ErrConflict, "an account with this email already exists", err)
		}
		return nil, fromBackend(err, "account")
	}
	return s.Login(ctx, model.Credentials{Email: reg.Email, Password: reg.Password})
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

func (s *authService) Resolve(ctx context.Context, sessionID string) (*model.Session, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, ErrUnauthorized
	}
	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	if sess.Expired(s.now()) {
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("delete expired session: %w", err)
		}
		return nil, ErrUnauthorized
	}
	return sess, nil
}

func (s *authService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}
