package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"carebook/internal/model"
	"carebook/internal/repository"
)

// SessionPostgres is a PostgreSQL implementation of repository.SessionRepository.
type SessionPostgres struct {
	db *sql.DB
}

// NewSessionPostgres creates a new SessionPostgres repository.
func NewSessionPostgres(db *sql.DB) *SessionPostgres {
	return &SessionPostgres{db: db}
}

var _ repository.SessionRepository = (*SessionPostgres)(nil)

// Create inserts a new session row and returns the stored record.
func (r *SessionPostgres) Create(ctx context.Context, s *model.Session) (*model.Session, error) {
	const q = `
		INSERT INTO sessions (id, user_id, backend_token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, backend_token, expires_at, created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		s.ID,
		s.UserID,
		s.BackendToken,
		s.ExpiresAt,
		s.CreatedAt,
	)
	var out model.Session
	if err := row.Scan(
		&out.ID,
		&out.UserID,
		&out.BackendToken,
		&out.ExpiresAt,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a single session by its ID.
func (r *SessionPostgres) FindByID(ctx context.Context, id string) (*model.Session, error) {
	const q = `
		SELECT id, user_id, backend_token, expires_at, created_at
		FROM sessions
		WHERE id = $1
	`
	var s model.Session
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID,
		&s.UserID,
		&s.BackendToken,
		&s.ExpiresAt,
		&s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete removes a session by ID. It does not return an error if the row does not exist.
func (r *SessionPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM sessions WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// DeleteExpired removes sessions whose expiry is not after now.
func (r *SessionPostgres) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM sessions WHERE expires_at <= $1`
	res, err := r.db.ExecContext(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
