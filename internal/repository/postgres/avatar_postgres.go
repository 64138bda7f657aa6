package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"carebook/internal/model"
	"carebook/internal/repository"
)

// AvatarPostgres is a PostgreSQL implementation of repository.AvatarRepository.
type AvatarPostgres struct {
	db *sql.DB
}

// NewAvatarPostgres creates a new AvatarPostgres repository.
func NewAvatarPostgres(db *sql.DB) *AvatarPostgres {
	return &AvatarPostgres{db: db}
}

var _ repository.AvatarRepository = (*AvatarPostgres)(nil)

// Upsert replaces the user's avatar row inside one transaction and returns the
// row it replaced. Concurrent calls for the same user see each other's rows.
func (r *AvatarPostgres) Upsert(ctx context.Context, a *model.Avatar) (*model.Avatar, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// FOR UPDATE has nothing to lock before the first upload, so concurrent
	// uploads of one user are serialized on a transaction-scoped lock.
	const qLock = `SELECT pg_advisory_xact_lock(hashtext('avatars'), hashtext($1))`
	if _, err := tx.ExecContext(ctx, qLock, a.UserID); err != nil {
		return nil, fmt.Errorf("lock avatar: %w", err)
	}

	const qPrev = `
		SELECT user_id, storage_path, content_type, size, updated_at
		FROM avatars
		WHERE user_id = $1
		FOR UPDATE
	`
	var prev *model.Avatar
	var p model.Avatar
	err = tx.QueryRowContext(ctx, qPrev, a.UserID).Scan(
		&p.UserID,
		&p.StoragePath,
		&p.ContentType,
		&p.Size,
		&p.UpdatedAt,
	)
	switch {
	case err == nil:
		prev = &p
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, err
	}

	const qUpsert = `
		INSERT INTO avatars (user_id, storage_path, content_type, size, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET storage_path = EXCLUDED.storage_path,
		    content_type = EXCLUDED.content_type,
		    size = EXCLUDED.size,
		    updated_at = EXCLUDED.updated_at
	`
	if _, err := tx.ExecContext(ctx, qUpsert,
		a.UserID,
		a.StoragePath,
		a.ContentType,
		a.Size,
		a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return prev, nil
}

// FindByUser fetches the avatar metadata of a user.
func (r *AvatarPostgres) FindByUser(ctx context.Context, userID string) (*model.Avatar, error) {
	const q = `
		SELECT user_id, storage_path, content_type, size, updated_at
		FROM avatars
		WHERE user_id = $1
	`
	var a model.Avatar
	err := r.db.QueryRowContext(ctx, q, userID).Scan(
		&a.UserID,
		&a.StoragePath,
		&a.ContentType,
		&a.Size,
		&a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
