// Package repository contains data access abstractions for the records the
// portal owns itself. Implementations live in subpackages (e.g., postgres).
// Domain data belongs to the booking backend and is reached via package backend.
package repository

import (
	"context"
	"errors"
	"time"

	"carebook/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// SessionRepository persists portal login sessions.
type SessionRepository interface {
	// Create inserts a new session and returns the stored record.
	Create(ctx context.Context, s *model.Session) (*model.Session, error)

	// FindByID returns a session by its ID, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// Delete removes a session by ID. It returns nil if the row did not exist.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes every session that expired before now and reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AvatarRepository persists profile picture metadata; the bytes live in object storage.
type AvatarRepository interface {
	// Upsert stores the avatar for a user and returns the previous one, if any.
	Upsert(ctx context.Context, a *model.Avatar) (previous *model.Avatar, err error)

	// FindByUser returns the avatar of a user, or ErrNotFound.
	FindByUser(ctx context.Context, userID string) (*model.Avatar, error)
}
