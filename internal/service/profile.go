package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gabriel-vasile/mimetype"

	"carebook/internal/backend"
	"carebook/internal/model"
	"carebook/internal/repository"
	"carebook/internal/storage"
)

// ProfileService defines the profile page use cases. userID is the raw
// backend id taken from the session.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*model.UserProfile, error)
	Update(ctx context.Context, userID string, u model.ProfileUpdate) (*model.UserProfile, error)
	// UploadAvatar stores a new profile picture and replaces the previous one.
	UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string, size int64) (*model.Avatar, error)
	// AvatarURL returns a time-limited download URL for the user's picture.
	AvatarURL(ctx context.Context, userID string) (string, error)
	// OpenAvatar streams the user's picture; the caller closes the reader.
	OpenAvatar(ctx context.Context, userID string) (io.ReadCloser, storage.Stored, error)
}

// AvatarLimits bounds profile picture uploads.
type AvatarLimits struct {
	MaxBytes   int64
	PresignTTL time.Duration
}

type profileService struct {
	api     backend.Backend
	store   storage.AvatarStore
	avatars repository.AvatarRepository
	ids     ids
	limits  AvatarLimits
	log     *log.Logger
	now     Clock
}

// NewProfileService constructs a new ProfileService.
func NewProfileService(api backend.Backend, store storage.AvatarStore, avatars repository.AvatarRepository, codec IDCodec, limits AvatarLimits, logger *log.Logger, now Clock) ProfileService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &profileService{
		api:     api,
		store:   store,
		avatars: avatars,
		ids:     ids{codec},
		limits:  limits,
		log:     logger.With("component", "profile"),
		now:     now,
	}
}

func (s *profileService) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	p, err := s.api.GetProfile(ctx, userID)
	if err != nil {
		return nil, fromBackend(err, "profile")
	}
	return s.present(ctx, userID, p)
}

func (s *profileService) Update(ctx context.Context, userID string, u model.ProfileUpdate) (*model.UserProfile, error) {
	if err := s.validate(&u); err != nil {
		return nil, err
	}
	p, err := s.api.UpdateProfile(ctx, userID, u)
	if err != nil {
		return nil, fromBackend(err, "profile")
	}
	return s.present(ctx, userID, p)
}

func (s *profileService) validate(u *model.ProfileUpdate) error {
	trim := func(p *string) {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(u.Name)
	trim(u.Email)
	trim(u.Phone)
	trim(u.DateOfBirth)
	trim(u.Gender)
	trim(u.Address)
	trim(u.BloodGroup)

	if u.Name != nil && *u.Name == "" {
		return invalid("name", "must not be empty")
	}
	if u.Email != nil {
		*u.Email = strings.ToLower(*u.Email)
		if !validEmail(*u.Email) {
			return invalid("email", "is not a valid address")
		}
	}
	if u.DateOfBirth != nil && *u.DateOfBirth != "" {
		dob, err := time.Parse(model.DateLayout, *u.DateOfBirth)
		if err != nil {
			return invalid("date of birth", "must be formatted as YYYY-MM-DD")
		}
		if dob.After(s.now()) {
			return invalid("date of birth", "must not be in the future")
		}
	}
	return nil
}

// present encrypts the profile id and points the avatar at the stored picture, if any.
func (s *profileService) present(ctx context.Context, userID string, p *model.UserProfile) (*model.UserProfile, error) {
	if url, err := s.AvatarURL(ctx, userID); err == nil {
		p.AvatarURL = url
	} else if !errors.Is(err, ErrNotFound) {
		s.log.Warn("avatar_url_failed", "error", err)
	}
	if err := s.ids.sealAll(&p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *profileService) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string, size int64) (*model.Avatar, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	if size <= 0 {
		return nil, invalid("file", "is empty")
	}
	if s.limits.MaxBytes > 0 && size > s.limits.MaxBytes {
		return nil, invalid("file", fmt.Sprintf("must be at most %d bytes", s.limits.MaxBytes))
	}

	// The declared type comes from the browser; the stored type is sniffed.
	mt, body, err := sniff(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, invalid("file", "must be an image")
	}
	if contentType != mt.String() {
		s.log.Debug("avatar_content_type_mismatch", "declared", contentType, "detected", mt.String())
	}
	contentType = mt.String()

	stored, err := s.store.Save(ctx, storage.Picture{
		Owner:       userID,
		Body:        body,
		Size:        size,
		ContentType: contentType,
		Extension:   mt.Extension(),
		Filename:    filename,
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	avatar := &model.Avatar{
		UserID:      userID,
		StoragePath: stored.Key,
		ContentType: contentType,
		Size:        stored.Size,
		UpdatedAt:   s.now().UTC(),
	}
	prev, err := s.avatars.Upsert(ctx, avatar)
	if err != nil {
		if delErr := s.store.Remove(ctx, stored.Key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	if prev != nil && prev.StoragePath != avatar.StoragePath {
		if err := s.store.Remove(ctx, prev.StoragePath); err != nil {
			s.log.Warn("previous_avatar_delete_failed", "storage_path", prev.StoragePath, "error", err)
		}
	}
	return avatar, nil
}

func (s *profileService) AvatarURL(ctx context.Context, userID string) (string, error) {
	a, err := s.findAvatar(ctx, userID)
	if err != nil {
		return "", err
	}
	url, err := s.store.Link(ctx, a.StoragePath, s.limits.PresignTTL)
	if err != nil {
		return "", fmt.Errorf("presign avatar: %w", err)
	}
	return url, nil
}

func (s *profileService) OpenAvatar(ctx context.Context, userID string) (io.ReadCloser, storage.Stored, error) {
	a, err := s.findAvatar(ctx, userID)
	if err != nil {
		return nil, storage.Stored{}, err
	}
	rc, info, err := s.store.Open(ctx, a.StoragePath)
	if err != nil {
		return nil, storage.Stored{}, fmt.Errorf("open avatar: %w", err)
	}
	return rc, info, nil
}

func (s *profileService) findAvatar(ctx context.Context, userID string) (*model.Avatar, error) {
	a, err := s.avatars.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "no profile picture", err)
		}
		return nil, fmt.Errorf("find avatar: %w", err)
	}
	if !storage.OwnedBy(a.StoragePath, userID) {
		s.log.Warn("avatar_key_owner_mismatch", "storage_path", a.StoragePath)
		return nil, newError(ErrNotFound, "no profile picture", nil)
	}
	return a, nil
}

// sniffLen covers the signatures of every image format mimetype knows.
const sniffLen = 3072

// sniff detects the content type from the first bytes of r and returns a
// reader that still yields the full content.
func sniff(r io.Reader) (*mimetype.MIME, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}
	head = head[:n]
	return mimetype.Detect(head), io.MultiReader(bytes.NewReader(head), r), nil
}
