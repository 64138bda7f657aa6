// Package storage keeps profile pictures in an S3-compatible bucket.
// Pictures are streamed in and out; nothing is staged on local disk.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CacheControl is stored with every picture and echoed when it is served.
const CacheControl = "private, max-age=300"

const keyPrefix = "avatars"

// Picture is an upload on its way into the bucket.
type Picture struct {
	// Owner is the backend user id; it only shapes the key, hashed.
	Owner       string
	Body        io.Reader
	Size        int64
	ContentType string
	// Extension includes the leading dot, e.g. ".png".
	Extension string
	Filename  string
}

// Stored describes a picture held in the bucket.
type Stored struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// AvatarStore is the bucket side of the profile picture flow.
type AvatarStore interface {
	// Save writes p under a fresh key scoped to p.Owner.
	Save(ctx context.Context, p Picture) (Stored, error)
	// Open streams a stored picture; the caller closes the reader.
	Open(ctx context.Context, key string) (io.ReadCloser, Stored, error)
	Remove(ctx context.Context, key string) error
	// Link returns a time-limited URL that renders the picture inline.
	Link(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ObjectKey returns a new key for a picture of owner:
// avatars/<owner digest>/<uuid><ext>.
func ObjectKey(owner, ext string) string {
	return path.Join(keyPrefix, ownerDir(owner), uuid.NewString()+ext)
}

// OwnedBy reports whether key was issued by ObjectKey for owner.
func OwnedBy(key, owner string) bool {
	dir, file := path.Split(key)
	return file != "" && dir == path.Join(keyPrefix, ownerDir(owner))+"/"
}

func ownerDir(owner string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(owner)))
	return hex.EncodeToString(sum[:8])
}
