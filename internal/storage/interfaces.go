// Package storage persists recipe images.
// Backends store opaque byte objects under flat keys; the image processor
// turns uploads into a normalized picture and its thumbnail.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	// ErrObjectNotFound is returned when no object exists under a key.
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidKey is returned for keys that could escape the storage root.
	ErrInvalidKey = errors.New("invalid object key")
)

// Object is a stored object opened for reading.
// The caller must close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// Backend defines the interface for image storage backends.
// Implementations are the local filesystem and S3-compatible object storage.
type Backend interface {
	// Put stores size bytes from r under key, replacing any existing object.
	// size may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Get opens the object stored under key.
	// Returns ErrObjectNotFound if it doesn't exist.
	Get(ctx context.Context, key string) (*Object, error)

	// Delete removes the object under key. Deleting a missing key succeeds.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
}

// ValidateKey accepts keys made of letters, digits, '-', '_' and '.',
// with no leading dot.
func ValidateKey(key string) error {
	if key == "" || len(key) > 128 || strings.HasPrefix(key, ".") {
		return ErrInvalidKey
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return ErrInvalidKey
		}
	}
	return nil
}
