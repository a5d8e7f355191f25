package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// FilesystemBackend stores objects as files below a root directory.
type FilesystemBackend struct {
	paths  PathConfig
	logger zerolog.Logger
}

// NewFilesystemBackend creates the root directory if needed.
func NewFilesystemBackend(root string, logger zerolog.Logger) (*FilesystemBackend, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", root, err)
	}
	return &FilesystemBackend{
		paths:  DefaultPathConfig(root),
		logger: logger.With().Str("component", "storage").Str("backend", "filesystem").Logger(),
	}, nil
}

// Put writes to a temporary file in the shard directory and renames it into
// place, so readers never observe a partial object.
func (b *FilesystemBackend) Put(ctx context.Context, key string, r io.Reader, size int64, _ string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := GetShardPath(b.paths, key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create shard directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName) // no-op after a successful rename
	}()

	written, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if size >= 0 && written != size {
		_ = tmp.Close()
		return fmt.Errorf("size mismatch for %s: expected %d, wrote %d", key, size, written)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close object: %w", err)
	}

	if err := os.Rename(tmpName, ComputePath(b.paths, key)); err != nil {
		return fmt.Errorf("failed to move object into place: %w", err)
	}

	b.logger.Debug().Str("key", key).Int64("size", written).Msg("stored object")
	return nil
}

// Get opens the file stored under key.
func (b *FilesystemBackend) Get(_ context.Context, key string) (*Object, error) {
	if err := ValidateKey(key); err != nil {
		return nil, ErrObjectNotFound
	}

	f, err := os.Open(ComputePath(b.paths, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Object{Body: f, Size: info.Size(), ContentType: contentType}, nil
}

// Delete removes the file stored under key.
func (b *FilesystemBackend) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	err := os.Remove(ComputePath(b.paths, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Exists checks if a file is stored under key.
func (b *FilesystemBackend) Exists(_ context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, nil
	}
	_, err := os.Stat(ComputePath(b.paths, key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat object: %w", err)
}

var _ Backend = (*FilesystemBackend)(nil)
