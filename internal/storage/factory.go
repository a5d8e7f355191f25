package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/recipebook/internal/config"
)

// NewBackend creates the backend named by cfg.Backend.
func NewBackend(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (Backend, error) {
	switch cfg.Backend {
	case "filesystem":
		return NewFilesystemBackend(cfg.DataDir, logger)
	case "s3":
		return NewS3Backend(ctx, cfg.S3, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
