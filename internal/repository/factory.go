package repository

import (
	"context"
)

// Repositories holds all repository instances.
type Repositories struct {
	User    UserRepository
	Recipe  RecipeRepository
	Comment CommentRepository
	Sharing SharingRepository
}

// DatabaseHealth is an interface for database health checks.
// This interface satisfies handler.DatabaseChecker for health endpoints.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Close() error
}

// Migrator applies schema changes for a backend.
// SQL backends run embedded migrations; MongoDB ensures its indexes.
type Migrator interface {
	Migrate(ctx context.Context) error
	MigrationVersion(ctx context.Context) (int, error)
}

// Database is an opened backend.
type Database interface {
	DatabaseHealth
	Migrator
}

// CreateRepositoriesResult contains the created repositories and database connection.
type CreateRepositoriesResult struct {
	Repos    *Repositories
	Database Database
	Driver   string
}
