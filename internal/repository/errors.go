package repository

import "errors"

// Repository errors
var (
	// ErrDuplicateKey indicates a unique index rejected the write.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Cache errors
var (
	// ErrCacheMiss indicates the key was not found in cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable indicates the cache is unavailable.
	ErrCacheUnavailable = errors.New("cache unavailable")
)
