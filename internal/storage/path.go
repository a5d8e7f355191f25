package storage

import (
	"path/filepath"
)

// PathConfig holds configuration for storage path generation.
type PathConfig struct {
	// BasePath is the root directory for image storage.
	BasePath string

	// ShardLevels is the number of directory levels for sharding.
	// Default: 2 (e.g., /ab/cd/abcdef...)
	ShardLevels int

	// ShardWidth is the number of characters per shard level.
	// Default: 2 (e.g., ab, cd)
	ShardWidth int
}

// DefaultPathConfig returns the default path configuration.
func DefaultPathConfig(basePath string) PathConfig {
	return PathConfig{
		BasePath:    basePath,
		ShardLevels: 2,
		ShardWidth:  2,
	}
}

// ComputePath generates the storage path for a key.
// Uses directory sharding from the leading characters of the key.
//
// Example with default config (2 levels, 2 chars each):
//
//	key: "3f9a1c20-....jpg"
//	basePath: "/data"
//	result: "/data/3f/9a/3f9a1c20-....jpg"
func ComputePath(config PathConfig, key string) string {
	return filepath.Join(GetShardPath(config, key), key)
}

// GetShardPath returns the directory holding key.
// Keys shorter than the shard prefix live directly under BasePath.
func GetShardPath(config PathConfig, key string) string {
	minLength := config.ShardLevels * config.ShardWidth
	if len(key) < minLength {
		return config.BasePath
	}

	components := make([]string, 0, config.ShardLevels+1)
	components = append(components, config.BasePath)
	for i := 0; i < config.ShardLevels; i++ {
		components = append(components, key[i*config.ShardWidth:(i+1)*config.ShardWidth])
	}
	return filepath.Join(components...)
}
