package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RECIPEBOOK_AUTH_JWT_SECRET", "test-secret")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 5000, cfg.Server.Port)
	require.Equal(t, "mongo", cfg.Database.Driver)
	require.Equal(t, "recipe-app", cfg.Database.Mongo.Database)
	require.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	require.False(t, cfg.Redis.Enabled)
	require.Equal(t, 10*time.Second, cfg.Database.ConnectTimeout)
	require.Equal(t, 200*time.Millisecond, cfg.Database.SlowQueryThreshold)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5432, User: "rb", Password: "pw", Database: "recipebook", SSLMode: "disable"}
	require.Equal(t, "host=db port=5432 user=rb password=pw dbname=recipebook sslmode=disable", cfg.DSN())

	cfg.URL = "postgres://rb:pw@db:5432/recipebook"
	require.Equal(t, "postgres://rb:pw@db:5432/recipebook", cfg.DSN())
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load("")
	require.Error(t, err)
	require.Contains(t, err.Error(), "auth.jwt_secret")
}

func TestLoad_LegacyEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "legacy-secret")
	t.Setenv("PORT", "8080")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "legacy-secret", cfg.Auth.JWTSecret)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "mongodb://db:27017", cfg.Database.Mongo.URI)
}

func TestLoad_PrefixedEnvWinsOverLegacy(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "legacy-secret")
	t.Setenv("RECIPEBOOK_AUTH_JWT_SECRET", "new-secret")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "new-secret", cfg.Auth.JWTSecret)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7000
database:
  driver: sqlite
  path: ":memory:"
auth:
  jwt_secret: file-secret
  token_ttl: 1h
cors:
  allowed_origins:
    - http://localhost:3000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7000, cfg.Server.Port)
	require.True(t, cfg.Database.IsEmbedded())
	require.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Server:   ServerConfig{Port: 5000},
			Database: DatabaseConfig{Driver: "sqlite", Path: "x.db"},
			Storage:  StorageConfig{Backend: "filesystem", DataDir: "d", ThumbnailWidth: 300},
			Auth:     AuthConfig{JWTSecret: "s", TokenTTL: time.Hour, BcryptCost: 10},
			Logging:  LoggingConfig{Level: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"mongo without uri", func(c *Config) { c.Database.Driver = "mongo" }, true},
		{"postgres without host", func(c *Config) { c.Database.Driver = "postgres" }, true},
		{"postgres url", func(c *Config) { c.Database = DatabaseConfig{Driver: "postgres", URL: "postgres://u@db/recipebook"} }, false},
		{"s3 without bucket", func(c *Config) { c.Storage.Backend = "s3" }, true},
		{"no secret", func(c *Config) { c.Auth.JWTSecret = "" }, true},
		{"bad cost", func(c *Config) { c.Auth.BcryptCost = 2 }, true},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"bad limiter", func(c *Config) { c.RateLimit = RateLimitConfig{Enabled: true} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
