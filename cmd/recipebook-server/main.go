// Package main is the entry point for the RecipeBook API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/prn-tf/recipebook/internal/auth"
	"github.com/prn-tf/recipebook/internal/cache/memory"
	"github.com/prn-tf/recipebook/internal/cache/redis"
	"github.com/prn-tf/recipebook/internal/config"
	"github.com/prn-tf/recipebook/internal/handler"
	"github.com/prn-tf/recipebook/internal/lock"
	"github.com/prn-tf/recipebook/internal/metrics"
	"github.com/prn-tf/recipebook/internal/pkg/crypto"
	"github.com/prn-tf/recipebook/internal/repository"
	"github.com/prn-tf/recipebook/internal/repository/backends"
	"github.com/prn-tf/recipebook/internal/service"
	"github.com/prn-tf/recipebook/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// usernameCacheTTL bounds how long the resolver keeps a username.
const usernameCacheTTL = 15 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	configPath := flag.String("config", os.Getenv("RECIPEBOOK_CONFIG"), "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	logger := cfg.Logging.NewLogger(os.Stderr)
	log.Logger = logger

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("Starting RecipeBook server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped with error")
	}
	logger.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	db, err := backends.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Database.Close()

	if cfg.Database.AutoMigrate {
		if err := db.Database.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	var (
		locker lock.Locker
		cache  repository.Cache
	)
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client)
		cache = redis.NewCache(client)
		logger.Info().Str("addr", cfg.Redis.Addr()).Msg("using Redis for locks and cache")
	} else {
		memLocker := lock.NewMemoryLocker()
		defer memLocker.Close()
		memCache := memory.NewCache(0)
		defer memCache.Stop()
		locker, cache = memLocker, memCache
	}

	backend, err := storage.NewBackend(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize image storage: %w", err)
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	if err != nil {
		return err
	}

	// events stays a nil interface when metrics are off.
	var (
		m      *metrics.Metrics
		events service.EventRecorder
	)
	if cfg.Metrics.Enabled {
		m = metrics.New()
		events = m
	}

	repos := db.Repos
	users := service.NewUserService(repos.User, crypto.NewPasswordHasher(cfg.Auth.BcryptCost), events, logger)
	images := service.NewImageService(
		repos.Recipe,
		backend,
		storage.NewImageProcessor(cfg.Storage.MaxImageSize, cfg.Storage.ThumbnailWidth),
		events,
		logger,
	)

	var limiter *handler.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = handler.NewRateLimiter(cfg.RateLimit, logger)
		defer limiter.Close()
	}

	router := handler.NewRouter(handler.RouterConfig{
		Auth:         service.NewAuthService(users, tokens, logger),
		Users:        users,
		Recipes:      service.NewRecipeService(repos, images, events, logger),
		Comments:     service.NewCommentService(repos, events, logger),
		Sharing:      service.NewSharingService(repos, locker, events, logger),
		Images:       images,
		Resolver:     service.NewResolver(repos, cache, usernameCacheTTL, logger),
		Tokens:       tokens,
		Database:     db.Database,
		Metrics:      m,
		MetricsPath:  cfg.Metrics.Path,
		RateLimiter:  limiter,
		Server:       cfg.Server,
		CORS:         cfg.CORS,
		MaxImageSize: cfg.Storage.MaxImageSize,
		Logger:       logger,
	})

	srv := handler.Server(cfg.Server, router.Handler())

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("driver", db.Driver).
			Str("storage", cfg.Storage.Backend).
			Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
