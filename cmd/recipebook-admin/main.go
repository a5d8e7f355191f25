// Package main is the entry point for the RecipeBook admin CLI.
// It manages users, seeds sample recipes and generates signing secrets.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/prn-tf/recipebook/internal/cache/redis"
	"github.com/prn-tf/recipebook/internal/config"
	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/lock"
	"github.com/prn-tf/recipebook/internal/pkg/crypto"
	"github.com/prn-tf/recipebook/internal/repository"
	"github.com/prn-tf/recipebook/internal/repository/backends"
	"github.com/prn-tf/recipebook/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("RecipeBook Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		err = runUser(ctx, os.Args[2:])

	case "seed":
		err = runSeed(ctx, os.Args[2:])

	case "secret":
		var secret string
		secret, err = crypto.GenerateSecret()
		if err == nil {
			fmt.Println(secret)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is an opened backend plus the settings it was opened with.
type app struct {
	cfg    *config.Config
	db     *repository.CreateRepositoriesResult
	logger zerolog.Logger
}

func openApp(ctx context.Context, configPath string) (*app, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if configPath == "" {
		configPath = os.Getenv("RECIPEBOOK_CONFIG")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logging.NewLogger(os.Stderr)

	db, err := backends.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := db.Database.Migrate(ctx); err != nil {
			_ = db.Database.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	return &app{cfg: cfg, db: db, logger: logger}, nil
}

func (a *app) Close() {
	_ = a.db.Database.Close()
}

func runUser(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: recipebook-admin user <create|list> [flags]")
	}

	switch args[0] {
	case "create":
		fset := flag.NewFlagSet("user create", flag.ExitOnError)
		configPath := fset.String("config", "", "path to config file")
		username := fset.String("username", "", "username")
		email := fset.String("email", "", "email address")
		password := fset.String("password", "", "password (min 6 characters)")
		_ = fset.Parse(args[1:])

		a, err := openApp(ctx, *configPath)
		if err != nil {
			return err
		}
		defer a.Close()

		users := service.NewUserService(a.db.Repos.User, crypto.NewPasswordHasher(a.cfg.Auth.BcryptCost), nil, a.logger)
		user, err := users.Register(ctx, service.RegisterInput{
			Username: *username,
			Email:    *email,
			Password: *password,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created user %s (%s)\n", user.Username, user.ID)
		return nil

	case "list":
		fset := flag.NewFlagSet("user list", flag.ExitOnError)
		configPath := fset.String("config", "", "path to config file")
		limit := fset.Int("limit", repository.DefaultListOptions().Limit, "maximum number of users")
		offset := fset.Int("offset", 0, "number of users to skip")
		_ = fset.Parse(args[1:])

		a, err := openApp(ctx, *configPath)
		if err != nil {
			return err
		}
		defer a.Close()

		users := service.NewUserService(a.db.Repos.User, crypto.NewPasswordHasher(a.cfg.Auth.BcryptCost), nil, a.logger)
		result, err := users.List(ctx, repository.ListOptions{Limit: *limit, Offset: *offset})
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tCREATED")
		for _, u := range result.Items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.CreatedAt.Format("2006-01-02 15:04"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Printf("%d of %d users\n", len(result.Items), result.Total)
		return nil

	default:
		return fmt.Errorf("unknown user command %q", args[0])
	}
}

func runSeed(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("seed", flag.ExitOnError)
	configPath := fset.String("config", "", "path to config file")
	owner := fset.String("owner", "", "username owning the sample recipes")
	_ = fset.Parse(args)

	if *owner == "" {
		return errors.New("--owner is required")
	}

	a, err := openApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.db.Repos.User.GetByUsername(ctx, *owner)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	locker, closeLocker, err := a.locker(ctx)
	if err != nil {
		return err
	}
	defer closeLocker()

	recipes := service.NewRecipeService(a.db.Repos, nil, nil, a.logger)
	return lock.WithLock(ctx, locker, lock.Keys.Seed(), lock.DefaultOptions, func(ctx context.Context) error {
		created, err := seedRecipes(ctx, recipes, user.ID)
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d recipes for %s\n", created, user.Username)
		return nil
	})
}

// locker returns the Redis locker when Redis is enabled, so that seeding
// serializes with other admin runs.
func (a *app) locker(ctx context.Context) (lock.Locker, func(), error) {
	if !a.cfg.Redis.Enabled {
		l := lock.NewMemoryLocker()
		return l, l.Close, nil
	}
	client, err := redis.NewClient(ctx, a.cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	return lock.NewRedisLocker(client), func() { _ = client.Close() }, nil
}

func printUsage() {
	fmt.Println(`RecipeBook Admin CLI

Usage:
  recipebook-admin <command> [arguments]

Commands:
  user        Manage users (create, list)
  seed        Insert the sample recipes for an existing user
  secret      Generate a random JWT signing secret
  version     Print version information
  help        Show this help message

Examples:
  recipebook-admin user create --username chef --email chef@example.com --password secret1
  recipebook-admin user list --limit 20
  recipebook-admin seed --owner chef
  recipebook-admin secret

Every command except secret and version reads the server configuration
(--config, RECIPEBOOK_CONFIG or ./config.yaml plus RECIPEBOOK_* variables).`)
}
