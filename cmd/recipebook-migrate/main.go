// Package main is the entry point for the RecipeBook database migration tool.
// SQL backends apply their embedded migrations; MongoDB gets its indexes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/prn-tf/recipebook/internal/config"
	"github.com/prn-tf/recipebook/internal/repository"
	"github.com/prn-tf/recipebook/internal/repository/backends"
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

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("RecipeBook Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "up", "status":
		if err := run(context.Background(), command, os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	fset := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := fset.String("config", os.Getenv("RECIPEBOOK_CONFIG"), "path to config file")
	_ = fset.Parse(args)
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := cfg.Logging.NewLogger(os.Stderr)

	db, err := backends.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Database.Close()

	if command == "up" {
		return migrateUp(ctx, db.Database, db.Driver)
	}
	return printStatus(ctx, db.Database, db.Driver)
}

func migrateUp(ctx context.Context, m repository.Migrator, driver string) error {
	before, err := m.MigrationVersion(ctx)
	if err != nil {
		return err
	}
	if err := m.Migrate(ctx); err != nil {
		return err
	}
	after, err := m.MigrationVersion(ctx)
	if err != nil {
		return err
	}
	if after == before {
		fmt.Printf("%s: already at version %d\n", driver, after)
		return nil
	}
	fmt.Printf("%s: migrated from version %d to %d\n", driver, before, after)
	return nil
}

func printStatus(ctx context.Context, m repository.Migrator, driver string) error {
	v, err := m.MigrationVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Driver:  %s\n", driver)
	fmt.Printf("Version: %d\n", v)
	if v == 0 {
		fmt.Println("Schema is not initialized; run \"recipebook-migrate up\"")
	}
	return nil
}

func printUsage() {
	fmt.Println(`RecipeBook Migration Tool

Usage:
  recipebook-migrate <command> [--config path]

Commands:
  up          Apply pending migrations (ensure indexes on MongoDB)
  status      Show current migration status
  version     Print version information
  help        Show this help message

Environment Variables:
  RECIPEBOOK_DATABASE_DRIVER   mongo, postgres or sqlite
  RECIPEBOOK_CONFIG            Path to the config file

Examples:
  recipebook-migrate up
  RECIPEBOOK_DATABASE_DRIVER=sqlite recipebook-migrate status`)
}
