// Package main provides a CLI tool for applying database migrations.
package main

import (
	"fmt"
	"os"
	"strconv"

	"stockreturn/internal/config"
	"stockreturn/internal/infrastructure/storage/migration"
	"stockreturn/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Development: !cfg.App.IsProduction()})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	m, err := migration.New(cfg.Database.MigrationsPath, cfg.Database.DSN, log)
	if err != nil {
		log.Fatalw("failed to open migrations", "error", err)
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warnw("failed to close migrator", "error", err)
		}
	}()

	switch os.Args[1] {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		err = withIntArg(func(n int) error { return m.Steps(n) })
	case "force":
		err = withIntArg(func(n int) error { return m.Force(n) })
	case "version":
		var version uint
		var dirty bool
		version, dirty, err = m.Version()
		if err == nil {
			fmt.Printf("version: %d, dirty: %t\n", version, dirty)
		}
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalw("migration failed", "command", os.Args[1], "error", err)
	}
}

func withIntArg(fn func(int) error) error {
	if len(os.Args) < 3 {
		return fmt.Errorf("%s requires a number", os.Args[1])
	}
	n, err := strconv.Atoi(os.Args[2])
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", os.Args[2], err)
	}
	return fn(n)
}

func printUsage() {
	fmt.Println("Usage: migrate <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  up           Apply all pending migrations")
	fmt.Println("  down         Roll back all migrations")
	fmt.Println("  steps <n>    Apply n migrations (negative rolls back)")
	fmt.Println("  force <v>    Set version without migrating")
	fmt.Println("  version      Print the current version")
	fmt.Println()
	fmt.Println("Configuration is read from config.toml and SR_* variables (SR_DATABASE_DSN).")
}
