package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/BaSui01/productshot/internal/migration"
)

// =============================================================================
// History Database Migration Commands
// =============================================================================

// runMigrate handles the migrate command and its subcommands
func runMigrate(args []string) {
	if len(args) < 1 {
		printMigrateUsage()
		os.Exit(1)
	}

	subcommand := args[0]
	switch subcommand {
	case "up", "down", "status", "version":
	case "help", "-h", "--help":
		printMigrateUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown migrate subcommand: %s\n", subcommand)
		printMigrateUsage()
		os.Exit(1)
	}

	fs := flag.NewFlagSet("migrate "+subcommand, flag.ExitOnError)
	migrator, err := createMigrator(fs, args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create migrator: %v\n", err)
		os.Exit(1)
	}
	defer migrator.Close()

	cli := migration.NewCLI(migrator)
	if err := cli.Run(context.Background(), subcommand); err != nil {
		fmt.Fprintf(os.Stderr, "Migrate %s failed: %v\n", subcommand, err)
		_ = migrator.Close()
		os.Exit(1)
	}
}

// printMigrateUsage prints the usage information for migrate command
func printMigrateUsage() {
	fmt.Println(`History Database Migration Commands

Usage:
  productshot migrate <subcommand> [options]

Subcommands:
  up        Apply all pending migrations
  down      Rollback the last migration
  status    Show migration status
  version   Show current migration version
  help      Show this help message

Options:
  --config <path>     Path to configuration file (YAML)
  --env-file <path>   Dotenv file to load first (default: .env)
  --db-type <type>    Database type: postgres, mysql, sqlite (default: from config)
  --db-url <url>      Database connection URL (default: from config)

Examples:
  productshot migrate up
  productshot migrate up --config /etc/productshot/config.yaml
  productshot migrate status --db-type sqlite --db-url "file:history.db?mode=rwc"`)
}

// createMigrator creates a migrator from command line flags
func createMigrator(fs *flag.FlagSet, args []string) (*migration.DefaultMigrator, error) {
	configPath := fs.String("config", "", "Path to config file")
	envFile := fs.String("env-file", ".env", "Optional dotenv file")
	dbType := fs.String("db-type", "", "Database type (postgres, mysql, sqlite)")
	dbURL := fs.String("db-url", "", "Database connection URL")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *dbType != "" && *dbURL != "" {
		t, err := migration.ParseDatabaseType(*dbType)
		if err != nil {
			return nil, err
		}
		return migration.NewMigrator(&migration.Config{DatabaseType: t, DatabaseURL: *dbURL})
	}

	cfg, err := loadConfig(*configPath, *envFile)
	if err != nil {
		return nil, err
	}
	if *dbType != "" {
		cfg.Database.Driver = *dbType
	}
	if !cfg.Database.Enabled() {
		return nil, fmt.Errorf("database.driver is not configured; history is disabled")
	}

	return migration.NewMigratorFromDatabaseConfig(cfg.Database)
}
