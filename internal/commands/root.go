// Package commands implements the gastosctl operator CLI.
package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"gastos/internal/config"
	"gastos/internal/database"
	"gastos/internal/logger"
	"gastos/internal/pagination"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gastosctl",
		Short: "Operator tool for the gastos personal finance backend",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newRulesCommand())
	rootCmd.AddCommand(newImportCommand())

	return rootCmd
}

// openDatabase loads configuration and connects to the configured database.
// When migrate is set the schema is brought up to date first.
func openDatabase(migrate bool) (*database.Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Init(cfg.Env, cfg.LogLevel)
	pagination.DefaultPageSize = cfg.ListingDefaultPageSize

	dbConfig, err := database.NewConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load database configuration: %w", err)
	}
	manager, err := database.NewManager(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if migrate {
		if err := manager.RunMigrations(); err != nil {
			_ = manager.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
	}
	return manager, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
