// Package cli builds the rideshare-groups command tree.
package cli

import (
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iliyamo/rideshare-groups/internal/config"
	"github.com/iliyamo/rideshare-groups/internal/database"
	"github.com/iliyamo/rideshare-groups/internal/logger"
)

// RootOptions holds state shared by every subcommand.  Load fills it once
// in PersistentPreRunE.
type RootOptions struct {
	Config config.Config
	Log    *logrus.Logger

	LoadConfig func() (config.Config, error)
}

// NewRootCommand returns the root command.  Running it without a
// subcommand serves the API.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{LoadConfig: config.Load})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rideshare-groups",
		Short:         "Admin service for airport rideshare groups",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.LoadConfig()
			if err != nil {
				return err
			}
			opts.Config = cfg
			opts.Log = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cmd.ErrOrStderr()})
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	return cmd
}

// openDB connects to the configured store.
func openDB(cfg config.Config) (*sql.DB, string, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		return db, database.DialectSQLite, err
	case config.DriverMySQL:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		return db, database.DialectMySQL, err
	}
	return nil, "", fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
