package cli

import (
	"github.com/spf13/cobra"

	"github.com/iliyamo/rideshare-groups/internal/database"
)

// NewMigrateCommand applies the embedded schema for the configured driver.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, dialect, err := openDB(opts.Config)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(cmd.Context(), db, dialect); err != nil {
				return err
			}
			opts.Log.WithField("driver", opts.Config.StorageDriver).Info("schema applied")
			return nil
		},
	}
}
