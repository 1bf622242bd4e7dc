package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"inventory/m/internal/config"
	"inventory/m/internal/database"
	"inventory/m/internal/migrations"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply every pending migration to the database named by
DATABASE_DRIVER and DATABASE_DSN.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbCfg := config.LoadDatabase()
			db, err := database.Connect(cmd.Context(), dbCfg.Driver, dbCfg.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := migrations.Run(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
