// Package cli holds the inventory command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"inventory/m/internal/admin"
	"inventory/m/internal/config"
	"inventory/m/internal/database"
	"inventory/m/internal/ledger"
	"inventory/m/internal/logging"
	"inventory/m/internal/migrations"
	"inventory/m/internal/repository"
)

// NewRootCommand builds the inventory command tree.
func NewRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "inventory",
		Short: "Inventory stock-ledger API",
		Long: `Inventory serves the stock-ledger HTTP API and carries the
maintenance commands around it.

Commands:
  serve   - Run the HTTP API
  migrate - Apply database migrations
  store   - Create stores
  user    - Create users
  seed    - Load items from a CSV catalog`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile == "" {
				return nil
			}
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before running a command")

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newStoreCommand(),
		newUserCommand(),
		newSeedCommand(),
	)
	return root
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the database-backed part of the service shared by every
// command.
type app struct {
	db     *sqlx.DB
	logger logging.Logger
	repos  *repository.SQLManager
	admin  *admin.Service
	ledger *ledger.Service
}

func openApp(ctx context.Context, dbCfg config.Database, logger logging.Logger, images ledger.ImageUploader) (*app, error) {
	db, err := database.Connect(ctx, dbCfg.Driver, dbCfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := migrations.Run(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	repos := repository.NewSQLManager(db)
	return &app{
		db:     db,
		logger: logger,
		repos:  repos,
		admin:  admin.NewService(repos, logger),
		ledger: ledger.NewService(repos, images, logger),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// commandLogger writes JSON logs to the command's stderr.
func commandLogger(cmd *cobra.Command) logging.Logger {
	return logging.NewJSON(cmd.ErrOrStderr(), os.Getenv("LOG_LEVEL"))
}
