package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"inventory/m/internal/auth"
	"inventory/m/internal/config"
)

func newUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var name, email, storeID, password string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a user",
		Long: `Register a user in a store. Without --password the password is
read from the terminal.

Examples:
  inventory user create --name Ann --email ann@example.com --store <store-id>`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				pw, err := promptPassword(cmd.OutOrStdout())
				if err != nil {
					return err
				}
				password = pw
			}

			logger := commandLogger(cmd)
			a, err := openApp(cmd.Context(), config.LoadDatabase(), logger, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			// The session token is discarded, so any secret will do when
			// none is configured.
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				secret = uuid.NewString()
			}
			svc := auth.NewService(a.repos, auth.NewTokenIssuer(secret, time.Hour), nil, logger)

			sess, err := svc.Register(cmd.Context(), name, email, password, storeID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sess.User.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "User name")
	createCmd.Flags().StringVar(&email, "email", "", "User email")
	createCmd.Flags().StringVar(&storeID, "store", "", "Store id")
	createCmd.Flags().StringVar(&password, "password", "", "Password (prompted when empty)")
	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("email")
	_ = createCmd.MarkFlagRequired("store")

	userCmd.AddCommand(createCmd)
	return userCmd
}
