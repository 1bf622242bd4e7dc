package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"inventory/m/domain"
	"inventory/m/internal/config"
	"inventory/m/internal/seed"
)

func newSeedCommand() *cobra.Command {
	var storeID, file, email string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load items from a CSV catalog",
		Long: `Create items in a store from a CSV file with the header
name,price,quantity,category. Missing categories are created. Every
item is recorded as a purchase by the acting user, which defaults to
the first user of the store.

Examples:
  inventory seed --store <store-id> --file assets/items.csv
  inventory seed --store <store-id> --file items.csv --as ann@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := commandLogger(cmd)
			a, err := openApp(cmd.Context(), config.LoadDatabase(), logger, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			actor, err := seedActor(cmd.Context(), a, storeID, email)
			if err != nil {
				return err
			}

			res, err := seed.NewLoader(a.ledger, a.admin, logger).LoadItemsFile(cmd.Context(), actor, storeID, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d items, skipped %d rows\n", res.Created, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&storeID, "store", "", "Store id")
	cmd.Flags().StringVar(&file, "file", "", "CSV catalog path")
	cmd.Flags().StringVar(&email, "as", "", "Email of the acting user")
	_ = cmd.MarkFlagRequired("store")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func seedActor(ctx context.Context, a *app, storeID, email string) (*domain.User, error) {
	if email != "" {
		user, err := a.repos.Repos().Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no user with email %s", email)
		}
		return user, err
	}

	store, err := a.admin.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if len(store.Users) == 0 {
		return nil, fmt.Errorf("store %s has no users; create one with `inventory user create`", storeID)
	}
	return &store.Users[0], nil
}
