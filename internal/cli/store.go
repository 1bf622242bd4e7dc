package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"inventory/m/internal/config"
)

func newStoreCommand() *cobra.Command {
	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Manage stores",
	}

	var name, address string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a store",
		Long: `Create a store and print its id.

Examples:
  inventory store create --name "Main" --address "1 High St"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), config.LoadDatabase(), commandLogger(cmd), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := a.admin.CreateStore(cmd.Context(), name, address)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "Store name")
	createCmd.Flags().StringVar(&address, "address", "", "Store address")
	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("address")

	storeCmd.AddCommand(createCmd)
	return storeCmd
}
