package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dreamer-zq/nft-escrow/config"
	"github.com/dreamer-zq/nft-escrow/internal/engine"
	"github.com/dreamer-zq/nft-escrow/internal/store"
	"github.com/dreamer-zq/nft-escrow/types"
)

// MakeOrdersCommand returns the command that prints every committed order
// from the local database. The application must not be running, since the
// database backends hold an exclusive lock.
func MakeOrdersCommand(conf *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List committed orders from the local database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(conf)
			if err != nil {
				return err
			}
			defer s.Close()

			orders, err := engine.ListOrders(s)
			if err != nil {
				return err
			}
			bz, err := json.MarshalIndent(types.OrderListResponse{List: orders}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(bz))
			return nil
		},
	}
	addDBFlags(cmd, conf)
	return cmd
}

func openStore(conf *config.Config) (*store.DBStore, error) {
	db, err := config.DefaultDBProvider(&config.DBContext{ID: dbName, Config: conf})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return store.NewDBStore(db), nil
}
