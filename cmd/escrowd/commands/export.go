package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dreamer-zq/nft-escrow/config"
	"github.com/dreamer-zq/nft-escrow/internal/store"
	"github.com/dreamer-zq/nft-escrow/libs/cli"
	"github.com/dreamer-zq/nft-escrow/libs/log"
)

// MakeExportCommand returns the command that dumps committed state as a
// snapshot usable as genesis app_state.
func MakeExportCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export committed orders as a genesis app_state snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(conf)
			if err != nil {
				return err
			}
			defer s.Close()

			snap, err := store.Export(s)
			if err != nil {
				return err
			}
			bz, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return err
			}

			if output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(bz))
				return nil
			}
			if err := config.WriteFileAtomic(output, append(bz, '\n'), 0644); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			logger.Info("exported orders", "path", output, "orders", len(snap.Orders), "next_sequence", snap.NextSequence)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, cli.OutputFlag, "o", "", "write the snapshot to this file instead of stdout")
	addDBFlags(cmd, conf)
	return cmd
}
