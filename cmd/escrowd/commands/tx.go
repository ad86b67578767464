package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	tmbytes "github.com/tendermint/tendermint/libs/bytes"

	"github.com/dreamer-zq/nft-escrow/types"
)

const (
	flagSender = "sender"
	flagFunds  = "funds"
	flagJSON   = "json"
)

// MakeTxCommand returns the command group that encodes escrow transactions
// for broadcast_tx_commit. Nothing is signed or sent; the host supplies the
// authenticated sender and moves the funds.
func MakeTxCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Encode escrow transactions",
	}
	cmd.PersistentFlags().String(flagSender, "", "address of the caller")
	cmd.PersistentFlags().Bool(flagJSON, false, "print the transaction as JSON instead of hex")
	cmd.AddCommand(makeCreateTxCommand(), makePayTxCommand(), makeCancelTxCommand())
	return cmd
}

func makeCreateTxCommand() *cobra.Command {
	msg := new(types.MsgCreateOrder)
	var price string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Encode a create_order transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			coin, err := types.ParseCoin(price)
			if err != nil {
				return err
			}
			msg.Price = coin
			return printTx(cmd, msg, nil)
		},
	}
	cmd.Flags().StringVar(&msg.Asset.DenomID, "denom-id", "", "collection of the asset")
	cmd.Flags().StringVar(&msg.Asset.NFTID, "nft-id", "", "id of the asset in its collection")
	cmd.Flags().StringVar(&price, "price", "", "price as amount and denomination, e.g. 100iris")
	cmd.Flags().StringVar(&msg.Name, "name", "", "asset name")
	cmd.Flags().StringVar(&msg.URI, "uri", "", "asset metadata uri")
	cmd.Flags().StringVar(&msg.Data, "data", "", "asset data")
	return cmd
}

func makePayTxCommand() *cobra.Command {
	var funds string
	cmd := &cobra.Command{
		Use:   "pay [order-id]",
		Short: "Encode a pay_order transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			coins, err := types.ParseCoins(funds)
			if err != nil {
				return err
			}
			return printTx(cmd, &types.MsgPayOrder{OrderID: id}, coins)
		},
	}
	cmd.Flags().StringVar(&funds, flagFunds, "", "comma separated coins sent with the payment, e.g. 100iris")
	return cmd
}

func makeCancelTxCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel [order-id]",
		Short: "Encode a cancel_order transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return printTx(cmd, &types.MsgCancelOrder{OrderID: id}, nil)
		},
	}
}

func parseOrderID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: order id %q: %v", types.ErrMalformedInput, arg, err)
	}
	return id, nil
}

// printTx validates the transaction and writes its encoding to the command
// output.
func printTx(cmd *cobra.Command, msg types.Msg, funds types.Coins) error {
	sender, err := cmd.Flags().GetString(flagSender)
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool(flagJSON)
	if err != nil {
		return err
	}

	tx := types.Tx{Sender: sender, Funds: funds, Msg: msg}
	if err := tx.ValidateBasic(); err != nil {
		return err
	}
	bz, err := types.EncodeTx(tx)
	if err != nil {
		return err
	}

	if asJSON {
		fmt.Fprintln(cmd.OutOrStdout(), string(bz))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "0x%s\n", tmbytes.HexBytes(bz))
	return nil
}
