package effects

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/dreamer-zq/nft-escrow/types"
)

const custody = "escrow1contract"

func TestTranslatePreservesOrder(t *testing.T) {
	asset := types.AssetRef{DenomID: "cert", NFTID: "nft-1"}
	price := types.NewCoin("iris", 100)
	in := []types.Effect{
		types.MintAsset{OrderID: 1, Asset: asset, Name: "n", URI: "u", Data: "d"},
		types.TransferFunds{OrderID: 1, To: "seller", Amount: price},
		types.TransferAsset{OrderID: 1, Asset: asset, To: "buyer"},
	}

	got, err := NewEmitter(custody).Translate(in)
	require.NoError(t, err)

	want := []Instruction{
		{Type: TypeMsgMintNFT, OrderID: 1, Value: MsgMintNFT{
			ID: "nft-1", DenomID: "cert", Name: "n", URI: "u", Data: "d",
			Sender: custody, Recipient: custody,
		}},
		{Type: TypeMsgSend, OrderID: 1, Value: MsgSend{
			FromAddress: custody, ToAddress: "seller", Amount: types.Coins{price},
		}},
		{Type: TypeMsgTransferNFT, OrderID: 1, Value: MsgTransferNFT{
			ID: "nft-1", DenomID: "cert", Sender: custody, Recipient: "buyer",
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("instructions (-want +got):\n%s", diff)
	}
}

func TestTranslateEmpty(t *testing.T) {
	got, err := NewEmitter(custody).Translate(nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestEvents(t *testing.T) {
	instructions, err := NewEmitter(custody).Translate([]types.Effect{
		types.TransferFunds{OrderID: 3, To: "seller", Amount: types.NewCoin("iris", 5)},
		types.TransferAsset{OrderID: 3, Asset: types.AssetRef{DenomID: "cert", NFTID: "x"}, To: "buyer"},
	})
	require.NoError(t, err)

	events, err := Events(instructions)
	require.NoError(t, err)
	require.Len(t, events, 2)

	attrs := func(i int) map[string]string {
		m := make(map[string]string)
		for _, a := range events[i].Attributes {
			m[string(a.Key)] = string(a.Value)
		}
		return m
	}

	first := attrs(0)
	require.Equal(t, EventTypeEffect, events[0].Type)
	require.Equal(t, "0", first["index"])
	require.Equal(t, TypeMsgSend, first["type"])
	require.Equal(t, "3", first["order_id"])
	require.Equal(t, "seller", first["to"])
	require.JSONEq(t,
		`{"from_address":"escrow1contract","to_address":"seller","amount":[{"denom":"iris","amount":"5"}]}`,
		first["body"])

	second := attrs(1)
	require.Equal(t, "1", second["index"])
	require.Equal(t, TypeMsgTransferNFT, second["type"])
	require.Equal(t, "buyer", second["to"])
}
