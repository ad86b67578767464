// Package effects turns lifecycle effects into instructions addressed to the
// host's bank and asset registry modules. Translation is pure: the emitter
// never executes an instruction, never reorders or drops one and never looks
// at any order other than the one an effect names.
package effects

import (
	"encoding/json"
	"fmt"
	"strconv"

	abci "github.com/tendermint/tendermint/abci/types"

	"github.com/dreamer-zq/nft-escrow/types"
)

// Message routes understood by the host.
const (
	TypeMsgSend        = "/cosmos.bank.v1beta1.MsgSend"
	TypeMsgMintNFT     = "/irismod.nft.MsgMintNFT"
	TypeMsgTransferNFT = "/irismod.nft.MsgTransferNFT"
)

// EventTypeEffect is the ABCI event type carrying one instruction.
const EventTypeEffect = "escrow.effect"

// MsgSend moves coins between accounts.
type MsgSend struct {
	FromAddress string      `json:"from_address"`
	ToAddress   string      `json:"to_address"`
	Amount      types.Coins `json:"amount"`
}

// MsgMintNFT mints an asset into the registry.
type MsgMintNFT struct {
	ID        string `json:"id"`
	DenomID   string `json:"denom_id"`
	Name      string `json:"name"`
	URI       string `json:"uri"`
	Data      string `json:"data"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
}

// MsgTransferNFT moves an asset to a new owner.
type MsgTransferNFT struct {
	ID        string `json:"id"`
	DenomID   string `json:"denom_id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
}

// Instruction is a host-addressed message emitted for one effect.
type Instruction struct {
	Type    string      `json:"@type"`
	OrderID uint64      `json:"order_id,string"`
	Value   interface{} `json:"value"`
}

// Recipient returns the party the instruction moves value to.
func (in Instruction) Recipient() string {
	switch v := in.Value.(type) {
	case MsgSend:
		return v.ToAddress
	case MsgMintNFT:
		return v.Recipient
	case MsgTransferNFT:
		return v.Recipient
	default:
		return ""
	}
}

// Emitter addresses instructions from the contract's custody account.
type Emitter struct {
	custody string
}

// NewEmitter returns an Emitter for the custody account address.
func NewEmitter(custody string) *Emitter {
	return &Emitter{custody: custody}
}

// Translate maps effects one to one onto instructions, preserving order.
func (e *Emitter) Translate(effects []types.Effect) ([]Instruction, error) {
	out := make([]Instruction, 0, len(effects))
	for i, eff := range effects {
		in, err := e.translate(eff)
		if err != nil {
			return nil, fmt.Errorf("effect %d: %w", i, err)
		}
		out = append(out, in)
	}
	return out, nil
}

func (e *Emitter) translate(eff types.Effect) (Instruction, error) {
	switch eff := eff.(type) {
	case types.TransferFunds:
		return Instruction{
			Type:    TypeMsgSend,
			OrderID: eff.OrderID,
			Value: MsgSend{
				FromAddress: e.custody,
				ToAddress:   eff.To,
				Amount:      types.Coins{eff.Amount},
			},
		}, nil
	case types.MintAsset:
		return Instruction{
			Type:    TypeMsgMintNFT,
			OrderID: eff.OrderID,
			Value: MsgMintNFT{
				ID:        eff.Asset.NFTID,
				DenomID:   eff.Asset.DenomID,
				Name:      eff.Name,
				URI:       eff.URI,
				Data:      eff.Data,
				Sender:    e.custody,
				Recipient: e.custody,
			},
		}, nil
	case types.TransferAsset:
		return Instruction{
			Type:    TypeMsgTransferNFT,
			OrderID: eff.OrderID,
			Value: MsgTransferNFT{
				ID:        eff.Asset.NFTID,
				DenomID:   eff.Asset.DenomID,
				Sender:    e.custody,
				Recipient: eff.To,
			},
		}, nil
	default:
		return Instruction{}, fmt.Errorf("unknown effect %T", eff)
	}
}

// Events renders instructions as ABCI events, one per instruction, in order.
// The index attribute records the execution position.
func Events(instructions []Instruction) ([]abci.Event, error) {
	events := make([]abci.Event, 0, len(instructions))
	for i, in := range instructions {
		body, err := json.Marshal(in.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", in.Type, err)
		}
		events = append(events, abci.Event{
			Type: EventTypeEffect,
			Attributes: []abci.EventAttribute{
				{Key: []byte("index"), Value: []byte(strconv.Itoa(i)), Index: true},
				{Key: []byte("type"), Value: []byte(in.Type), Index: true},
				{Key: []byte("order_id"), Value: []byte(strconv.FormatUint(in.OrderID, 10)), Index: true},
				{Key: []byte("to"), Value: []byte(in.Recipient()), Index: true},
				{Key: []byte("body"), Value: body},
			},
		})
	}
	return events, nil
}
