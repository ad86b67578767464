package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Tx is the envelope delivered by the host. Sender is the authenticated
// caller and Funds the coins the host moved into contract custody along with
// the request; neither is verified here.
type Tx struct {
	Sender string
	Funds  Coins
	Msg    Msg
}

type txJSON struct {
	Sender string                     `json:"sender"`
	Funds  Coins                      `json:"funds,omitempty"`
	Msg    map[string]json.RawMessage `json:"msg"`
}

// MarshalJSON encodes the message as a single-key object named after its
// type, e.g. {"pay_order":{"order_id":"1"}}.
func (tx Tx) MarshalJSON() ([]byte, error) {
	if tx.Msg == nil {
		return nil, errors.New("tx has no message")
	}
	body, err := json.Marshal(tx.Msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(txJSON{
		Sender: tx.Sender,
		Funds:  tx.Funds,
		Msg:    map[string]json.RawMessage{tx.Msg.Type(): body},
	})
}

func (tx *Tx) UnmarshalJSON(bz []byte) error {
	var raw txJSON
	if err := json.Unmarshal(bz, &raw); err != nil {
		return err
	}
	if len(raw.Msg) != 1 {
		return fmt.Errorf("expected exactly one message, got %d", len(raw.Msg))
	}
	for typ, body := range raw.Msg {
		msg, err := newMsg(typ)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, msg); err != nil {
			return fmt.Errorf("decoding %s: %w", typ, err)
		}
		tx.Msg = msg
	}
	tx.Sender = raw.Sender
	tx.Funds = raw.Funds
	return nil
}

// ValidateBasic performs the stateless checks run in CheckTx.
func (tx *Tx) ValidateBasic() error {
	if strings.TrimSpace(tx.Sender) == "" {
		return fmt.Errorf("%w: tx sender is empty", ErrMalformedInput)
	}
	if tx.Msg == nil {
		return fmt.Errorf("%w: tx has no message", ErrMalformedInput)
	}
	// Payment funds are classified against the order by the engine, so a
	// zero or split tender surfaces as InsufficientFunds or InvalidState.
	// Only a payment may carry funds; anything attached elsewhere would be
	// stranded in custody.
	if _, pay := tx.Msg.(*MsgPayOrder); !pay && len(tx.Funds) != 0 {
		return fmt.Errorf("%w: %s does not accept funds", ErrMalformedInput, tx.Msg.Type())
	}
	return tx.Msg.ValidateBasic()
}

// EncodeTx returns the wire bytes of tx.
func EncodeTx(tx Tx) ([]byte, error) {
	return json.Marshal(tx)
}

// DecodeTx parses wire bytes. Every failure wraps ErrEncoding.
func DecodeTx(bz []byte) (*Tx, error) {
	tx := new(Tx)
	if err := json.Unmarshal(bz, tx); err != nil {
		if errors.Is(err, ErrEncoding) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return tx, nil
}
