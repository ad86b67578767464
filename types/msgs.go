package types

import "fmt"

// Msg is one of the escrow requests carried by a transaction. The set is
// closed: MsgCreateOrder, MsgPayOrder and MsgCancelOrder.
type Msg interface {
	// Type is the snake_case key the message is encoded under.
	Type() string
	ValidateBasic() error

	isMsg()
}

const (
	TypeCreateOrder = "create_order"
	TypePayOrder    = "pay_order"
	TypeCancelOrder = "cancel_order"
)

var (
	_ Msg = (*MsgCreateOrder)(nil)
	_ Msg = (*MsgPayOrder)(nil)
	_ Msg = (*MsgCancelOrder)(nil)
)

// MsgCreateOrder puts an asset into escrow at the given price. Name, URI and
// Data are forwarded to the asset registry when the asset is minted.
type MsgCreateOrder struct {
	Asset AssetRef `json:"asset"`
	Price Coin     `json:"price"`
	Name  string   `json:"name,omitempty"`
	URI   string   `json:"uri,omitempty"`
	Data  string   `json:"data,omitempty"`
}

func (*MsgCreateOrder) Type() string { return TypeCreateOrder }
func (*MsgCreateOrder) isMsg()       {}

func (m *MsgCreateOrder) ValidateBasic() error {
	if err := m.Asset.ValidateBasic(); err != nil {
		return err
	}
	return m.Price.ValidateBasic()
}

// MsgPayOrder settles a pending order with the funds attached to the
// transaction.
type MsgPayOrder struct {
	OrderID uint64 `json:"order_id,string"`
}

func (*MsgPayOrder) Type() string { return TypePayOrder }
func (*MsgPayOrder) isMsg()       {}

func (m *MsgPayOrder) ValidateBasic() error {
	return validateOrderID(m.OrderID)
}

// MsgCancelOrder revokes a pending order and releases the asset to the
// seller.
type MsgCancelOrder struct {
	OrderID uint64 `json:"order_id,string"`
}

func (*MsgCancelOrder) Type() string { return TypeCancelOrder }
func (*MsgCancelOrder) isMsg()       {}

func (m *MsgCancelOrder) ValidateBasic() error {
	return validateOrderID(m.OrderID)
}

func validateOrderID(id uint64) error {
	if id == 0 {
		return fmt.Errorf("%w: order id must be positive", ErrMalformedInput)
	}
	return nil
}

func newMsg(typ string) (Msg, error) {
	switch typ {
	case TypeCreateOrder:
		return new(MsgCreateOrder), nil
	case TypePayOrder:
		return new(MsgPayOrder), nil
	case TypeCancelOrder:
		return new(MsgCancelOrder), nil
	default:
		return nil, fmt.Errorf("%w: unknown message type %q", ErrEncoding, typ)
	}
}
