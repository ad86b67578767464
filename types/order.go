package types

import (
	"fmt"
	"strings"
)

// OrderStatus is the lifecycle state of an escrow order.
type OrderStatus string

const (
	StatusPending OrderStatus = "PENDING"
	StatusPaid    OrderStatus = "PAID"
	StatusRevoke  OrderStatus = "REVOKE"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusRevoke
}

func (s OrderStatus) ValidateBasic() error {
	switch s {
	case StatusPending, StatusPaid, StatusRevoke:
		return nil
	default:
		return fmt.Errorf("%w: unknown order status %q", ErrMalformedInput, string(s))
	}
}

// AssetRef identifies a single asset instance inside a collection of the
// asset registry.
type AssetRef struct {
	DenomID string `json:"denom_id"`
	NFTID   string `json:"nft_id"`
}

func (a AssetRef) String() string {
	return a.DenomID + "/" + a.NFTID
}

func (a AssetRef) ValidateBasic() error {
	if strings.TrimSpace(a.DenomID) == "" {
		return fmt.Errorf("%w: asset denom_id is empty", ErrMalformedInput)
	}
	if strings.TrimSpace(a.NFTID) == "" {
		return fmt.Errorf("%w: asset nft_id is empty", ErrMalformedInput)
	}
	return nil
}

// Order is an escrow record pairing one custodied asset with a price.
type Order struct {
	ID     uint64      `json:"id,string"`
	Asset  AssetRef    `json:"asset"`
	Price  Coin        `json:"price"`
	Seller string      `json:"seller"`
	Buyer  string      `json:"buyer,omitempty"`
	Status OrderStatus `json:"status"`
}

// ValidateBasic checks the record invariants, including that a buyer is
// present exactly when the order is paid.
func (o Order) ValidateBasic() error {
	if o.ID == 0 {
		return fmt.Errorf("%w: order id must be positive", ErrMalformedInput)
	}
	if err := o.Asset.ValidateBasic(); err != nil {
		return err
	}
	if err := o.Price.ValidateBasic(); err != nil {
		return err
	}
	if o.Seller == "" {
		return fmt.Errorf("%w: order %d has no seller", ErrMalformedInput, o.ID)
	}
	if err := o.Status.ValidateBasic(); err != nil {
		return err
	}
	if (o.Status == StatusPaid) != (o.Buyer != "") {
		return fmt.Errorf("%w: order %d buyer %q inconsistent with status %s",
			ErrMalformedInput, o.ID, o.Buyer, o.Status)
	}
	return nil
}

// OrderListResponse is the query response for the order list.
type OrderListResponse struct {
	List []Order `json:"list"`
}
