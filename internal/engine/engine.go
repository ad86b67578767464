// Package engine implements the escrow order lifecycle.
//
// Orders start PENDING and move exactly once, to PAID through Pay or to
// REVOKE through Cancel. Both are terminal. Every operation validates all of
// its preconditions before it writes, and it writes at most one order, so a
// failed operation leaves the store it was given untouched. Operations return
// the effects the host must execute, in execution order; the engine never
// executes them itself.
package engine

import (
	"fmt"

	"github.com/dreamer-zq/nft-escrow/internal/store"
	"github.com/dreamer-zq/nft-escrow/types"
)

// Create puts a new PENDING order for msg's asset into s and returns it along
// with the mint that brings the asset into contract custody.
func Create(s store.Store, seller string, msg *types.MsgCreateOrder) (types.Order, []types.Effect, error) {
	if seller == "" {
		return types.Order{}, nil, fmt.Errorf("%w: seller is empty", types.ErrMalformedInput)
	}
	if err := msg.ValidateBasic(); err != nil {
		return types.Order{}, nil, err
	}

	id, err := s.NextID()
	if err != nil {
		return types.Order{}, nil, fmt.Errorf("allocate order id: %w", err)
	}
	order := types.Order{
		ID:     id,
		Asset:  msg.Asset,
		Price:  msg.Price,
		Seller: seller,
		Status: types.StatusPending,
	}
	if err := s.Put(order); err != nil {
		return types.Order{}, nil, fmt.Errorf("put order %d: %w", id, err)
	}

	effects := []types.Effect{
		types.MintAsset{
			OrderID: id,
			Asset:   msg.Asset,
			Name:    msg.Name,
			URI:     msg.URI,
			Data:    msg.Data,
		},
	}
	return order, effects, nil
}

// Pay settles order id with funds. funds must be exactly the price: a single
// coin of the same denomination and amount. The seller is paid before the
// asset moves to payer.
func Pay(s store.Store, payer string, id uint64, funds types.Coins) (types.Order, []types.Effect, error) {
	if payer == "" {
		return types.Order{}, nil, fmt.Errorf("%w: payer is empty", types.ErrMalformedInput)
	}
	order, err := loadPending(s, id)
	if err != nil {
		return types.Order{}, nil, err
	}
	if !funds.Settles(order.Price) {
		return types.Order{}, nil, fmt.Errorf("order %d: tendered %q, price %s: %w",
			id, funds.String(), order.Price, types.ErrInsufficientFunds)
	}

	order.Status = types.StatusPaid
	order.Buyer = payer
	if err := s.Put(order); err != nil {
		return types.Order{}, nil, fmt.Errorf("put order %d: %w", id, err)
	}

	effects := []types.Effect{
		types.TransferFunds{OrderID: id, To: order.Seller, Amount: order.Price},
		types.TransferAsset{OrderID: id, Asset: order.Asset, To: payer},
	}
	return order, effects, nil
}

// Cancel revokes order id and releases the asset back to the seller. Only the
// seller may cancel; that is checked before the status so a stranger learns
// nothing about the order's state.
func Cancel(s store.Store, caller string, id uint64) (types.Order, []types.Effect, error) {
	order, err := get(s, id)
	if err != nil {
		return types.Order{}, nil, err
	}
	if caller != order.Seller {
		return types.Order{}, nil, fmt.Errorf("order %d: %q is not the seller: %w", id, caller, types.ErrUnauthorized)
	}
	if order.Status != types.StatusPending {
		return types.Order{}, nil, fmt.Errorf("order %d is %s: %w", id, order.Status, types.ErrInvalidState)
	}

	order.Status = types.StatusRevoke
	if err := s.Put(order); err != nil {
		return types.Order{}, nil, fmt.Errorf("put order %d: %w", id, err)
	}

	effects := []types.Effect{
		types.TransferAsset{OrderID: id, Asset: order.Asset, To: order.Seller},
	}
	return order, effects, nil
}

// ListOrders returns every order in insertion order.
func ListOrders(s store.Store) ([]types.Order, error) {
	return s.List()
}

// GetOrder returns order id or an error wrapping types.ErrOrderNotFound.
func GetOrder(s store.Store, id uint64) (types.Order, error) {
	return get(s, id)
}

func get(s store.Store, id uint64) (types.Order, error) {
	order, ok, err := s.Get(id)
	if err != nil {
		return types.Order{}, fmt.Errorf("get order %d: %w", id, err)
	}
	if !ok {
		return types.Order{}, types.ErrOrder(types.ErrOrderNotFound, id)
	}
	return order, nil
}

func loadPending(s store.Store, id uint64) (types.Order, error) {
	order, err := get(s, id)
	if err != nil {
		return types.Order{}, err
	}
	if order.Status != types.StatusPending {
		return types.Order{}, fmt.Errorf("order %d is %s: %w", id, order.Status, types.ErrInvalidState)
	}
	return order, nil
}
