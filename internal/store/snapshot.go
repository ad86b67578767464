package store

import (
	"fmt"

	"github.com/dreamer-zq/nft-escrow/types"
)

// Snapshot is the portable form of the order store. It is what `escrowd
// export` writes and what InitChain accepts as genesis app state.
type Snapshot struct {
	Orders       []types.Order `json:"orders"`
	NextSequence uint64        `json:"next_sequence,string"`
}

// ValidateBasic checks every order and that ids are unique, ascending and
// below the next sequence.
func (snap Snapshot) ValidateBasic() error {
	if snap.NextSequence == 0 {
		return fmt.Errorf("%w: next_sequence must be positive", types.ErrMalformedInput)
	}
	var last uint64
	for _, order := range snap.Orders {
		if err := order.ValidateBasic(); err != nil {
			return err
		}
		if order.ID <= last {
			return fmt.Errorf("%w: order %d out of sequence after %d", types.ErrMalformedInput, order.ID, last)
		}
		if order.ID >= snap.NextSequence {
			return fmt.Errorf("%w: order %d not below next_sequence %d",
				types.ErrMalformedInput, order.ID, snap.NextSequence)
		}
		last = order.ID
	}
	return nil
}

// Export reads the whole store into a Snapshot.
func Export(s Parent) (Snapshot, error) {
	orders, err := s.List()
	if err != nil {
		return Snapshot{}, err
	}
	next, err := s.Sequence()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Orders: orders, NextSequence: next}, nil
}

// Import validates snap and writes it into s. The store is expected to be
// empty; existing orders with the same ids are overwritten.
func Import(s Parent, snap Snapshot) error {
	if err := snap.ValidateBasic(); err != nil {
		return err
	}
	return s.apply(snap.Orders, snap.NextSequence, nil)
}
