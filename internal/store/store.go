package store

import (
	"encoding/json"
	"errors"
	"fmt"

	dbm "github.com/tendermint/tm-db"

	tmbytes "github.com/tendermint/tendermint/libs/bytes"

	"github.com/dreamer-zq/nft-escrow/types"
)

// Store is the keyed collection of escrow orders plus the sequence counter
// that assigns their ids.
//
// Lifecycle operations must run against a Cache. Only there do NextID and
// the Put that uses the id land together or not at all; a DBStore persists
// each call on its own, so a failure between them would burn an id.
type Store interface {
	// Get returns the order with the given id. The boolean is false when no
	// such order exists.
	Get(id uint64) (types.Order, bool, error)
	// Put inserts or overwrites an order by id.
	Put(order types.Order) error
	// List returns every order in insertion order.
	List() ([]types.Order, error)
	// NextID allocates a fresh order id and advances the counter.
	NextID() (uint64, error)
}

// Parent is a Store a Cache can be layered over and flushed into.
type Parent interface {
	Store

	// Sequence returns the id the next NextID call would allocate, without
	// allocating it.
	Sequence() (uint64, error)

	apply(orders []types.Order, next uint64, state *AppState) error
}

// AppState is the commit metadata the application reports to Tendermint on
// handshake.
type AppState struct {
	Height  int64            `json:"height"`
	AppHash tmbytes.HexBytes `json:"app_hash"`
}

/*
DBStore keeps orders in a tm-db database.

Three kinds of record are stored:
  - Order:    one JSON record per order, keyed by id
  - Sequence: the next id to allocate
  - AppState: height and app hash of the last commit

Keys are orderedcode encoded so iterating the order range yields orders in id
order, which is also insertion order.

Writes made directly through Put and NextID go straight to the database. The
application never does that: it runs requests against a Cache and flushes
whole blocks with Commit.
*/
type DBStore struct {
	db dbm.DB
}

var _ Parent = (*DBStore)(nil)

// NewDBStore returns a DBStore backed by db.
func NewDBStore(db dbm.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Get(id uint64) (types.Order, bool, error) {
	bz, err := s.db.Get(orderKey(id))
	if err != nil {
		return types.Order{}, false, fmt.Errorf("get order %d: %w", id, err)
	}
	if len(bz) == 0 {
		return types.Order{}, false, nil
	}
	var order types.Order
	if err := json.Unmarshal(bz, &order); err != nil {
		return types.Order{}, false, fmt.Errorf("unmarshal order %d: %w", id, err)
	}
	return order, true, nil
}

func (s *DBStore) Put(order types.Order) error {
	bz, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order %d: %w", order.ID, err)
	}
	return s.db.Set(orderKey(order.ID), bz)
}

func (s *DBStore) List() ([]types.Order, error) {
	iter, err := s.db.Iterator(orderKey(0), orderRangeEnd())
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	orders := make([]types.Order, 0)
	for ; iter.Valid(); iter.Next() {
		id, err := decodeOrderKey(iter.Key())
		if err != nil {
			return nil, fmt.Errorf("decode order key: %w", err)
		}
		var order types.Order
		if err := json.Unmarshal(iter.Value(), &order); err != nil {
			return nil, fmt.Errorf("unmarshal order %d: %w", id, err)
		}
		if order.ID != id {
			return nil, fmt.Errorf("order key %d holds order %d", id, order.ID)
		}
		orders = append(orders, order)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *DBStore) Sequence() (uint64, error) {
	bz, err := s.db.Get(sequenceKey())
	if err != nil {
		return 0, fmt.Errorf("get sequence: %w", err)
	}
	if len(bz) == 0 {
		return 1, nil
	}
	next, err := decodeSequence(bz)
	if err != nil {
		return 0, fmt.Errorf("decode sequence: %w", err)
	}
	return next, nil
}

// NextID advances the persisted counter immediately. It is meant for tools
// and tests; requests allocate ids through a Cache.
func (s *DBStore) NextID() (uint64, error) {
	id, err := s.Sequence()
	if err != nil {
		return 0, err
	}
	if err := s.db.SetSync(sequenceKey(), encodeSequence(id+1)); err != nil {
		return 0, fmt.Errorf("set sequence: %w", err)
	}
	return id, nil
}

// LoadAppState returns the last committed AppState, or the zero value for a
// fresh database.
func (s *DBStore) LoadAppState() (AppState, error) {
	var state AppState
	bz, err := s.db.Get(appStateKey())
	if err != nil {
		return state, fmt.Errorf("get app state: %w", err)
	}
	if len(bz) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(bz, &state); err != nil {
		return state, fmt.Errorf("unmarshal app state: %w", err)
	}
	return state, nil
}

// Commit flushes c into the database together with state in a single
// synchronous batch. c must be layered directly over s.
func (s *DBStore) Commit(c *Cache, state AppState) error {
	if c.parent != Parent(s) {
		return errors.New("cache is not layered over this store")
	}
	if err := s.apply(c.dirty(), c.next, &state); err != nil {
		return err
	}
	c.reset()
	return nil
}

func (s *DBStore) apply(orders []types.Order, next uint64, state *AppState) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	for _, order := range orders {
		bz, err := json.Marshal(order)
		if err != nil {
			return fmt.Errorf("marshal order %d: %w", order.ID, err)
		}
		if err := batch.Set(orderKey(order.ID), bz); err != nil {
			return err
		}
	}
	if next != 0 {
		if err := batch.Set(sequenceKey(), encodeSequence(next)); err != nil {
			return err
		}
	}
	if state != nil {
		bz, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("marshal app state: %w", err)
		}
		if err := batch.Set(appStateKey(), bz); err != nil {
			return err
		}
	}
	return batch.WriteSync()
}

// Close closes the underlying database.
func (s *DBStore) Close() error {
	return s.db.Close()
}
