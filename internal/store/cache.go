package store

import (
	"sort"

	"github.com/dreamer-zq/nft-escrow/types"
)

// Cache buffers writes over a Parent. Nothing reaches the parent until Write
// is called; Discard drops every buffered change, including ids allocated
// through NextID. A Cache is not safe for concurrent use.
type Cache struct {
	parent Parent
	orders map[uint64]types.Order
	// next is the next id to allocate, or zero while the counter is
	// untouched.
	next uint64
}

var _ Parent = (*Cache)(nil)

// NewCache returns an empty Cache over parent.
func NewCache(parent Parent) *Cache {
	return &Cache{
		parent: parent,
		orders: make(map[uint64]types.Order),
	}
}

func (c *Cache) Get(id uint64) (types.Order, bool, error) {
	if order, ok := c.orders[id]; ok {
		return order, true, nil
	}
	return c.parent.Get(id)
}

func (c *Cache) Put(order types.Order) error {
	c.orders[order.ID] = order
	return nil
}

func (c *Cache) List() ([]types.Order, error) {
	orders, err := c.parent.List()
	if err != nil {
		return nil, err
	}
	if len(c.orders) == 0 {
		return orders, nil
	}

	seen := make(map[uint64]struct{}, len(c.orders))
	for i, order := range orders {
		if dirty, ok := c.orders[order.ID]; ok {
			orders[i] = dirty
			seen[order.ID] = struct{}{}
		}
	}
	for _, order := range c.dirty() {
		if _, ok := seen[order.ID]; !ok {
			orders = append(orders, order)
		}
	}
	// ids are allocated in insertion order
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (c *Cache) Sequence() (uint64, error) {
	if c.next != 0 {
		return c.next, nil
	}
	return c.parent.Sequence()
}

func (c *Cache) NextID() (uint64, error) {
	id, err := c.Sequence()
	if err != nil {
		return 0, err
	}
	c.next = id + 1
	return id, nil
}

// Write flushes the buffered changes into the parent and empties the cache.
func (c *Cache) Write() error {
	if err := c.parent.apply(c.dirty(), c.next, nil); err != nil {
		return err
	}
	c.reset()
	return nil
}

// Discard drops every buffered change.
func (c *Cache) Discard() {
	c.reset()
}

// IsDirty reports whether the cache holds unflushed changes.
func (c *Cache) IsDirty() bool {
	return len(c.orders) != 0 || c.next != 0
}

func (c *Cache) apply(orders []types.Order, next uint64, _ *AppState) error {
	for _, order := range orders {
		c.orders[order.ID] = order
	}
	if next != 0 {
		c.next = next
	}
	return nil
}

// dirty returns the buffered orders sorted by id.
func (c *Cache) dirty() []types.Order {
	orders := make([]types.Order, 0, len(c.orders))
	for _, order := range c.orders {
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders
}

func (c *Cache) reset() {
	c.orders = make(map[uint64]types.Order)
	c.next = 0
}
