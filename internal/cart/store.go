// Package cart holds the in-memory cart state store: the line-item
// collection plus three derived aggregates kept consistent under every
// mutation. The store owns no persistence and performs no I/O; the sync
// layer feeds it backend-confirmed payloads only.
package cart

import (
	"sync"

	"github.com/festimart/cartstate/pkg/pricing"
	"github.com/festimart/cartstate/pkg/types"
)

// Store is the authoritative in-memory cart view. All operations are
// synchronous, atomic, and total: invalid input is ignored, never an error.
type Store struct {
	mu    sync.Mutex
	items []types.CartLineItem
	index map[string]int

	totalQuantity      int
	totalOriginalPrice float64
	totalPrice         float64
}

// Snapshot is a point-in-time copy of the cart. It shares no mutable state
// with the store.
type Snapshot struct {
	Items              []types.CartLineItem
	TotalQuantity      int
	TotalOriginalPrice float64
	TotalPrice         float64
}

// NewStore returns an empty cart store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// ReplaceAll discards the current collection and aggregates and installs
// the given snapshot, recomputing the aggregates from scratch.
func (s *Store) ReplaceAll(items []types.CartLineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make([]types.CartLineItem, 0, len(items))
	s.index = make(map[string]int, len(items))
	for _, line := range items {
		s.items = append(s.items, line.Clone())
		s.index[line.ID] = len(s.items) - 1
	}
	s.totalQuantity, s.totalOriginalPrice, s.totalPrice = pricing.Recompute(s.items)
}

// AddItem appends a backend-confirmed line, or merges its quantity into an
// existing line with the same id. Lines with a non-positive quantity are
// ignored.
func (s *Store) AddItem(item types.CartLineItem) {
	if item.Quantity <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if at, ok := s.index[item.ID]; ok {
		s.items[at].Quantity += item.Quantity
	} else {
		s.items = append(s.items, item.Clone())
		s.index[item.ID] = len(s.items) - 1
	}

	s.totalQuantity += item.Quantity
	s.totalOriginalPrice += pricing.LineOriginal(item)
	s.totalPrice += pricing.LineDiscounted(item)
}

// UpdateQuantity sets the quantity of the identified line and adjusts the
// aggregates by the delta. Unknown ids and non-positive quantities are
// ignored, so a stale update racing a delete degrades to a no-op.
func (s *Store) UpdateQuantity(id string, quantity int) {
	if quantity <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.index[id]
	if !ok {
		return
	}

	line := s.items[at]
	diff := quantity - line.Quantity
	s.items[at].Quantity = quantity

	s.totalQuantity += diff
	s.totalOriginalPrice += line.Product.Price * float64(diff)
	s.totalPrice += pricing.DiscountedUnitPrice(line.Product.Price, line.Product.Discount) * float64(diff)
}

// RemoveItem deletes the identified line and subtracts its full
// contribution from the aggregates. Unknown ids are ignored.
func (s *Store) RemoveItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.index[id]
	if !ok {
		return
	}

	line := s.items[at]
	s.totalQuantity -= line.Quantity
	s.totalOriginalPrice -= pricing.LineOriginal(line)
	s.totalPrice -= pricing.LineDiscounted(line)

	copy(s.items[at:], s.items[at+1:])
	s.items = s.items[:len(s.items)-1]
	delete(s.index, id)
	for i := at; i < len(s.items); i++ {
		s.index[s.items[i].ID] = i
	}

	s.settleEmpty()
}

// Clear empties the collection and zeroes all aggregates.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.index = make(map[string]int)
	s.totalQuantity = 0
	s.totalOriginalPrice = 0
	s.totalPrice = 0
}

// Snapshot returns a copy of the current cart state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]types.CartLineItem, 0, len(s.items))
	for _, line := range s.items {
		items = append(items, line.Clone())
	}
	return Snapshot{
		Items:              items,
		TotalQuantity:      s.totalQuantity,
		TotalOriginalPrice: s.totalOriginalPrice,
		TotalPrice:         s.totalPrice,
	}
}

// Has reports whether a line with the given id is present.
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[id]
	return ok
}

// Len reports the number of distinct lines in the cart.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// settleEmpty snaps the price aggregates to exact zero once the collection
// empties, so incremental float updates cannot leave a residue behind.
// Callers must hold s.mu.
func (s *Store) settleEmpty() {
	if len(s.items) != 0 {
		return
	}
	s.totalQuantity = 0
	s.totalOriginalPrice = 0
	s.totalPrice = 0
}
