package cartsync

import (
	"context"
	"sync"

	"github.com/google/uuid"

	pkgerrors "github.com/festimart/cartstate/pkg/errors"
	"github.com/festimart/cartstate/pkg/types"
)

// MemoryBackend is an in-process Backend for local development and tests.
// It upholds the contract the sync layer relies on: one line per product,
// and the same line id for every repeat add of that product.
type MemoryBackend struct {
	mu        sync.Mutex
	catalog   map[string]types.ProductSnapshot
	lines     map[string]*memLine
	byProduct map[string]string
	order     []string
}

type memLine struct {
	id        string
	productID string
	quantity  int
}

// NewMemoryBackend seeds a backend with the given product catalog.
func NewMemoryBackend(products []types.ProductSnapshot) (*MemoryBackend, error) {
	catalog := make(map[string]types.ProductSnapshot, len(products))
	for _, p := range products {
		if p.ID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog product id is required")
		}
		if _, exists := catalog[p.ID]; exists {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate catalog product id "+p.ID)
		}
		if p.Price < 0 || p.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog product "+p.ID+" has negative price or stock")
		}
		catalog[p.ID] = p
	}
	return &MemoryBackend{
		catalog:   catalog,
		lines:     make(map[string]*memLine),
		byProduct: make(map[string]string),
	}, nil
}

func (b *MemoryBackend) FetchCart(_ context.Context) ([]types.CartLineItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]types.CartLineItem, 0, len(b.order))
	for _, id := range b.order {
		line := b.lines[id]
		out = append(out, b.toItem(line))
	}
	return out, nil
}

func (b *MemoryBackend) AddItem(_ context.Context, productID string, quantity int) (types.CartLineItem, error) {
	if quantity <= 0 {
		return types.CartLineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	product, ok := b.catalog[productID]
	if !ok {
		return types.CartLineItem{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	if lineID, exists := b.byProduct[productID]; exists {
		line := b.lines[lineID]
		if line.quantity+quantity > product.Stock {
			return types.CartLineItem{}, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")
		}
		line.quantity += quantity
		return b.toItem(line), nil
	}

	if quantity > product.Stock {
		return types.CartLineItem{}, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")
	}

	line := &memLine{id: uuid.NewString(), productID: productID, quantity: quantity}
	b.lines[line.id] = line
	b.byProduct[productID] = line.id
	b.order = append(b.order, line.id)
	return b.toItem(line), nil
}

func (b *MemoryBackend) UpdateItem(_ context.Context, lineID string, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	line, ok := b.lines[lineID]
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	if quantity > b.catalog[line.productID].Stock {
		return 0, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")
	}

	line.quantity = quantity
	return line.quantity, nil
}

func (b *MemoryBackend) RemoveItem(_ context.Context, lineID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	line, ok := b.lines[lineID]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}

	delete(b.lines, lineID)
	delete(b.byProduct, line.productID)
	for i, id := range b.order {
		if id == lineID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

// toItem builds the wire shape for a line. Callers must hold b.mu.
func (b *MemoryBackend) toItem(line *memLine) types.CartLineItem {
	product := b.catalog[line.productID]
	return types.CartLineItem{
		ID:       line.id,
		Quantity: line.quantity,
		Product:  product,
	}.Clone()
}
