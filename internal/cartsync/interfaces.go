package cartsync

import (
	"context"

	"github.com/festimart/cartstate/pkg/types"
)

// Backend is the remote cart the store mirrors. Implementations return the
// server-confirmed state of the touched line; the sync service never applies
// anything to the store that did not come back from one of these calls.
//
// Backends must keep at most one line per product and hand back the same
// line id for repeat adds of the same product. The store merges on line id,
// so a backend that violates this produces duplicate product rows.
type Backend interface {
	FetchCart(ctx context.Context) ([]types.CartLineItem, error)
	AddItem(ctx context.Context, productID string, quantity int) (types.CartLineItem, error)
	UpdateItem(ctx context.Context, lineID string, quantity int) (int, error)
	RemoveItem(ctx context.Context, lineID string) error
}
