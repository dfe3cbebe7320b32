package cartsync

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/festimart/cartstate/internal/cart"
	pkgerrors "github.com/festimart/cartstate/pkg/errors"
	"github.com/festimart/cartstate/pkg/logger"
	"github.com/festimart/cartstate/pkg/types"
)

type stubBackend struct {
	fetch  func(ctx context.Context) ([]types.CartLineItem, error)
	add    func(ctx context.Context, productID string, quantity int) (types.CartLineItem, error)
	update func(ctx context.Context, lineID string, quantity int) (int, error)
	remove func(ctx context.Context, lineID string) error
}

func (s *stubBackend) FetchCart(ctx context.Context) ([]types.CartLineItem, error) {
	if s.fetch == nil {
		return nil, nil
	}
	return s.fetch(ctx)
}

func (s *stubBackend) AddItem(ctx context.Context, productID string, quantity int) (types.CartLineItem, error) {
	if s.add == nil {
		return types.CartLineItem{}, nil
	}
	return s.add(ctx, productID, quantity)
}

func (s *stubBackend) UpdateItem(ctx context.Context, lineID string, quantity int) (int, error) {
	if s.update == nil {
		return quantity, nil
	}
	return s.update(ctx, lineID, quantity)
}

func (s *stubBackend) RemoveItem(ctx context.Context, lineID string) error {
	if s.remove == nil {
		return nil
	}
	return s.remove(ctx, lineID)
}

func testLine(id string, qty int, price float64) types.CartLineItem {
	return types.CartLineItem{
		ID:       id,
		Quantity: qty,
		Product:  types.ProductSnapshot{ID: "prod-" + id, Name: "product " + id, Price: price, Stock: 100},
	}
}

func newTestService(t *testing.T, backend Backend) (*Service, *cart.Store) {
	t.Helper()

	store := cart.NewStore()
	log := logger.New(logger.Options{ServiceName: "cartsync-test", Output: io.Discard})
	svc, err := NewService(backend, store, log)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func TestRefreshAppliesFetchedCart(t *testing.T) {
	backend := &stubBackend{
		fetch: func(context.Context) ([]types.CartLineItem, error) {
			return []types.CartLineItem{testLine("a", 2, 100), testLine("b", 1, 50)}, nil
		},
	}
	svc, store := newTestService(t, backend)

	require.NoError(t, svc.Refresh(context.Background()))

	snap := store.Snapshot()
	require.Len(t, snap.Items, 2)
	require.Equal(t, 3, snap.TotalQuantity)
	require.Equal(t, 250.0, snap.TotalOriginalPrice)
}

func TestRefreshDropsInvalidLines(t *testing.T) {
	backend := &stubBackend{
		fetch: func(context.Context) ([]types.CartLineItem, error) {
			bad := testLine("", 1, 10) // missing line id
			return []types.CartLineItem{testLine("a", 2, 100), bad}, nil
		},
	}
	svc, store := newTestService(t, backend)

	require.NoError(t, svc.Refresh(context.Background()))
	require.Equal(t, 1, store.Len())
}

func TestAddAppliesConfirmedLine(t *testing.T) {
	backend := &stubBackend{
		add: func(_ context.Context, productID string, quantity int) (types.CartLineItem, error) {
			return types.CartLineItem{
				ID:       "line-1",
				Quantity: quantity,
				Product:  types.ProductSnapshot{ID: productID, Price: 80, Stock: 10},
			}, nil
		},
	}
	svc, store := newTestService(t, backend)

	require.NoError(t, svc.Add(context.Background(), "prod-1", 1))

	snap := store.Snapshot()
	require.Len(t, snap.Items, 1)
	require.Equal(t, "line-1", snap.Items[0].ID)
	require.Equal(t, 80.0, snap.TotalPrice)
}

func TestRepeatAddUsesConfirmedQuantity(t *testing.T) {
	// The backend merges repeat adds of one product into the same line and
	// returns the merged quantity. The store must end at that quantity, not
	// at the sum of both responses.
	total := 0
	backend := &stubBackend{
		add: func(_ context.Context, productID string, quantity int) (types.CartLineItem, error) {
			total += quantity
			return types.CartLineItem{
				ID:       "line-1",
				Quantity: total,
				Product:  types.ProductSnapshot{ID: productID, Price: 10, Stock: 10},
			}, nil
		},
	}
	svc, store := newTestService(t, backend)

	require.NoError(t, svc.Add(context.Background(), "prod-1", 1))
	require.NoError(t, svc.Add(context.Background(), "prod-1", 1))

	snap := store.Snapshot()
	require.Len(t, snap.Items, 1)
	require.Equal(t, 2, snap.Items[0].Quantity)
	require.Equal(t, 2, snap.TotalQuantity)
}

func TestBackendFailureLeavesStoreUntouched(t *testing.T) {
	backend := &stubBackend{
		fetch: func(context.Context) ([]types.CartLineItem, error) {
			return []types.CartLineItem{testLine("a", 2, 100)}, nil
		},
		update: func(context.Context, string, int) (int, error) {
			return 0, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")
		},
	}
	svc, store := newTestService(t, backend)
	require.NoError(t, svc.Refresh(context.Background()))
	before := store.Snapshot()

	err := svc.SetQuantity(context.Background(), "a", 50)
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
	require.Equal(t, before, store.Snapshot())
}

func TestUncodedBackendErrorWrappedAsDependency(t *testing.T) {
	backend := &stubBackend{
		remove: func(context.Context, string) error {
			return context.DeadlineExceeded
		},
	}
	svc, _ := newTestService(t, backend)

	err := svc.Remove(context.Background(), "a")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}

func TestStaleQuantityResponseDiscarded(t *testing.T) {
	backend := &stubBackend{
		fetch: func(context.Context) ([]types.CartLineItem, error) {
			return []types.CartLineItem{testLine("a", 1, 100)}, nil
		},
	}
	svc, store := newTestService(t, backend)
	require.NoError(t, svc.Refresh(context.Background()))

	// While the first update is in flight, a newer one for the same line
	// resolves first. The first response must lose.
	first := true
	backend.update = func(ctx context.Context, lineID string, quantity int) (int, error) {
		if first {
			first = false
			require.NoError(t, svc.SetQuantity(ctx, lineID, 5))
		}
		return quantity, nil
	}

	require.NoError(t, svc.SetQuantity(context.Background(), "a", 3))

	snap := store.Snapshot()
	require.Equal(t, 5, snap.Items[0].Quantity)
	require.Equal(t, 5, snap.TotalQuantity)
}

func TestRefreshInvalidatesInFlightResponses(t *testing.T) {
	backend := &stubBackend{
		fetch: func(context.Context) ([]types.CartLineItem, error) {
			return []types.CartLineItem{testLine("a", 7, 100)}, nil
		},
	}
	svc, store := newTestService(t, backend)
	require.NoError(t, svc.Refresh(context.Background()))

	backend.update = func(ctx context.Context, lineID string, quantity int) (int, error) {
		// A full refresh lands while this update is in flight.
		require.NoError(t, svc.Refresh(ctx))
		return quantity, nil
	}

	require.NoError(t, svc.SetQuantity(context.Background(), "a", 3))

	snap := store.Snapshot()
	require.Equal(t, 7, snap.Items[0].Quantity)
}

func TestRemoveAppliesAfterConfirmation(t *testing.T) {
	backend := &stubBackend{
		fetch: func(context.Context) ([]types.CartLineItem, error) {
			return []types.CartLineItem{testLine("a", 2, 100), testLine("b", 1, 50)}, nil
		},
	}
	svc, store := newTestService(t, backend)
	require.NoError(t, svc.Refresh(context.Background()))

	require.NoError(t, svc.Remove(context.Background(), "a"))

	snap := store.Snapshot()
	require.Len(t, snap.Items, 1)
	require.Equal(t, "b", snap.Items[0].ID)
}

func TestLogoutClearsStore(t *testing.T) {
	backend := &stubBackend{
		fetch: func(context.Context) ([]types.CartLineItem, error) {
			return []types.CartLineItem{testLine("a", 2, 100)}, nil
		},
	}
	svc, store := newTestService(t, backend)
	require.NoError(t, svc.Refresh(context.Background()))

	svc.Logout(context.Background())

	snap := store.Snapshot()
	require.Empty(t, snap.Items)
	require.Zero(t, snap.TotalQuantity)
	require.Zero(t, snap.TotalPrice)
}

func TestInputValidation(t *testing.T) {
	svc, _ := newTestService(t, &stubBackend{})

	require.True(t, pkgerrors.HasCode(svc.Add(context.Background(), "", 1), pkgerrors.CodeValidation))
	require.True(t, pkgerrors.HasCode(svc.Add(context.Background(), "p", 0), pkgerrors.CodeValidation))
	require.True(t, pkgerrors.HasCode(svc.SetQuantity(context.Background(), "", 1), pkgerrors.CodeValidation))
	require.True(t, pkgerrors.HasCode(svc.SetQuantity(context.Background(), "a", -2), pkgerrors.CodeValidation))
	require.True(t, pkgerrors.HasCode(svc.Remove(context.Background(), ""), pkgerrors.CodeValidation))
}

func TestAddRejectsInvalidConfirmedPayload(t *testing.T) {
	backend := &stubBackend{
		add: func(context.Context, string, int) (types.CartLineItem, error) {
			return types.CartLineItem{ID: "", Quantity: 1}, nil
		},
	}
	svc, store := newTestService(t, backend)

	err := svc.Add(context.Background(), "prod-1", 1)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	require.Zero(t, store.Len())
}
