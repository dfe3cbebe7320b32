package checkout

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/festimart/cartstate/internal/cart"
	pkgerrors "github.com/festimart/cartstate/pkg/errors"
	"github.com/festimart/cartstate/pkg/types"
)

func pct(v float64) *types.Percent {
	p := types.Percent(v)
	return &p
}

func seededSnapshot(t *testing.T) cart.Snapshot {
	t.Helper()

	store := cart.NewStore()
	store.ReplaceAll([]types.CartLineItem{
		{ID: "a", Quantity: 2, Product: types.ProductSnapshot{ID: "p1", Name: "Chair", Unit: "piece", Price: 100, Discount: pct(10)}},
		{ID: "b", Quantity: 1, Product: types.ProductSnapshot{ID: "p2", Name: "Table", Unit: "piece", Price: 50}},
	})
	return store.Snapshot()
}

func TestBuildDraft(t *testing.T) {
	t.Parallel()

	draft, err := BuildDraft(seededSnapshot(t))
	require.NoError(t, err)

	require.NotEmpty(t, draft.ID)
	require.Equal(t, PaymentMethodCOD, draft.PaymentMethod)
	require.Equal(t, 3, draft.TotalQuantity)
	require.Equal(t, 250.0, draft.Subtotal)
	require.Equal(t, 230.0, draft.Total)
	require.Equal(t, 20.0, draft.Discount)

	require.Len(t, draft.Lines, 2)
	require.Equal(t, "a", draft.Lines[0].LineID)
	require.Equal(t, 100.0, draft.Lines[0].UnitPrice)
	require.Equal(t, 90.0, draft.Lines[0].DiscountedUnitPrice)
	require.Equal(t, 180.0, draft.Lines[0].LineTotal)
	require.Equal(t, 50.0, draft.Lines[1].LineTotal)
	require.False(t, draft.CreatedAt.IsZero())
}

func TestBuildDraftRejectsEmptyCart(t *testing.T) {
	t.Parallel()

	_, err := BuildDraft(cart.NewStore().Snapshot())
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestBuildDraftRejectsDriftedAggregates(t *testing.T) {
	t.Parallel()

	snap := seededSnapshot(t)
	snap.TotalPrice += 5

	_, err := BuildDraft(snap)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}
