// Package checkout turns a cart snapshot into a cash-on-delivery order
// draft. The draft is a frozen, self-contained pricing of the cart at one
// instant; placing it with the backend is someone else's job.
package checkout

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/festimart/cartstate/internal/cart"
	pkgerrors "github.com/festimart/cartstate/pkg/errors"
	"github.com/festimart/cartstate/pkg/pricing"
)

const PaymentMethodCOD = "cash_on_delivery"

// priceEpsilon absorbs float accumulation when cross-checking the
// snapshot's aggregates against a fresh recomputation.
const priceEpsilon = 1e-6

// OrderLine freezes one cart line at draft time.
type OrderLine struct {
	LineID              string
	ProductID           string
	Name                string
	Unit                string
	Quantity            int
	UnitPrice           float64
	DiscountedUnitPrice float64
	LineTotal           float64
}

// OrderDraft is a priced, ready-to-place cash-on-delivery order.
type OrderDraft struct {
	ID            string
	Lines         []OrderLine
	TotalQuantity int
	Subtotal      float64
	Discount      float64
	Total         float64
	PaymentMethod string
	CreatedAt     time.Time
}

// BuildDraft prices the snapshot into an order draft. An empty cart is a
// validation error; aggregates that no longer match the line items mean the
// snapshot was tampered with or the store drifted, and surface as a state
// conflict.
func BuildDraft(snap cart.Snapshot) (*OrderDraft, error) {
	if len(snap.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	qty, subtotal, total := pricing.Recompute(snap.Items)
	if qty != snap.TotalQuantity ||
		math.Abs(subtotal-snap.TotalOriginalPrice) > priceEpsilon ||
		math.Abs(total-snap.TotalPrice) > priceEpsilon {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart totals do not match line items")
	}

	lines := make([]OrderLine, 0, len(snap.Items))
	for _, item := range snap.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line quantity must be positive")
		}
		unit := item.Product.Price
		discounted := pricing.DiscountedUnitPrice(unit, item.Product.Discount)
		lines = append(lines, OrderLine{
			LineID:              item.ID,
			ProductID:           item.Product.ID,
			Name:                item.Product.Name,
			Unit:                item.Product.Unit,
			Quantity:            item.Quantity,
			UnitPrice:           unit,
			DiscountedUnitPrice: discounted,
			LineTotal:           discounted * float64(item.Quantity),
		})
	}

	return &OrderDraft{
		ID:            uuid.NewString(),
		Lines:         lines,
		TotalQuantity: qty,
		Subtotal:      subtotal,
		Discount:      subtotal - total,
		Total:         total,
		PaymentMethod: PaymentMethodCOD,
		CreatedAt:     time.Now().UTC(),
	}, nil
}
