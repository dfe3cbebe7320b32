// Package pricing holds the pure price arithmetic shared by the cart store,
// the checkout builder, and display code.
package pricing

import "github.com/festimart/cartstate/pkg/types"

// DiscountedUnitPrice applies a percentage discount to a unit price. A nil
// or non-positive discount leaves the price unchanged. Discounts above 100
// are applied as-is; callers decide how to present a zero or negative
// result.
func DiscountedUnitPrice(price float64, discount *types.Percent) float64 {
	if discount == nil || discount.Float() <= 0 {
		return price
	}
	return price - price*discount.Float()/100
}

// LineOriginal is the undiscounted total for one cart line.
func LineOriginal(line types.CartLineItem) float64 {
	return line.Product.Price * float64(line.Quantity)
}

// LineDiscounted is the discounted total for one cart line.
func LineDiscounted(line types.CartLineItem) float64 {
	return DiscountedUnitPrice(line.Product.Price, line.Product.Discount) * float64(line.Quantity)
}

// Recompute walks the full line collection and returns the three cart
// aggregates from scratch. The store uses it on wholesale replacement;
// tests use it as the oracle for the incremental bookkeeping.
func Recompute(items []types.CartLineItem) (totalQuantity int, totalOriginalPrice, totalPrice float64) {
	for _, line := range items {
		totalQuantity += line.Quantity
		totalOriginalPrice += LineOriginal(line)
		totalPrice += LineDiscounted(line)
	}
	return totalQuantity, totalOriginalPrice, totalPrice
}
