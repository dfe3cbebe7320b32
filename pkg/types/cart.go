package types

// ProductSnapshot is the slice of product state a cart line carries for
// display and pricing. It is captured when the backend builds the line and
// is never refreshed by this module.
type ProductSnapshot struct {
	ID          string            `json:"_id" validate:"required"`
	Name        string            `json:"name"`
	Images      []string          `json:"image"`
	CategoryID  string            `json:"category"`
	SubCategory string            `json:"subCategory"`
	Unit        string            `json:"unit"`
	Stock       int               `json:"stock" validate:"gte=0"`
	Price       float64           `json:"price" validate:"gte=0"`
	Discount    *Percent          `json:"discount,omitempty"`
	Description string            `json:"description"`
	Extra       map[string]string `json:"more_details,omitempty"`
}

// CartLineItem is one row of the cart as confirmed by the backend. ID is
// the backend-assigned line identifier, not the product id.
type CartLineItem struct {
	ID       string          `json:"_id" validate:"required"`
	Quantity int             `json:"quantity" validate:"gte=1"`
	Product  ProductSnapshot `json:"productId" validate:"required"`
}

// Clone returns a copy that shares no mutable state with the receiver.
func (l CartLineItem) Clone() CartLineItem {
	out := l
	if l.Product.Images != nil {
		out.Product.Images = append([]string(nil), l.Product.Images...)
	}
	if l.Product.Extra != nil {
		extra := make(map[string]string, len(l.Product.Extra))
		for k, v := range l.Product.Extra {
			extra[k] = v
		}
		out.Product.Extra = extra
	}
	if l.Product.Discount != nil {
		d := *l.Product.Discount
		out.Product.Discount = &d
	}
	return out
}
