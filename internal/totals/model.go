package totals

// Product is the snapshot of a catalog product embedded in a cart line.
type Product struct {
	ID       string  `json:"productId"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	ImageURL string  `json:"imageUrl,omitempty"`
}

type Variant struct {
	Size  string `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
}

// LineItem is one entry in a cart. Product is nil when the referenced product
// was deleted or detached on the backend; every consumer has to check it.
type LineItem struct {
	ID       string   `json:"itemId"`
	Product  *Product `json:"product"`
	Quantity int      `json:"quantity"`
	Variant  *Variant `json:"variant,omitempty"`
}

// LineTotal is price*quantity, or 0 when the product snapshot is missing or
// its price is not a positive finite number.
func (li LineItem) LineTotal() float64 {
	if !li.priced() {
		return 0
	}
	return mulPrice(li.Product.Price, li.Quantity)
}

func (li LineItem) priced() bool {
	return li.Product != nil && li.Quantity > 0 && isFinite(li.Product.Price) && li.Product.Price > 0
}

type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	ShippingFee float64 `json:"shippingFee"`
	Total       float64 `json:"total"`
}
