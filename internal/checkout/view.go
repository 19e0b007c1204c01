package checkout

import (
	"strconv"

	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/totals"
)

// LineView is a cart line as the cart page renders it.
type LineView struct {
	totals.LineItem
	Selected     bool    `json:"selected"`
	LineSubtotal float64 `json:"lineSubtotal"`
	Unavailable  bool    `json:"unavailable"`
	CanIncrement bool    `json:"canIncrement"`
	CanDecrement bool    `json:"canDecrement"`
}

type CartView struct {
	Items                 []LineView            `json:"items"`
	Selected              totals.Selection      `json:"selected"`
	State                 totals.SelectionState `json:"selectionState"`
	Totals                totals.Totals         `json:"totals"`
	FreeShippingThreshold float64               `json:"freeShippingThreshold"`
	FreeShippingRemaining float64               `json:"freeShippingRemaining"`
	ItemCount             int                   `json:"itemCount"`
	SelectedCount         int                   `json:"selectedCount"`
	ItemCountLabel        string                `json:"itemCountLabel"`
	SelectedCountLabel    string                `json:"selectedCountLabel"`
}

func itemsLabel(n int) string {
	if n == 1 {
		return "1 item"
	}
	return strconv.Itoa(n) + " items"
}

func newLineView(it totals.LineItem, selected bool) LineView {
	lv := LineView{LineItem: it, Selected: selected, Unavailable: it.Product == nil}
	if selected {
		lv.LineSubtotal = it.LineTotal()
	}
	if it.Product != nil {
		lv.CanIncrement = it.Quantity < it.Product.Stock
		lv.CanDecrement = it.Quantity > 1
	}
	return lv
}

// buildView derives everything shown on the cart page from items and sel.
// sel is first narrowed to ids that exist in items.
func buildView(items []totals.LineItem, sel totals.Selection, p totals.Policy) CartView {
	sel = sel.Retain(items)
	t := totals.Compute(items, sel, p)

	v := CartView{
		Items:                 make([]LineView, 0, len(items)),
		Selected:              sel,
		State:                 totals.StateOf(items, sel),
		Totals:                t,
		FreeShippingThreshold: p.FreeShippingThreshold,
		FreeShippingRemaining: p.FreeShippingRemaining(t.Subtotal),
		ItemCount:             len(items),
		SelectedCount:         sel.Len(),
	}
	for _, it := range items {
		v.Items = append(v.Items, newLineView(it, sel.Has(it.ID)))
	}
	v.ItemCountLabel = itemsLabel(v.ItemCount)
	v.SelectedCountLabel = itemsLabel(v.SelectedCount)
	return v
}
