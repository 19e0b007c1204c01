// Package totals derives cart totals and selection state from cart line items.
// Everything in here is a pure function of its input; nothing performs I/O and
// nothing returns an error. Malformed input (missing products, negative or
// non-finite amounts) degrades to zero contributions instead.
package totals

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	// DefaultFreeShippingThreshold is the subtotal at or above which shipping is waived.
	DefaultFreeShippingThreshold = 25000.0
	// DefaultFlatShippingFee is charged when 0 < subtotal < threshold.
	DefaultFlatShippingFee = 500.0
)

// Policy holds the shipping constants. The zero value is not useful, use
// DefaultPolicy or fill both fields.
type Policy struct {
	FreeShippingThreshold float64 `json:"freeShippingThreshold"`
	FlatShippingFee       float64 `json:"flatShippingFee"`
}

func DefaultPolicy() Policy {
	return Policy{
		FreeShippingThreshold: DefaultFreeShippingThreshold,
		FlatShippingFee:       DefaultFlatShippingFee,
	}
}

// Subtotal sums price*quantity over the items whose id is in sel. A line whose
// product does not fit in a float64 contributes 0.
func Subtotal(items []LineItem, sel Selection) float64 {
	sum := decimal.Zero
	for _, it := range items {
		if !sel.Has(it.ID) {
			continue
		}
		if !it.priced() {
			continue
		}
		line := decimal.NewFromFloat(it.Product.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		if !isFinite(line.InexactFloat64()) {
			continue
		}
		sum = sum.Add(line)
	}
	return finiteOrZero(sum.InexactFloat64())
}

// Shipping is a step function with breakpoints at 0 and the free-shipping
// threshold (inclusive).
func (p Policy) Shipping(subtotal float64) float64 {
	if !isFinite(subtotal) || subtotal <= 0 {
		return 0
	}
	if subtotal >= p.FreeShippingThreshold {
		return 0
	}
	return p.FlatShippingFee
}

// FreeShippingRemaining is how much more has to be selected before shipping is
// waived. It is 0 for an empty subtotal and once the threshold is met.
func (p Policy) FreeShippingRemaining(subtotal float64) float64 {
	if !isFinite(subtotal) || !isFinite(p.FreeShippingThreshold) {
		return 0
	}
	if subtotal <= 0 || subtotal >= p.FreeShippingThreshold {
		return 0
	}
	return finiteOrZero(decimal.NewFromFloat(p.FreeShippingThreshold).Sub(decimal.NewFromFloat(subtotal)).InexactFloat64())
}

// Total adds shipping to subtotal. Negative and non-finite inputs are clamped
// to 0, so the result is always a finite, non-negative number.
func Total(subtotal, shipping float64) float64 {
	subtotal = nonNegative(subtotal)
	shipping = nonNegative(shipping)
	return finiteOrZero(decimal.NewFromFloat(subtotal).Add(decimal.NewFromFloat(shipping)).InexactFloat64())
}

// Compute runs subtotal, shipping and total in one go.
func Compute(items []LineItem, sel Selection, p Policy) Totals {
	sub := Subtotal(items, sel)
	ship := p.Shipping(sub)
	return Totals{
		Subtotal:    sub,
		ShippingFee: ship,
		Total:       Total(sub, ship),
	}
}

// ClampQuantity applies delta to current and keeps the result within
// [1, stock]. The lower bound wins when stock is below 1.
func ClampQuantity(current, delta, stock int) int {
	q := current + delta
	if q > stock {
		q = stock
	}
	if q < 1 {
		q = 1
	}
	return q
}

func mulPrice(price float64, quantity int) float64 {
	if !isFinite(price) {
		return 0
	}
	return finiteOrZero(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity))).InexactFloat64())
}

// decimal.NewFromFloat panics on NaN and ±Inf, so every float crossing into
// decimal goes through one of these first.
func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func finiteOrZero(f float64) float64 {
	if !isFinite(f) {
		return 0
	}
	return f
}

func nonNegative(f float64) float64 {
	if !isFinite(f) || f < 0 {
		return 0
	}
	return f
}
