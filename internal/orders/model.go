package orders

import (
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/totals"
)

type Line struct {
	ItemID    string  `json:"itemId"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
}

// PlacedOrder is the local record of an order created on the storefront API
// through the checkout flow, with the totals that were derived for it.
type PlacedOrder struct {
	ID              string        `json:"orderId"`
	UserID          string        `json:"userId"`
	Status          string        `json:"status"`
	CustomerName    string        `json:"customerName"`
	DeliveryAddress string        `json:"deliveryAddress"`
	PhoneNumber     string        `json:"phoneNumber"`
	PaymentMethod   string        `json:"paymentMethod"`
	Lines           []Line        `json:"lines"`
	Totals          totals.Totals `json:"totals"`
	CorrelationID   string        `json:"correlationId,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}
