package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/orders"
)

const (
	EventTypeOrderPlaced = "OrderPlaced"
	orderPlacedSchema    = "contracts/events/checkout/OrderPlaced.v1.payload.schema.json"
)

type OrderPlacedItem struct {
	ItemID    string  `json:"itemId"`
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
}

type OrderPlacedPayload struct {
	OrderID       string            `json:"orderId"`
	UserID        string            `json:"userId"`
	Status        string            `json:"status"`
	PaymentMethod string            `json:"paymentMethod"`
	Items         []OrderPlacedItem `json:"items"`
	Subtotal      float64           `json:"subtotal"`
	ShippingFee   float64           `json:"shippingFee"`
	Total         float64           `json:"total"`
	Timestamp     time.Time         `json:"timestamp"`
}

type OrderPlacedEvent struct {
	EventEnvelope
	Payload OrderPlacedPayload `json:"payload"`
}

func orderPlacedPayload(o orders.PlacedOrder, ts time.Time) OrderPlacedPayload {
	p := OrderPlacedPayload{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		Items:         make([]OrderPlacedItem, 0, len(o.Lines)),
		Subtotal:      o.Totals.Subtotal,
		ShippingFee:   o.Totals.ShippingFee,
		Total:         o.Totals.Total,
		Timestamp:     ts,
	}
	for _, ln := range o.Lines {
		p.Items = append(p.Items, OrderPlacedItem{
			ItemID:    ln.ItemID,
			ProductID: ln.ProductID,
			Quantity:  ln.Quantity,
			UnitPrice: ln.UnitPrice,
			LineTotal: ln.LineTotal,
		})
	}
	return p
}

// newOrderPlacedEvent builds the v1 envelope. Each order is its own partition
// and emits exactly one OrderPlaced, so the sequence is always 1.
func newOrderPlacedEvent(meta EventMeta, producer string, payload OrderPlacedPayload, occurredAt time.Time) OrderPlacedEvent {
	return OrderPlacedEvent{
		EventEnvelope: EventEnvelope{
			EventName:     EventTypeOrderPlaced,
			EventVersion:  1,
			EventID:       uuid.NewString(),
			CorrelationID: meta.CorrelationID,
			CausationID:   meta.CausationID,
			Producer:      producer,
			PartitionKey:  payload.OrderID,
			Sequence:      1,
			OccurredAt:    occurredAt,
			Schema:        orderPlacedSchema,
		},
		Payload: payload,
	}
}
