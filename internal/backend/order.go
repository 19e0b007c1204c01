package backend

import (
	"context"
	"net/http"
	"time"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// Payment methods the storefront offers at checkout.
const (
	PaymentCashOnDelivery = "cash_on_delivery"
	PaymentDirectTransfer = "direct_transfer"
	PaymentCOD            = "cod"
	PaymentPayPolo        = "paypolo"
	PaymentKipiPay        = "kipipay"
)

type OrderLine struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
}

// OrderRequest is the POST /orders body. Subtotal, ShippingFee and Total are
// the derived totals over the selected lines.
type OrderRequest struct {
	CustomerName    string      `json:"customerName"`
	DeliveryAddress string      `json:"deliveryAddress"`
	PhoneNumber     string      `json:"phoneNumber"`
	Email           string      `json:"email,omitempty"`
	PaymentMethod   string      `json:"paymentMethod"`
	CartItems       []OrderLine `json:"cartItems"`
	Subtotal        float64     `json:"subtotal"`
	ShippingFee     float64     `json:"shippingFee"`
	Total           float64     `json:"total"`
}

type Order struct {
	ID          string      `json:"_id"`
	Status      OrderStatus `json:"orderStatus"`
	TotalAmount float64     `json:"totalAmount"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	var o Order
	if err := c.do(ctx, "create_order", http.MethodPost, "/orders", req, &o); err != nil {
		return Order{}, err
	}
	if o.Status == "" {
		o.Status = OrderPending
	}
	return o, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (Order, error) {
	var o Order
	if err := c.do(ctx, "get_order", http.MethodGet, "/orders/"+orderID, nil, &o); err != nil {
		return Order{}, err
	}
	return o, nil
}
