//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/orders"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/totals"
)

func TestPublishOrderPlaced_RabbitMQ(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	rabbitURL := startRabbitMQ(ctx, t)

	var (
		conn *amqp.Connection
		pub  *events.Publisher
	)
	require.Eventually(t, func() bool {
		c, err := events.Dial(rabbitURL)
		if err != nil {
			return false
		}
		p, err := events.NewPublisher(c, events.PublisherOptions{})
		if err != nil {
			_ = c.Close()
			return false
		}
		conn, pub = c, p
		return true
	}, 30*time.Second, 500*time.Millisecond)
	defer conn.Close()
	defer pub.Close()

	consumerConn, err := events.Dial(rabbitURL)
	require.NoError(t, err)
	defer consumerConn.Close()
	ch, err := consumerConn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, events.OrderPlacedRoutingKey, events.EventsExchange, false, nil))
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	placed := orders.PlacedOrder{
		ID:            "ord-1",
		UserID:        "user-1",
		Status:        "pending",
		PaymentMethod: "cash_on_delivery",
		Lines:         []orders.Line{{ItemID: "i1", ProductID: "p1", Quantity: 1, UnitPrice: 3000, LineTotal: 3000}},
		Totals:        totals.Totals{Subtotal: 3000, ShippingFee: 500, Total: 3500},
	}
	require.NoError(t, pub.PublishOrderPlaced(ctx, events.EventMeta{CorrelationID: "cid-1"}, placed))

	select {
	case d := <-deliveries:
		var ev events.OrderPlacedEvent
		require.NoError(t, json.Unmarshal(d.Body, &ev))
		require.NoError(t, ev.Validate(events.EventTypeOrderPlaced, 1))
		require.Equal(t, "ord-1", ev.PartitionKey)
		require.Equal(t, "cid-1", ev.CorrelationID)
		require.Equal(t, 3500.0, ev.Payload.Total)
	case <-ctx.Done():
		t.Fatal("timed out waiting for OrderPlaced")
	}
}
