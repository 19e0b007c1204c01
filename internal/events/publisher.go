package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/orders"
)

type Publisher struct {
	ch       channel
	producer string
	log      *zap.Logger
}

type PublisherOptions struct {
	Producer string
	Logger   *zap.Logger
}

func NewPublisher(conn *amqp.Connection, opts PublisherOptions) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return newPublisher(ch, opts)
}

func newPublisher(ch channel, opts PublisherOptions) (*Publisher, error) {
	if err := declareEventsExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	producer := opts.Producer
	if producer == "" {
		producer = DefaultProducer
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{ch: ch, producer: producer, log: log}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, meta EventMeta, o orders.PlacedOrder) error {
	ts := time.Now().UTC()
	ev := newOrderPlacedEvent(meta, p.producer, orderPlacedPayload(o, ts), ts)

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderPlaced envelope: %w", err)
	}
	if err := p.publishJSON(ctx, OrderPlacedRoutingKey, body); err != nil {
		return fmt.Errorf("publish OrderPlaced: %w", err)
	}

	p.log.Debug("event published",
		zap.String("event", EventTypeOrderPlaced),
		zap.String("event_id", ev.EventID),
		zap.String("order_id", o.ID),
		zap.String("correlation_id", meta.CorrelationID),
	)
	return nil
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// NoopPublisher drops events; used when PUBLISH_EVENTS=false.
type NoopPublisher struct {
	Logger *zap.Logger
}

func (n NoopPublisher) PublishOrderPlaced(_ context.Context, _ EventMeta, o orders.PlacedOrder) error {
	if n.Logger != nil {
		n.Logger.Debug("event publishing disabled", zap.String("order_id", o.ID))
	}
	return nil
}

func (NoopPublisher) Close() error { return nil }
