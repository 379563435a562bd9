package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"food-storefront/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	RoutingOrderCreated       = "order.created"
	RoutingOrderStatusChanged = "order.status_changed"
)

type OrderCreated struct {
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	PaymentMethod string    `json:"payment_method"`
	TotalAmount   float64   `json:"total_amount"`
	ItemCount     int       `json:"item_count"`
	OrderDate     time.Time `json:"order_date"`
}

type OrderStatusChanged struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"`
	ChangedAt   time.Time `json:"changed_at"`
}

func NewOrderCreated(o *models.Order) OrderCreated {
	n := 0
	for _, li := range o.Items {
		n += li.Quantity
	}
	return OrderCreated{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.Customer.Name,
		CustomerPhone: o.Customer.Phone,
		PaymentMethod: o.PaymentMethod,
		TotalAmount:   o.TotalAmount,
		ItemCount:     n,
		OrderDate:     o.OrderDate,
	}
}

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends order lifecycle events to a topic exchange.
type Publisher struct {
	ch       channel
	exchange string
	log      zerolog.Logger
	now      func() time.Time
}

func NewPublisher(ch channel, exchange string, log zerolog.Logger) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, log: log, now: time.Now}
}

// Connection owns the AMQP connection and channel behind a Publisher.
type Connection struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
}

// Dial connects and declares the durable topic exchange.
func Dial(url, exchange string) (*Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Connection{Conn: conn, Channel: ch}, nil
}

func (c *Connection) Close() {
	if c.Channel != nil {
		c.Channel.Close()
	}
	if c.Conn != nil {
		c.Conn.Close()
	}
}

func (p *Publisher) publish(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.ch.PublishWithContext(ctx,
		p.exchange, // exchange
		key,        // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Timestamp:    p.now(),
			Body:         body,
		})
}

func (p *Publisher) OrderCreated(ctx context.Context, o *models.Order) {
	if err := p.publish(ctx, RoutingOrderCreated, NewOrderCreated(o)); err != nil {
		p.log.Error().Err(err).Str("order_id", o.ID).Msg("publish order.created")
	}
}

func (p *Publisher) OrderStatusChanged(ctx context.Context, o *models.Order, from string) {
	ev := OrderStatusChanged{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		OldStatus:   from,
		NewStatus:   o.Status,
		ChangedAt:   p.now(),
	}
	if err := p.publish(ctx, RoutingOrderStatusChanged, ev); err != nil {
		p.log.Error().Err(err).Str("order_id", o.ID).Msg("publish order.status_changed")
	}
}
