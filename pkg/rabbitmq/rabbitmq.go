package rabbitmq

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	amqp "github.com/streadway/amqp"
)

// Topology shared by the publisher and the consumer.
const (
	SalesExchange   = "sales"
	SaleEventsQueue = "sale_events"
	SaleBindingKey  = "sale.*"
)

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	// amqp.Channel is not safe for concurrent publishes.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ and declares the sales exchange, the
// sale_events queue and the binding between them.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Info().Str("exchange", SalesExchange).Str("queue", SaleEventsQueue).Msg("RabbitMQ client connected")

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(
		SalesExchange, // name
		"topic",       // kind
		true,          // durable
		false,         // auto-deleted
		false,         // internal
		false,         // no-wait
		nil,           // arguments
	); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", SalesExchange, err)
	}

	if _, err := ch.QueueDeclare(
		SaleEventsQueue, // name
		true,            // durable
		false,           // delete when unused
		false,           // exclusive
		false,           // no-wait
		nil,             // arguments
	); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", SaleEventsQueue, err)
	}

	if err := ch.QueueBind(SaleEventsQueue, SaleBindingKey, SalesExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", SaleEventsQueue, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Publish sends a persistent JSON message to exchange with routingKey.
func (c *Client) Publish(exchange, routingKey string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	err := c.channel.Publish(
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// ConsumeSaleEvents delivers every message of the sale_events queue to
// handler on a background goroutine. Messages are acked when handler
// returns nil and nacked without requeue otherwise.
func (c *Client) ConsumeSaleEvents(handler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		SaleEventsQueue, // queue
		"",              // consumer tag
		false,           // auto-ack
		false,           // exclusive
		false,           // no-local
		false,           // no-wait
		nil,             // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Info().Str("queue", SaleEventsQueue).Msg("waiting for sale events")

	go func() {
		for msg := range msgs {
			Dispatch(msg, handler)
		}
		log.Info().Str("queue", SaleEventsQueue).Msg("sale event consumer stopped")
	}()

	return nil
}

// Acknowledger is the subset of amqp.Delivery used to settle a message.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Dispatch runs handler on msg and settles it. Failed messages are not
// requeued, so a poison message cannot loop forever.
func Dispatch(msg amqp.Delivery, handler func(msg amqp.Delivery) error) {
	settle(msg, msg.DeliveryTag, handler(msg))
}

func settle(ack Acknowledger, tag uint64, handlerErr error) {
	if handlerErr != nil {
		log.Error().Err(handlerErr).Uint64("delivery_tag", tag).Msg("error processing message")
		if err := ack.Nack(false, false); err != nil {
			log.Error().Err(err).Uint64("delivery_tag", tag).Msg("error nacking message")
		}
		return
	}
	if err := ack.Ack(false); err != nil {
		log.Error().Err(err).Uint64("delivery_tag", tag).Msg("error acking message")
	}
}
