package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"restaurant-orders/internal/logger"
)

// MessageHandler defines the interface for processing messages
type MessageHandler func(ctx context.Context, body []byte) error

// RPCHandler processes one request and returns the reply body
type RPCHandler func(ctx context.Context, method string, body []byte) ([]byte, error)

// Consumer handles message consumption from RabbitMQ
type Consumer struct {
	conn        *Connection
	logger      *logger.Logger
	queueName   string
	consumerTag string
	prefetch    int
}

// NewConsumer creates a new message consumer
func NewConsumer(conn *Connection, log *logger.Logger, queueName, consumerTag string, prefetch int) *Consumer {
	if prefetch < 1 {
		prefetch = 1
	}
	return &Consumer{
		conn:        conn,
		logger:      log,
		queueName:   queueName,
		consumerTag: consumerTag,
		prefetch:    prefetch,
	}
}

func (c *Consumer) deliveries() (<-chan amqp091.Delivery, error) {
	if c.conn.IsClosed() {
		if err := c.conn.Reconnect(); err != nil {
			return nil, fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	err := c.conn.Channel().Qos(
		c.prefetch, // prefetch count
		0,          // prefetch size
		false,      // global
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.conn.Channel().Consume(
		c.queueName,   // queue
		c.consumerTag, // consumer
		false,         // auto-ack (we'll ack manually)
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("consumer_started",
		fmt.Sprintf("Started consuming from queue %s", c.queueName),
		"", map[string]interface{}{
			"queue":    c.queueName,
			"consumer": c.consumerTag,
			"prefetch": c.prefetch,
		})
	return msgs, nil
}

// StartConsuming starts consuming messages from the queue
func (c *Consumer) StartConsuming(ctx context.Context, handler MessageHandler) error {
	msgs, err := c.deliveries()
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer_stopped", "Consumer stopped by context", "", nil)
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				c.logger.Error("consumer_channel_closed", "Message channel closed, attempting to reconnect", "", nil, nil)
				if err := c.conn.Reconnect(); err != nil {
					return fmt.Errorf("failed to reconnect after channel closed: %w", err)
				}
				return c.StartConsuming(ctx, handler)
			}

			c.processMessage(ctx, d, handler)
		}
	}
}

// ServeRPC answers requests from the queue with at most prefetch handlers
// running at once. Each reply goes to the ReplyTo of its request.
func (c *Consumer) ServeRPC(ctx context.Context, publisher *Publisher, handler RPCHandler) error {
	msgs, err := c.deliveries()
	if err != nil {
		return err
	}

	err = serveDeliveries(ctx, msgs, c.prefetch, func(d amqp091.Delivery) {
		c.processRequest(ctx, d, publisher, handler)
	})
	if err != nil {
		c.logger.Info("consumer_stopped", "RPC consumer stopped by context", "", nil)
		return err
	}

	c.logger.Error("consumer_channel_closed", "Message channel closed, attempting to reconnect", "", nil, nil)
	if err := c.conn.Reconnect(); err != nil {
		return fmt.Errorf("failed to reconnect after channel closed: %w", err)
	}
	return c.ServeRPC(ctx, publisher, handler)
}

// serveDeliveries runs handle for every delivery with at most limit calls
// in flight. It returns nil once msgs is closed and ctx.Err() once ctx is
// done, after the calls in flight have finished.
func serveDeliveries(ctx context.Context, msgs <-chan amqp091.Delivery, limit int, handle func(amqp091.Delivery)) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	sem := make(chan struct{}, limit)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return nil
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			if err := ctx.Err(); err != nil {
				<-sem
				return err
			}
			wg.Add(1)
			go func(d amqp091.Delivery) {
				defer func() {
					<-sem
					wg.Done()
				}()
				handle(d)
			}(d)
		}
	}
}

func (c *Consumer) processRequest(ctx context.Context, d amqp091.Delivery, publisher *Publisher, handler RPCHandler) {
	startTime := time.Now()
	requestID := d.CorrelationId

	processingCtx, cancel := context.WithTimeout(logger.WithRequestID(ctx, requestID), 30*time.Second)
	defer cancel()

	reply, err := handler(processingCtx, d.Type, d.Body)
	fields := map[string]interface{}{
		"method":      d.Type,
		"duration_ms": time.Since(startTime).Milliseconds(),
	}
	if err != nil {
		c.logger.Error("rpc_request_failed", "Failed to handle RPC request", requestID, err, fields)
	} else {
		c.logger.Debug("rpc_request_handled", "Handled RPC request", requestID, fields)
	}

	if d.ReplyTo != "" {
		if pubErr := publisher.Reply(ctx, d, reply, err); pubErr != nil {
			c.logger.Error("rpc_reply_failed", "Failed to publish RPC reply", requestID, pubErr, fields)
		}
	}

	if ackErr := d.Ack(false); ackErr != nil {
		c.logger.Error("message_ack_failed", "Failed to ack message", requestID, ackErr, nil)
	}
}

// processMessage handles a single message
func (c *Consumer) processMessage(ctx context.Context, delivery amqp091.Delivery, handler MessageHandler) {
	startTime := time.Now()

	c.logger.Debug("message_received",
		"Processing message",
		"", map[string]interface{}{
			"queue":        c.queueName,
			"routing_key":  delivery.RoutingKey,
			"message_size": len(delivery.Body),
			"delivery_tag": delivery.DeliveryTag,
		})

	processingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := handler(processingCtx, delivery.Body)

	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("message_processing_failed",
			"Failed to process message",
			"", err, map[string]interface{}{
				"queue":        c.queueName,
				"routing_key":  delivery.RoutingKey,
				"duration_ms":  duration.Milliseconds(),
				"delivery_tag": delivery.DeliveryTag,
			})

		// Malformed messages would loop forever if requeued
		if nackErr := delivery.Nack(false, false); nackErr != nil {
			c.logger.Error("message_nack_failed", "Failed to nack message", "", nackErr, nil)
		}
		return
	}

	c.logger.Debug("message_processed",
		"Successfully processed message",
		"", map[string]interface{}{
			"queue":        c.queueName,
			"routing_key":  delivery.RoutingKey,
			"duration_ms":  duration.Milliseconds(),
			"delivery_tag": delivery.DeliveryTag,
		})

	if ackErr := delivery.Ack(false); ackErr != nil {
		c.logger.Error("message_ack_failed", "Failed to ack message", "", ackErr, nil)
	}
}

// ParseMessage parses a JSON message into the provided struct
func ParseMessage(body []byte, v interface{}) error {
	return json.Unmarshal(body, v)
}

// Close stops consuming messages
func (c *Consumer) Close() error {
	if c.conn != nil && !c.conn.IsClosed() {
		err := c.conn.Channel().Cancel(c.consumerTag, false)
		if err != nil {
			c.logger.Error("consumer_cancel_failed", "Failed to cancel consumer", "", err, nil)
		}
		return c.conn.Close()
	}
	return nil
}
