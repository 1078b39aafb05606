package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"restaurant-orders/internal/logger"
)

// Reply message types
const (
	replyTypeResult = "result"
	replyTypeError  = "error"
)

// Publisher handles message publishing to RabbitMQ
type Publisher struct {
	conn   *Connection
	logger *logger.Logger
}

// NewPublisher creates a new message publisher
func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: log,
	}
}

// PublishNotification publishes an event to the notifications fanout exchange
func (p *Publisher) PublishNotification(ctx context.Context, notificationMsg interface{}) error {
	body, err := json.Marshal(notificationMsg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return p.publish(ctx, NotificationsExchange, "", amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	})
}

// Reply answers an RPC request. A handler error is sent as an error reply
// so the caller does not wait for its timeout.
func (p *Publisher) Reply(ctx context.Context, request amqp091.Delivery, body []byte, handlerErr error) error {
	msg := amqp091.Publishing{
		ContentType:   "application/x-protobuf",
		CorrelationId: request.CorrelationId,
		Type:          replyTypeResult,
		Body:          body,
		Timestamp:     time.Now(),
	}
	if handlerErr != nil {
		msg.ContentType = "text/plain"
		msg.Type = replyTypeError
		msg.Body = []byte(handlerErr.Error())
	}

	return p.publish(ctx, "", request.ReplyTo, msg)
}

func (p *Publisher) publish(ctx context.Context, exchange, routingKey string, publishing amqp091.Publishing) error {
	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := p.conn.Channel().PublishWithContext(
		ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		publishing,
	)
	if err != nil {
		p.logger.Error("message_publish_failed",
			fmt.Sprintf("Failed to publish message to exchange %q", exchange),
			publishing.CorrelationId, err, map[string]interface{}{
				"exchange":    exchange,
				"routing_key": routingKey,
			})
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("message_published",
		fmt.Sprintf("Published message to exchange %q", exchange),
		publishing.CorrelationId, map[string]interface{}{
			"exchange":     exchange,
			"routing_key":  routingKey,
			"message_size": len(publishing.Body),
		})

	return nil
}

// Close closes the publisher
func (p *Publisher) Close() error {
	return p.conn.Close()
}
