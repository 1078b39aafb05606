package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
)

// RPCClient sends requests to the RPC queue over one channel and waits for
// replies on the direct reply-to pseudo queue.
type RPCClient struct {
	channel *amqp091.Channel
	queue   string
	logger  *logger.Logger
	pending *pendingCalls
}

// NewRPCClient opens a dedicated channel and starts reading replies
func NewRPCClient(conn *Connection, log *logger.Logger) (*RPCClient, error) {
	ch, err := conn.OpenChannel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	replies, err := ch.Consume(
		directReplyTo, // queue
		"",            // consumer
		true,          // auto-ack (required for direct reply-to)
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to consume replies: %w", err)
	}

	c := &RPCClient{
		channel: ch,
		queue:   conn.RPCQueue(),
		logger:  log,
		pending: newPendingCalls(log),
	}
	go c.pending.dispatch(replies)
	return c, nil
}

// Call publishes a request of the given method and returns the reply body
func (c *RPCClient) Call(ctx context.Context, method string, body []byte) ([]byte, error) {
	correlationID := uuid.NewString()
	reply, err := c.pending.register(correlationID)
	if err != nil {
		return nil, &models.TransportError{Op: method, Err: err}
	}
	defer c.pending.forget(correlationID)

	msg := amqp091.Publishing{
		ContentType:   "application/x-protobuf",
		Type:          method,
		CorrelationId: correlationID,
		ReplyTo:       directReplyTo,
		Body:          body,
		Timestamp:     time.Now(),
	}
	if deadline, ok := ctx.Deadline(); ok {
		if ttl := time.Until(deadline).Milliseconds(); ttl > 0 {
			msg.Expiration = fmt.Sprintf("%d", ttl)
		}
	}

	if err := c.channel.PublishWithContext(ctx, "", c.queue, false, false, msg); err != nil {
		return nil, &models.TransportError{Op: method, Err: err}
	}

	c.logger.Debug("rpc_request_sent", "Sent RPC request", correlationID, map[string]interface{}{
		"method": method,
		"queue":  c.queue,
	})

	return awaitReply(ctx, method, reply)
}

// Close closes the client's channel
func (c *RPCClient) Close() error {
	return c.channel.Close()
}
