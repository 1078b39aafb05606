package notification

import (
	"context"
	"errors"
	"fmt"
	"io"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/messaging"
	"restaurant-orders/internal/models"
)

// Consumer delivers message bodies to a handler until ctx is done
type Consumer interface {
	StartConsuming(ctx context.Context, handler messaging.MessageHandler) error
}

// Subscriber prints order notifications
type Subscriber struct {
	consumer Consumer
	out      io.Writer
	logger   *logger.Logger
}

// NewSubscriber creates a new notification subscriber writing to out
func NewSubscriber(consumer Consumer, out io.Writer, log *logger.Logger) *Subscriber {
	return &Subscriber{
		consumer: consumer,
		out:      out,
		logger:   log,
	}
}

// Start consumes notifications until ctx is cancelled
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	err := s.consumer.StartConsuming(ctx, s.HandleNotification)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("consumer_failed", "Notification consumer failed", requestID, err, nil)
		return err
	}

	s.logger.Info("graceful_shutdown", "Notification subscriber stopped", requestID, nil)
	return nil
}

// HandleNotification processes one order notification
func (s *Subscriber) HandleNotification(ctx context.Context, body []byte) error {
	requestID := logger.RequestIDFromContext(ctx)

	var msg models.OrderSubmittedMessage
	if err := messaging.ParseMessage(body, &msg); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse notification message", requestID, err, nil)
		return err
	}
	if msg.OrderID == "" {
		return fmt.Errorf("notification without order id")
	}

	if _, err := fmt.Fprintln(s.out, FormatNotification(&msg)); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}

	s.logger.Info("notification_displayed", "Notification displayed to user", requestID, map[string]interface{}{
		"order_id":    msg.OrderID,
		"line_count":  msg.LineCount,
		"resubmitted": msg.Resubmitted,
	})
	return nil
}

// FormatNotification creates a human-readable notification message
func FormatNotification(msg *models.OrderSubmittedMessage) string {
	timestamp := msg.Timestamp.Format("2006-01-02 15:04:05")

	if msg.Resubmitted {
		return fmt.Sprintf("[%s] Order %s was updated and now has %d line(s).",
			timestamp, msg.OrderID, msg.LineCount)
	}
	return fmt.Sprintf("[%s] Order %s was accepted with %d line(s).",
		timestamp, msg.OrderID, msg.LineCount)
}
