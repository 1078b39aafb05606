package models

import "time"

// OrderSubmittedMessage is published after an order has been committed
type OrderSubmittedMessage struct {
	OrderID     string    `json:"order_id"`
	LineCount   int       `json:"line_count"`
	Resubmitted bool      `json:"resubmitted"`
	CreatedAt   time.Time `json:"created_at"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewOrderSubmittedMessage builds the notification for a committed order
func NewOrderSubmittedMessage(order *Order, resubmitted bool) *OrderSubmittedMessage {
	return &OrderSubmittedMessage{
		OrderID:     order.ID,
		LineCount:   len(order.Lines),
		Resubmitted: resubmitted,
		CreatedAt:   order.CreatedAt,
		Timestamp:   time.Now().UTC(),
	}
}
