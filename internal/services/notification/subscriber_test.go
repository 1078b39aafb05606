package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/messaging"
	"restaurant-orders/internal/models"
)

// replayConsumer feeds fixed bodies to the handler
type replayConsumer struct {
	bodies [][]byte
	errs   []error
}

func (c *replayConsumer) StartConsuming(ctx context.Context, handler messaging.MessageHandler) error {
	for _, b := range c.bodies {
		c.errs = append(c.errs, handler(ctx, b))
	}
	return context.Canceled
}

func encode(t *testing.T, msg *models.OrderSubmittedMessage) []byte {
	t.Helper()
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	return b
}

func TestFormatNotification(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

	assert.Equal(t, "[2026-03-01 12:30:00] Order o-1 was accepted with 2 line(s).",
		FormatNotification(&models.OrderSubmittedMessage{OrderID: "o-1", LineCount: 2, Timestamp: ts}))
	assert.Equal(t, "[2026-03-01 12:30:00] Order o-1 was updated and now has 1 line(s).",
		FormatNotification(&models.OrderSubmittedMessage{OrderID: "o-1", LineCount: 1, Resubmitted: true, Timestamp: ts}))
}

func TestSubscriber_Start(t *testing.T) {
	var out bytes.Buffer
	consumer := &replayConsumer{bodies: [][]byte{
		encode(t, &models.OrderSubmittedMessage{OrderID: "o-1", LineCount: 3, Timestamp: time.Now()}),
		[]byte("{not json"),
		encode(t, &models.OrderSubmittedMessage{LineCount: 1}),
	}}

	s := NewSubscriber(consumer, &out, logger.Discard())
	require.NoError(t, s.Start(context.Background()))

	require.Len(t, consumer.errs, 3)
	assert.NoError(t, consumer.errs[0])
	assert.Error(t, consumer.errs[1])
	assert.Error(t, consumer.errs[2])
	assert.Contains(t, out.String(), "Order o-1 was accepted with 3 line(s).")
}

type failingConsumer struct{}

func (failingConsumer) StartConsuming(ctx context.Context, handler messaging.MessageHandler) error {
	return errors.New("channel closed")
}

func TestSubscriber_StartPropagatesConsumerFailure(t *testing.T) {
	s := NewSubscriber(failingConsumer{}, &bytes.Buffer{}, logger.Discard())
	assert.Error(t, s.Start(context.Background()))
}
