package messaging

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeDeliveries_BoundsConcurrency(t *testing.T) {
	const limit = 2
	msgs := make(chan amqp091.Delivery, 6)
	for i := 0; i < cap(msgs); i++ {
		msgs <- amqp091.Delivery{DeliveryTag: uint64(i + 1)}
	}
	close(msgs)

	var running, peak, handled int32
	err := serveDeliveries(context.Background(), msgs, limit, func(d amqp091.Delivery) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		atomic.AddInt32(&handled, 1)
	})

	require.NoError(t, err)
	assert.EqualValues(t, 6, handled)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(limit))
}

func TestServeDeliveries_CancelWhilePoolIsFull(t *testing.T) {
	const limit = 2
	msgs := make(chan amqp091.Delivery, limit+1)
	for i := 0; i < limit+1; i++ {
		msgs <- amqp091.Delivery{DeliveryTag: uint64(i + 1)}
	}

	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	var started int32

	result := make(chan error, 1)
	go func() {
		result <- serveDeliveries(ctx, msgs, limit, func(d amqp091.Delivery) {
			atomic.AddInt32(&started, 1)
			<-release
		})
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&started) == limit }, time.Second, 5*time.Millisecond)
	cancel()

	// in-flight calls must finish before it returns
	select {
	case <-result:
		t.Fatal("returned before in-flight deliveries finished")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)

	select {
	case err := <-result:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("did not stop after cancel")
	}
	assert.EqualValues(t, limit, atomic.LoadInt32(&started))
}
