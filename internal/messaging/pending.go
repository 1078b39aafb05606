package messaging

import (
	"context"
	"errors"
	"sync"

	"github.com/rabbitmq/amqp091-go"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
)

var errReplyChannelClosed = errors.New("reply channel closed")

// pendingCalls routes replies to waiting callers by correlation id
type pendingCalls struct {
	logger *logger.Logger

	mu     sync.Mutex
	calls  map[string]chan amqp091.Delivery
	closed bool
}

func newPendingCalls(log *logger.Logger) *pendingCalls {
	return &pendingCalls{
		logger: log,
		calls:  make(map[string]chan amqp091.Delivery),
	}
}

// register returns the channel that receives the reply for id. The
// channel is closed without a value if the reply stream ends first.
func (p *pendingCalls) register(id string) (<-chan amqp091.Delivery, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, errReplyChannelClosed
	}
	reply := make(chan amqp091.Delivery, 1)
	p.calls[id] = reply
	return reply, nil
}

func (p *pendingCalls) forget(id string) {
	p.mu.Lock()
	delete(p.calls, id)
	p.mu.Unlock()
}

// dispatch delivers replies until the stream is closed, then releases
// every caller still waiting.
func (p *pendingCalls) dispatch(replies <-chan amqp091.Delivery) {
	for d := range replies {
		p.mu.Lock()
		ch, ok := p.calls[d.CorrelationId]
		p.mu.Unlock()
		if !ok {
			p.logger.Warn("rpc_reply_orphaned", "Reply without a waiting caller", d.CorrelationId, nil)
			continue
		}
		select {
		case ch <- d:
		default:
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for id, ch := range p.calls {
		close(ch)
		delete(p.calls, id)
	}
}

// awaitReply maps the outcome of one call onto the client error types
func awaitReply(ctx context.Context, method string, reply <-chan amqp091.Delivery) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, &models.TransportError{Op: method, Err: ctx.Err()}
	case d, ok := <-reply:
		if !ok {
			return nil, &models.TransportError{Op: method, Err: errReplyChannelClosed}
		}
		if d.Type == replyTypeError {
			return nil, &models.ApplicationError{Message: string(d.Body)}
		}
		return d.Body, nil
	}
}
