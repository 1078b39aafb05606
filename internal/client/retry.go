package client

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"restaurant-orders/internal/models"
)

// SubmitWithRetry submits order, retrying transport failures with
// exponential backoff. The order keeps its id, so a retry of a request
// that did reach the server replaces the same order.
func SubmitWithRetry(ctx context.Context, c RestaurantClient, order *models.Order, maxAttempts int) (bool, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	return backoff.RetryWithData(func() (bool, error) {
		ok, err := c.SubmitOrder(ctx, order)
		if err != nil && !models.IsTransport(err) {
			return false, backoff.Permanent(err)
		}
		return ok, err
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxAttempts-1)), ctx))
}
