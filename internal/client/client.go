// Package client implements the restaurant client over RPC and HTTP.
package client

import (
	"context"
	"fmt"

	"restaurant-orders/internal/config"
	"restaurant-orders/internal/models"
)

// RestaurantClient reads the menu and submits orders. Both implementations
// are interchangeable: the same order gives the same outcome on either.
type RestaurantClient interface {
	FetchDishes(ctx context.Context) ([]models.Dish, error)
	SubmitOrder(ctx context.Context, order *models.Order) (bool, error)
}

// Caller sends one RPC request and returns the reply body
type Caller interface {
	Call(ctx context.Context, method string, body []byte) ([]byte, error)
}

// New selects the client implementation from configuration. caller is
// used only by the rpc transport.
func New(cfg config.ClientConfig, caller Caller) (RestaurantClient, error) {
	switch cfg.Transport {
	case config.TransportHTTP:
		return NewHTTPClient(cfg.Endpoint, cfg.Username, cfg.Password, cfg.Timeout), nil
	case config.TransportRPC:
		if caller == nil {
			return nil, fmt.Errorf("rpc transport requires a caller")
		}
		return NewRPCClient(caller), nil
	default:
		return nil, fmt.Errorf("unknown client transport: %s", cfg.Transport)
	}
}
