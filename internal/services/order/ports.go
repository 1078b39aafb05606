package order

import (
	"context"

	"restaurant-orders/internal/models"
)

// Store persists the catalog and orders
type Store interface {
	ListDishes(ctx context.Context) ([]models.Dish, error)
	ReplaceDishes(ctx context.Context, dishes []models.Dish) error
	SaveOrder(ctx context.Context, order *models.Order) (created bool, err error)
	GetOrder(ctx context.Context, id string) (*models.OrderDetails, error)
	Ping(ctx context.Context) error
}

// Notifier publishes events about committed orders
type Notifier interface {
	PublishNotification(ctx context.Context, msg interface{}) error
}

// API is what the transports expose to clients
type API interface {
	FetchMenu(ctx context.Context) ([]models.Dish, error)
	SubmitOrder(ctx context.Context, order *models.Order) error
}
