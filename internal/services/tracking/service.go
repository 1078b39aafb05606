package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
)

// OrderReader loads stored orders
type OrderReader interface {
	GetOrder(ctx context.Context, id string) (*models.OrderDetails, error)
}

// Service provides lookups of submitted orders
type Service struct {
	orders OrderReader
	logger *logger.Logger
}

// NewService creates a new tracking service
func NewService(orders OrderReader, log *logger.Logger) *Service {
	return &Service{
		orders: orders,
		logger: log,
	}
}

// GetOrder returns the stored order with its lines and total
func (s *Service) GetOrder(ctx context.Context, id string) (*models.OrderDetails, error) {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > models.MaxOrderIDLength {
		return nil, &models.ValidationError{Field: "id", Token: id, Message: "invalid order id"}
	}

	details, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	details.Total = details.CalculateTotal()
	return details, nil
}
