package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/metrics"
	"restaurant-orders/internal/models"
	"restaurant-orders/internal/services/order/internal/validation"
)

// Service accepts orders and serves and synchronizes the menu
type Service struct {
	store    Store
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *logger.Logger
	locks    *keyedMutex
}

// NewService creates an order service. notifier may be nil.
func NewService(store Store, notifier Notifier, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		metrics:  m,
		logger:   log,
		locks:    newKeyedMutex(),
	}
}

// FetchMenu returns the current catalog
func (s *Service) FetchMenu(ctx context.Context) ([]models.Dish, error) {
	dishes, err := s.store.ListDishes(ctx)
	if err != nil {
		s.logger.Error("db_query_failed", "Failed to list dishes", logger.RequestIDFromContext(ctx), err, nil)
		return nil, &models.PersistenceError{Op: "list dishes", Err: err}
	}
	return dishes, nil
}

// SubmitOrder stores the order, replacing any lines stored earlier under the
// same id. Either the whole order is committed or nothing changes.
func (s *Service) SubmitOrder(ctx context.Context, order *models.Order) error {
	requestID := logger.RequestIDFromContext(ctx)

	if err := validation.ValidateOrder(order); err != nil {
		s.metrics.OrdersSubmitted.WithLabelValues(metrics.ResultRejected).Inc()
		s.logger.Warn("validation_failed", err.Error(), requestID, nil)
		return err
	}

	unlock := s.locks.Lock(order.ID)
	created, err := s.store.SaveOrder(ctx, order)
	unlock()

	fields := map[string]interface{}{
		"order_id": order.ID,
		"lines":    len(order.Lines),
	}
	if err != nil {
		if models.IsValidation(err) {
			s.metrics.OrdersSubmitted.WithLabelValues(metrics.ResultRejected).Inc()
			s.logger.Warn("order_rejected", err.Error(), requestID, fields)
			return err
		}
		s.metrics.OrdersSubmitted.WithLabelValues(metrics.ResultError).Inc()
		s.logger.Error("order_save_failed", "Failed to save order", requestID, err, fields)
		return &models.PersistenceError{Op: "save order", Err: err}
	}

	s.metrics.OrdersSubmitted.WithLabelValues(metrics.ResultSuccess).Inc()
	fields["resubmitted"] = !created
	s.logger.Info("order_submitted", "Order stored", requestID, fields)

	if s.notifier != nil {
		if err := s.notifier.PublishNotification(ctx, models.NewOrderSubmittedMessage(order, !created)); err != nil {
			s.logger.Error("notification_failed", "Failed to publish order notification", requestID, err, fields)
		}
	}
	return nil
}

// SyncMenu replaces the whole catalog with dishes
func (s *Service) SyncMenu(ctx context.Context, dishes []models.Dish) error {
	requestID := logger.RequestIDFromContext(ctx)

	if err := models.ValidateCatalog(dishes); err != nil {
		s.metrics.MenuSyncs.WithLabelValues(metrics.ResultRejected).Inc()
		s.logger.Warn("validation_failed", err.Error(), requestID, nil)
		return err
	}

	if err := s.store.ReplaceDishes(ctx, dishes); err != nil {
		s.metrics.MenuSyncs.WithLabelValues(metrics.ResultError).Inc()
		s.logger.Error("menu_sync_failed", "Failed to replace dishes", requestID, err, nil)
		return &models.PersistenceError{Op: "replace dishes", Err: err}
	}

	s.metrics.MenuSyncs.WithLabelValues(metrics.ResultSuccess).Inc()
	s.metrics.CatalogDishes.Set(float64(len(dishes)))
	s.logger.Info("menu_synced", fmt.Sprintf("Menu replaced with %d dishes", len(dishes)), requestID, nil)
	return nil
}

// SeedMenu loads the sample menu when the catalog is empty
func (s *Service) SeedMenu(ctx context.Context) (bool, error) {
	dishes, err := s.FetchMenu(ctx)
	if err != nil {
		return false, err
	}
	if len(dishes) > 0 {
		s.metrics.CatalogDishes.Set(float64(len(dishes)))
		return false, nil
	}
	if err := s.SyncMenu(ctx, models.SampleDishes(uuid.NewString)); err != nil {
		return false, err
	}
	return true, nil
}

// GetOrder returns a stored order
func (s *Service) GetOrder(ctx context.Context, id string) (*models.OrderDetails, error) {
	details, err := s.store.GetOrder(ctx, id)
	if errors.Is(err, models.ErrOrderNotFound) {
		return nil, err
	}
	if err != nil {
		s.logger.Error("db_query_failed", "Failed to query order", logger.RequestIDFromContext(ctx), err, map[string]interface{}{
			"order_id": id,
		})
		return nil, &models.PersistenceError{Op: "get order", Err: err}
	}
	return details, nil
}

// HealthCheck checks the health of dependencies
func (s *Service) HealthCheck(ctx context.Context) bool {
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("health_check_failed", "Database ping failed", "", err, nil)
		return false
	}
	return true
}

// PublicMessage turns an error into the message sent back to clients.
// Store failures are not described beyond their operation.
func PublicMessage(err error) string {
	var (
		ve *models.ValidationError
		ae *models.ApplicationError
		pe *models.PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &ae):
		return ae.Error()
	case errors.As(err, &pe):
		return fmt.Sprintf("failed to %s, try again later", pe.Op)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "request timed out"
	default:
		return "internal error"
	}
}
