package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"restaurant-orders/internal/config"
	"restaurant-orders/internal/database/gormstore"
	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/metrics"
	"restaurant-orders/internal/models"
)

// stubAPI returns canned answers and records submitted orders
type stubAPI struct {
	mu        sync.Mutex
	dishes    []models.Dish
	fetchErr  error
	submitErr error
	submitted []*models.Order
}

func (s *stubAPI) FetchMenu(ctx context.Context) ([]models.Dish, error) {
	return s.dishes, s.fetchErr
}

func (s *stubAPI) SubmitOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = append(s.submitted, order)
	return s.submitErr
}

// recordingNotifier keeps published messages
type recordingNotifier struct {
	mu       sync.Mutex
	messages []*models.OrderSubmittedMessage
	err      error
}

func (n *recordingNotifier) PublishNotification(ctx context.Context, msg interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	m, ok := msg.(*models.OrderSubmittedMessage)
	if !ok {
		return errors.New("unexpected message type")
	}
	n.messages = append(n.messages, m)
	return n.err
}

func newTestService(t *testing.T, notifier Notifier) (*Service, *gormstore.Store) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	store, err := gormstore.Open(context.Background(), config.DriverSQLite, dsn, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewService(store, notifier, metrics.New(), logger.Discard()), store
}

func sampleMenu() []models.Dish {
	return []models.Dish{
		{ID: "dish-caesar", Code: "A01", Name: "Caesar salad", Price: decimal.NewFromInt(250)},
		{ID: "dish-borscht", Code: "A02", Name: "Borscht", Price: decimal.NewFromInt(150), IsWeighted: true},
		{ID: "dish-tea", Code: "A08", Name: "Black tea", Price: decimal.NewFromInt(80)},
	}
}

func line(dishID, qty string) models.OrderLine {
	return models.OrderLine{DishID: dishID, Quantity: decimal.RequireFromString(qty)}
}
