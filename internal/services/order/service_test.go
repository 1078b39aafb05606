package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-orders/internal/models"
)

func TestSubmitOrder_Idempotent(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, _ := newTestService(t, notifier)
	ctx := context.Background()
	require.NoError(t, svc.SyncMenu(ctx, sampleMenu()))

	id := uuid.NewString()
	submit := func() error {
		return svc.SubmitOrder(ctx, &models.Order{ID: id, Lines: []models.OrderLine{
			line("dish-caesar", "2"), line("dish-borscht", "0.4"),
		}})
	}
	require.NoError(t, submit())
	first, err := svc.GetOrder(ctx, id)
	require.NoError(t, err)

	require.NoError(t, submit())
	second, err := svc.GetOrder(ctx, id)
	require.NoError(t, err)

	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	require.Len(t, second.Lines, 2)
	assert.Equal(t, "dish-caesar", second.Lines[0].DishID)
	assert.Equal(t, "dish-borscht", second.Lines[1].DishID)

	require.Len(t, notifier.messages, 2)
	assert.False(t, notifier.messages[0].Resubmitted)
	assert.True(t, notifier.messages[1].Resubmitted)
}

func TestSubmitOrder_ResubmissionWithChange(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	require.NoError(t, svc.SyncMenu(ctx, sampleMenu()))

	id := uuid.NewString()
	require.NoError(t, svc.SubmitOrder(ctx, &models.Order{ID: id, Lines: []models.OrderLine{line("dish-caesar", "1")}}))
	require.NoError(t, svc.SubmitOrder(ctx, &models.Order{ID: id, Lines: []models.OrderLine{line("dish-tea", "3")}}))

	got, err := svc.GetOrder(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "dish-tea", got.Lines[0].DishID)
	assert.True(t, decimal.NewFromInt(240).Equal(got.Total))
}

func TestSubmitOrder_AtomicOnUnknownDish(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, _ := newTestService(t, notifier)
	ctx := context.Background()
	require.NoError(t, svc.SyncMenu(ctx, sampleMenu()))

	id := uuid.NewString()
	err := svc.SubmitOrder(ctx, &models.Order{ID: id, Lines: []models.OrderLine{
		line("dish-caesar", "1"), line("dish-unknown", "1"),
	}})
	require.Error(t, err)

	var ve *models.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "dish-unknown", ve.Token)

	_, err = svc.GetOrder(ctx, id)
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
	assert.Empty(t, notifier.messages)
}

func TestSubmitOrder_PreChecks(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		order *models.Order
	}{
		{"nil order", nil},
		{"empty id", &models.Order{Lines: []models.OrderLine{line("dish-tea", "1")}}},
		{"no lines", &models.Order{ID: "o1"}},
		{"zero quantity", &models.Order{ID: "o1", Lines: []models.OrderLine{line("dish-tea", "0")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.SubmitOrder(ctx, tt.order)
			assert.True(t, models.IsValidation(err), "got %v", err)
		})
	}
}

func TestSubmitOrder_RejectedAfterDishLeavesMenu(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	menu := sampleMenu()
	require.NoError(t, svc.SyncMenu(ctx, menu))

	kept := uuid.NewString()
	require.NoError(t, svc.SubmitOrder(ctx, &models.Order{ID: kept, Lines: []models.OrderLine{line("dish-caesar", "1")}}))

	require.NoError(t, svc.SyncMenu(ctx, menu[1:]))

	err := svc.SubmitOrder(ctx, &models.Order{ID: uuid.NewString(), Lines: []models.OrderLine{line("dish-caesar", "1")}})
	assert.True(t, models.IsValidation(err))

	got, err := svc.GetOrder(ctx, kept)
	require.NoError(t, err)
	assert.Equal(t, "A01", got.Lines[0].Code)
}

func TestSubmitOrder_ConcurrentSameIdentity(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	require.NoError(t, svc.SyncMenu(ctx, sampleMenu()))

	id := uuid.NewString()
	variants := [][]models.OrderLine{
		{line("dish-caesar", "1")},
		{line("dish-tea", "2"), line("dish-borscht", "0.5")},
		{line("dish-borscht", "1.25")},
	}

	var wg sync.WaitGroup
	errs := make(chan error, 12)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(lines []models.OrderLine) {
			defer wg.Done()
			errs <- svc.SubmitOrder(ctx, &models.Order{ID: id, Lines: lines})
		}(variants[i%len(variants)])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := svc.GetOrder(ctx, id)
	require.NoError(t, err)

	matched := false
	for _, v := range variants {
		if len(v) != len(got.Lines) {
			continue
		}
		same := true
		for i := range v {
			if v[i].DishID != got.Lines[i].DishID || !v[i].Quantity.Equal(got.Lines[i].Quantity) {
				same = false
			}
		}
		matched = matched || same
	}
	assert.True(t, matched, "stored lines mix several submissions: %+v", got.Lines)
	assert.Zero(t, svc.locks.size())
}

func TestSubmitOrder_NotificationFailureDoesNotFailOrder(t *testing.T) {
	svc, _ := newTestService(t, &recordingNotifier{err: errors.New("broker down")})
	ctx := context.Background()
	require.NoError(t, svc.SyncMenu(ctx, sampleMenu()))

	err := svc.SubmitOrder(ctx, &models.Order{ID: uuid.NewString(), Lines: []models.OrderLine{line("dish-tea", "1")}})
	assert.NoError(t, err)
}

func TestSyncMenu_RejectsInvalidCatalog(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	require.NoError(t, svc.SyncMenu(ctx, sampleMenu()))

	bad := sampleMenu()
	bad[1].Code = "a01"
	assert.True(t, models.IsValidation(svc.SyncMenu(ctx, bad)))

	dishes, err := svc.FetchMenu(ctx)
	require.NoError(t, err)
	assert.Len(t, dishes, 3)
}

func TestSeedMenu(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	seeded, err := svc.SeedMenu(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)

	dishes, err := svc.FetchMenu(ctx)
	require.NoError(t, err)
	require.Len(t, dishes, 10)
	assert.Equal(t, "A01", dishes[0].Code)

	seeded, err = svc.SeedMenu(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)
}

func TestHealthCheck(t *testing.T) {
	svc, store := newTestService(t, nil)
	assert.True(t, svc.HealthCheck(context.Background()))
	require.NoError(t, store.Close())
	assert.False(t, svc.HealthCheck(context.Background()))
}

func TestPublicMessage(t *testing.T) {
	assert.Contains(t, PublicMessage(&models.ValidationError{Field: "id", Message: "order id is required"}), "order id is required")
	assert.Equal(t, "failed to save order, try again later",
		PublicMessage(fmt.Errorf("wrapped: %w", &models.PersistenceError{Op: "save order", Err: errors.New("disk full")})))
	assert.Equal(t, "request timed out", PublicMessage(context.DeadlineExceeded))
	assert.Equal(t, "internal error", PublicMessage(errors.New("boom")))
}
