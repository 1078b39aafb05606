package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
)

type fakeReader struct {
	orders map[string]*models.OrderDetails
	err    error
}

func (f *fakeReader) GetOrder(ctx context.Context, id string) (*models.OrderDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	return d, nil
}

func newRouter(reader OrderReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(NewService(reader, logger.Discard()), logger.Discard())
	h.RegisterRoutes(r.Group("/"))
	return r
}

func storedOrder() *models.OrderDetails {
	return &models.OrderDetails{
		ID:        "o-1",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Lines: []models.OrderLineDetail{
			{LineNo: 1, DishID: "dish-tea", Code: "A08", Name: "Black tea", Price: decimal.NewFromInt(80), Quantity: decimal.NewFromInt(2)},
			{LineNo: 2, DishID: "dish-borscht", Code: "A02", Name: "Borscht", Price: decimal.NewFromInt(150), IsWeighted: true, Quantity: decimal.RequireFromString("0.5")},
		},
	}
}

func TestService_GetOrderComputesTotal(t *testing.T) {
	s := NewService(&fakeReader{orders: map[string]*models.OrderDetails{"o-1": storedOrder()}}, logger.Discard())

	details, err := s.GetOrder(context.Background(), " o-1 ")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(235).Equal(details.Total))
}

func TestService_GetOrderRejectsBadID(t *testing.T) {
	s := NewService(&fakeReader{}, logger.Discard())

	_, err := s.GetOrder(context.Background(), "")
	assert.True(t, models.IsValidation(err))

	_, err = s.GetOrder(context.Background(), strings.Repeat("x", models.MaxOrderIDLength+1))
	assert.True(t, models.IsValidation(err))
}

func TestHandler_GetOrder(t *testing.T) {
	r := newRouter(&fakeReader{orders: map[string]*models.OrderDetails{"o-1": storedOrder()}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/o-1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got models.OrderDetails
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "o-1", got.ID)
	assert.Len(t, got.Lines, 2)
	assert.True(t, decimal.NewFromInt(235).Equal(got.Total))
}

func TestHandler_GetOrderErrors(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(&fakeReader{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	newRouter(&fakeReader{err: errors.New("connection refused")}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/o-1", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
