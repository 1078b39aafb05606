package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/metrics"
	"restaurant-orders/internal/models"
	"restaurant-orders/internal/ratelimit"
)

func newTestRouter(api API, health func(context.Context) bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(api, metrics.New(), logger.Discard())
	return h.SetupRoutes(RouterConfig{
		Endpoint: "/api/restaurant",
		Accounts: gin.Accounts{"admin": "secret"},
		Limiter:  ratelimit.New(100, 100, time.Minute),
		Health:   health,
	})
}

func postEnvelope(t *testing.T, r http.Handler, body string, auth bool) (*httptest.ResponseRecorder, models.EnvelopeResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/restaurant", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.SetBasicAuth("admin", "secret")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp models.EnvelopeResponse
	if w.Code != http.StatusUnauthorized {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestHandleEnvelope_GetMenu(t *testing.T) {
	api := &stubAPI{dishes: sampleMenu()}
	w, resp := postEnvelope(t, newTestRouter(api, nil), `{"RequestType":"Request1"}`, true)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	var dishes []models.Dish
	require.NoError(t, json.Unmarshal(resp.Data, &dishes))
	require.Len(t, dishes, 3)
	assert.Equal(t, "A01", dishes[0].Code)
	assert.True(t, sampleMenu()[0].Price.Equal(dishes[0].Price))
}

func TestHandleEnvelope_SendOrder(t *testing.T) {
	api := &stubAPI{}
	body := `{"RequestType":"Request2","Order":{"Id":"o-1","OrderItems":[{"Id":"dish-tea","Quantity":2},{"Id":"dish-borscht","Quantity":"0.5"}]}}`
	w, resp := postEnvelope(t, newTestRouter(api, nil), body, true)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	require.Len(t, api.submitted, 1)
	assert.Equal(t, "o-1", api.submitted[0].ID)
	require.Len(t, api.submitted[0].Lines, 2)
	assert.Equal(t, "0.5", api.submitted[0].Lines[1].Quantity.String())
}

func TestHandleEnvelope_ApplicationFailureIsSuccessFalse(t *testing.T) {
	api := &stubAPI{submitErr: &models.ValidationError{Field: "lines[0].dish_id", Token: "x", Message: "dish is not in the current menu"}}
	body := `{"RequestType":"Request2","Order":{"Id":"o-1","OrderItems":[{"Id":"x","Quantity":1}]}}`
	w, resp := postEnvelope(t, newTestRouter(api, nil), body, true)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.ErrorMessage, "dish is not in the current menu")
}

func TestHandleEnvelope_StoreFailureHidesDetails(t *testing.T) {
	api := &stubAPI{fetchErr: &models.PersistenceError{Op: "list dishes", Err: errors.New("connection reset")}}
	w, resp := postEnvelope(t, newTestRouter(api, nil), `{"RequestType":"Request1"}`, true)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, resp.Success)
	assert.NotContains(t, resp.ErrorMessage, "connection reset")
}

func TestHandleEnvelope_BadRequests(t *testing.T) {
	r := newTestRouter(&stubAPI{}, nil)

	w, _ := postEnvelope(t, r, `{"RequestType":`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := postEnvelope(t, r, `{"RequestType":"Request9"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
}

func TestHandleEnvelope_RequiresBasicAuth(t *testing.T) {
	w, _ := postEnvelope(t, newTestRouter(&stubAPI{}, nil), `{"RequestType":"Request1"}`, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	r := newTestRouter(&stubAPI{}, func(context.Context) bool { return false })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleEnvelope_MissingRequestType(t *testing.T) {
	w, resp := postEnvelope(t, newTestRouter(&stubAPI{}, nil), `{"Order":{"Id":"o-1"}}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
}
