package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountersAndHandler(t *testing.T) {
	m := New()
	m.OrdersSubmitted.WithLabelValues(ResultSuccess).Inc()
	m.OrdersSubmitted.WithLabelValues(ResultRejected).Add(2)
	m.CatalogDishes.Set(10)
	m.ObserveRequest("http", "GetMenu", time.Now())

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	byName := map[string]bool{}
	for _, f := range families {
		byName[f.GetName()] = true
	}
	assert.True(t, byName["restaurant_orders_submitted_total"])
	assert.True(t, byName["restaurant_catalog_dishes"])
	assert.True(t, byName["restaurant_request_duration_seconds"])

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `restaurant_orders_submitted_total{result="rejected"} 2`)
	assert.Contains(t, w.Body.String(), "restaurant_catalog_dishes 10")
}
