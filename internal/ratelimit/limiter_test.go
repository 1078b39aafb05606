package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMapLimiter_PerKeyBuckets(t *testing.T) {
	l := New(1, 2, time.Minute)
	now := time.Now()

	assert.True(t, l.Allow("alice", now))
	assert.True(t, l.Allow("alice", now))
	assert.False(t, l.Allow("alice", now))
	assert.True(t, l.Allow("bob", now))

	assert.True(t, l.Allow("alice", now.Add(time.Second)))
}

func TestMapLimiter_NilAllowsEverything(t *testing.T) {
	l := New(0, 0, 0)
	assert.Nil(t, l)
	for i := 0; i < 10; i++ {
		assert.True(t, l.Allow("alice", time.Now()))
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.BasicAuth(gin.Accounts{"admin": "secret"}), Middleware(New(0.001, 1, time.Minute)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("admin", "secret")
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}
