package order

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/metrics"
	"restaurant-orders/internal/models"
	"restaurant-orders/internal/ratelimit"
)

// Handler serves the HTTP envelope endpoint
type Handler struct {
	api     API
	metrics *metrics.Metrics
	logger  *logger.Logger
	timeout time.Duration
}

// NewHandler creates a new order handler
func NewHandler(api API, m *metrics.Metrics, log *logger.Logger) *Handler {
	return &Handler{
		api:     api,
		metrics: m,
		logger:  log,
		timeout: 30 * time.Second,
	}
}

// RouterConfig describes the routes built by SetupRoutes
type RouterConfig struct {
	Endpoint string
	// Accounts enables Basic auth on the API routes when not empty
	Accounts gin.Accounts
	Limiter  *ratelimit.MapLimiter
	Health   func(ctx context.Context) bool
}

// SetupRoutes builds the router. extra registers more routes behind the
// same authentication and rate limit as the envelope endpoint.
func (h *Handler) SetupRoutes(cfg RouterConfig, extra ...func(*gin.RouterGroup)) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.withLogging())

	r.GET("/health", h.healthCheck(cfg.Health))
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	api := r.Group("/")
	if len(cfg.Accounts) > 0 {
		api.Use(gin.BasicAuth(cfg.Accounts))
	}
	api.Use(ratelimit.Middleware(cfg.Limiter))

	api.POST(cfg.Endpoint, h.HandleEnvelope)
	for _, register := range extra {
		register(api)
	}
	return r
}

// HandleEnvelope handles POST requests of the form {"RequestType": ..., "Order": ...}.
// Requests that were understood get 200 with Success telling the outcome.
func (h *Handler) HandleEnvelope(c *gin.Context) {
	requestID := c.GetString(requestIDKey)

	var req models.EnvelopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("validation_failed", "Failed to parse request body", requestID, err, nil)
		c.JSON(http.StatusBadRequest, models.EnvelopeResponse{ErrorMessage: "invalid JSON format"})
		return
	}

	ctx, cancel := context.WithTimeout(logger.WithRequestID(c.Request.Context(), requestID), h.timeout)
	defer cancel()

	switch req.RequestType {
	case models.RequestGetMenu:
		defer h.metrics.ObserveRequest("http", "GetMenu", time.Now())
		c.JSON(http.StatusOK, h.getMenu(ctx, requestID))

	case models.RequestSendOrder:
		defer h.metrics.ObserveRequest("http", "SendOrder", time.Now())
		c.JSON(http.StatusOK, h.sendOrder(ctx, req.Order))

	default:
		h.logger.Warn("validation_failed", "Unknown request type", requestID, map[string]interface{}{
			"request_type": req.RequestType,
		})
		c.JSON(http.StatusBadRequest, models.EnvelopeResponse{
			ErrorMessage: fmt.Sprintf("unknown request type %q", req.RequestType),
		})
	}
}

func (h *Handler) getMenu(ctx context.Context, requestID string) models.EnvelopeResponse {
	dishes, err := h.api.FetchMenu(ctx)
	if err != nil {
		return models.EnvelopeResponse{ErrorMessage: PublicMessage(err)}
	}

	data, err := json.Marshal(dishes)
	if err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode dishes", requestID, err, nil)
		return models.EnvelopeResponse{ErrorMessage: "internal error"}
	}
	return models.EnvelopeResponse{Success: true, Data: data}
}

func (h *Handler) sendOrder(ctx context.Context, order *models.Order) models.EnvelopeResponse {
	if err := h.api.SubmitOrder(ctx, order); err != nil {
		return models.EnvelopeResponse{ErrorMessage: PublicMessage(err)}
	}
	return models.EnvelopeResponse{Success: true}
}

func (h *Handler) healthCheck(health func(ctx context.Context) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		healthy := health == nil || health(ctx)
		response := gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   "order-service",
			"healthy":   healthy,
		}
		if !healthy {
			response["status"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		c.JSON(http.StatusOK, response)
	}
}

const requestIDKey = "request_id"

// withLogging assigns a request id and logs each request
func (h *Handler) withLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := logger.GenerateRequestID()
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		h.logger.Debug("request_started",
			fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path),
			requestID,
			map[string]interface{}{
				"method":      c.Request.Method,
				"path":        c.Request.URL.Path,
				"remote_addr": c.ClientIP(),
				"user_agent":  c.Request.UserAgent(),
			})

		c.Next()

		h.logger.Debug("request_completed",
			fmt.Sprintf("%s %s - %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status()),
			requestID,
			map[string]interface{}{
				"method":      c.Request.Method,
				"path":        c.Request.URL.Path,
				"status_code": c.Writer.Status(),
				"duration_ms": time.Since(start).Milliseconds(),
			})
	}
}
