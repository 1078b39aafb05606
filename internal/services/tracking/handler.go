package tracking

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
)

// Handler handles HTTP requests for order lookups
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new tracking handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// RegisterRoutes adds the lookup routes to g
func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/orders/:id", h.GetOrder)
}

// GetOrder handles GET /orders/:id requests
func (h *Handler) GetOrder(c *gin.Context) {
	requestID := c.GetString("request_id")
	if requestID == "" {
		requestID = logger.GenerateRequestID()
	}
	id := c.Param("id")

	h.logger.Debug("request_received", "Get order request", requestID, map[string]interface{}{
		"order_id": id,
	})

	details, err := h.service.GetOrder(logger.WithRequestID(c.Request.Context(), requestID), id)
	if err != nil {
		switch {
		case models.IsValidation(err):
			h.writeErrorResponse(c, http.StatusBadRequest, err.Error(), requestID)
		case errors.Is(err, models.ErrOrderNotFound):
			h.writeErrorResponse(c, http.StatusNotFound, "Order not found", requestID)
		default:
			h.logger.Error("db_query_failed", "Failed to get order", requestID, err, map[string]interface{}{
				"order_id": id,
			})
			h.writeErrorResponse(c, http.StatusInternalServerError, "Internal server error", requestID)
		}
		return
	}

	c.JSON(http.StatusOK, details)
}

// writeErrorResponse writes an error response in JSON format
func (h *Handler) writeErrorResponse(c *gin.Context, statusCode int, message, requestID string) {
	c.JSON(statusCode, gin.H{
		"error":      message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	})
}
