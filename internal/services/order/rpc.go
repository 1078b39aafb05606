package order

import (
	"context"
	"fmt"
	"time"

	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/metrics"
	"restaurant-orders/internal/rpcwire"
)

// RPCServer answers GetMenu and SendOrder requests in protobuf wire format
type RPCServer struct {
	api     API
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewRPCServer creates the RPC side of the order service
func NewRPCServer(api API, m *metrics.Metrics, log *logger.Logger) *RPCServer {
	return &RPCServer{api: api, metrics: m, logger: log}
}

// Handle processes one request. Failures of the operation are encoded in
// the response; an error is returned only for an unknown method.
func (s *RPCServer) Handle(ctx context.Context, method string, body []byte) ([]byte, error) {
	start := time.Now()

	switch method {
	case rpcwire.MethodGetMenu:
		defer s.metrics.ObserveRequest("rpc", method, start)
		dishes, err := s.api.FetchMenu(ctx)
		if err != nil {
			return rpcwire.EncodeMenuResponse(rpcwire.MenuResponse{ErrorMessage: PublicMessage(err)}), nil
		}
		return rpcwire.EncodeMenuResponse(rpcwire.MenuResponse{Success: true, Items: dishes}), nil

	case rpcwire.MethodSendOrder:
		defer s.metrics.ObserveRequest("rpc", method, start)
		order, err := rpcwire.DecodeOrder(body)
		if err != nil {
			s.logger.Warn("validation_failed", "Malformed order message", logger.RequestIDFromContext(ctx), map[string]interface{}{
				"error": err.Error(),
			})
			return rpcwire.EncodeOrderResponse(rpcwire.OrderResponse{ErrorMessage: "malformed order: " + err.Error()}), nil
		}
		if err := s.api.SubmitOrder(ctx, order); err != nil {
			return rpcwire.EncodeOrderResponse(rpcwire.OrderResponse{ErrorMessage: PublicMessage(err)}), nil
		}
		return rpcwire.EncodeOrderResponse(rpcwire.OrderResponse{Success: true}), nil

	default:
		return nil, fmt.Errorf("unknown method %q", method)
	}
}
