package client

import (
	"context"

	"restaurant-orders/internal/models"
	"restaurant-orders/internal/rpcwire"
)

// RPCClient talks to the order service through an RPC caller
type RPCClient struct {
	caller Caller
}

func NewRPCClient(caller Caller) *RPCClient {
	return &RPCClient{caller: caller}
}

func (c *RPCClient) FetchDishes(ctx context.Context) ([]models.Dish, error) {
	body, err := c.caller.Call(ctx, rpcwire.MethodGetMenu, rpcwire.EncodeMenuRequest())
	if err != nil {
		return nil, err
	}

	resp, err := rpcwire.DecodeMenuResponse(body)
	if err != nil {
		return nil, &models.TransportError{Op: rpcwire.MethodGetMenu, Err: err}
	}
	if !resp.Success {
		return nil, &models.ApplicationError{Message: resp.ErrorMessage}
	}
	if resp.Items == nil {
		return []models.Dish{}, nil
	}
	return resp.Items, nil
}

func (c *RPCClient) SubmitOrder(ctx context.Context, order *models.Order) (bool, error) {
	body, err := c.caller.Call(ctx, rpcwire.MethodSendOrder, rpcwire.EncodeOrder(order))
	if err != nil {
		return false, err
	}

	resp, err := rpcwire.DecodeOrderResponse(body)
	if err != nil {
		return false, &models.TransportError{Op: rpcwire.MethodSendOrder, Err: err}
	}
	if !resp.Success {
		return false, &models.ApplicationError{Message: resp.ErrorMessage}
	}
	return true, nil
}
