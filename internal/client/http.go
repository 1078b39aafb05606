package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"restaurant-orders/internal/models"
)

// maxResponseSize caps the body read from the server
const maxResponseSize = 4 << 20

// HTTPClient posts envelopes to the order service endpoint with Basic auth
type HTTPClient struct {
	endpoint string
	username string
	password string
	http     *http.Client
}

func NewHTTPClient(endpoint, username, password string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		username: username,
		password: password,
		http:     &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) FetchDishes(ctx context.Context) ([]models.Dish, error) {
	resp, err := c.post(ctx, "GetMenu", models.EnvelopeRequest{RequestType: models.RequestGetMenu})
	if err != nil {
		return nil, err
	}

	var dishes []models.Dish
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &dishes); err != nil {
			return nil, &models.TransportError{Op: "GetMenu", Err: fmt.Errorf("failed to decode dishes: %w", err)}
		}
	}
	if dishes == nil {
		return []models.Dish{}, nil
	}
	return dishes, nil
}

func (c *HTTPClient) SubmitOrder(ctx context.Context, order *models.Order) (bool, error) {
	if _, err := c.post(ctx, "SendOrder", models.EnvelopeRequest{RequestType: models.RequestSendOrder, Order: order}); err != nil {
		return false, err
	}
	return true, nil
}

// post sends one envelope and returns a successful response
func (c *HTTPClient) post(ctx context.Context, op string, envelope models.EnvelopeRequest) (*models.EnvelopeResponse, error) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.username, c.password)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, &models.TransportError{Op: op, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, &models.TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &models.TransportError{
			Op:         op,
			StatusCode: httpResp.StatusCode,
			Err:        fmt.Errorf("%s", bytes.TrimSpace(body)),
		}
	}

	var resp models.EnvelopeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &models.TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if !resp.Success {
		return nil, &models.ApplicationError{Message: resp.ErrorMessage}
	}
	return &resp, nil
}
