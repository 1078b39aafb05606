package models

import "encoding/json"

// Envelope request types accepted by the HTTP endpoint
const (
	RequestGetMenu   = "Request1"
	RequestSendOrder = "Request2"
)

// EnvelopeRequest is the body of a POST to the HTTP endpoint
type EnvelopeRequest struct {
	RequestType string `json:"RequestType" binding:"required"`
	Order       *Order `json:"Order,omitempty"`
}

// EnvelopeResponse is returned for every request the endpoint understood.
// Data holds the dish list for a menu request and is empty otherwise.
type EnvelopeResponse struct {
	Success      bool            `json:"Success"`
	ErrorMessage string          `json:"ErrorMessage,omitempty"`
	Data         json.RawMessage `json:"Data,omitempty"`
}
