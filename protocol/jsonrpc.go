// Package protocol defines the structures and constants for the Model Context Protocol (MCP),
// layered on top of JSON-RPC 2.0.
package protocol

import (
	"encoding/json"
	"fmt"
)

// ErrorPayload is the 'error' object within a JSON-RPC error response.
type ErrorPayload struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSONRPCRequest represents a standard JSON-RPC request object.
type JSONRPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// JSONRPCResponse represents a standard JSON-RPC response object.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *ErrorPayload `json:"error,omitempty"`
}

// JSONRPCNotification represents a standard JSON-RPC notification object.
// Notifications MUST NOT carry an 'id' field.
type JSONRPCNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// NewNotification creates a new JSON-RPC notification object.
func NewNotification(method string, params interface{}) *JSONRPCNotification {
	return &JSONRPCNotification{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	}
}

// UnmarshalPayload decodes a request's params (interface{} or json.RawMessage)
// into target. A nil, empty, or "null" payload is treated as "no params" and
// leaves target untouched rather than erroring, since several MCP requests
// (ping, tools/list, ...) carry no body.
func UnmarshalPayload(payload interface{}, target interface{}) error {
	if payload == nil {
		return nil
	}
	var payloadBytes []byte
	if raw, ok := payload.(json.RawMessage); ok {
		payloadBytes = raw
	} else {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to re-marshal payload (type %T): %w", payload, err)
		}
		payloadBytes = b
	}
	trimmed := payloadBytes
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	if err := json.Unmarshal(payloadBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal payload into %T: %w", target, err)
	}
	return nil
}

// NewSuccessResponse creates a new JSON-RPC success response object.
func NewSuccessResponse(id interface{}, result interface{}) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
}

// NewErrorResponse creates a new JSON-RPC error response object.
func NewErrorResponse(id interface{}, code int, message string, data interface{}) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &ErrorPayload{Code: code, Message: message, Data: data},
	}
}
