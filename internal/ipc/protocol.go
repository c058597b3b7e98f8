package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/stacktile/internal/engine"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandToggle      CommandType = "TOGGLE"
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandSetRatio    CommandType = "SET_RATIO"
	CommandAdjustRatio CommandType = "ADJUST_RATIO"
	CommandFocusDir    CommandType = "FOCUS_DIR"
	CommandSwapDir     CommandType = "SWAP_DIR"
	CommandReload      CommandType = "RELOAD"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	engine.Status
	UptimeSeconds int64 `json:"uptime_seconds"`
	DaemonRunning bool  `json:"daemon_running"`
}

// SetRatioPayload carries an absolute master ratio for SET_RATIO.
type SetRatioPayload struct {
	Ratio float64 `json:"ratio"`
}

// AdjustRatioPayload carries the step direction for ADJUST_RATIO.
type AdjustRatioPayload struct {
	Increase bool `json:"increase"`
}

// DirectionPayload carries the direction for FOCUS_DIR and SWAP_DIR.
type DirectionPayload struct {
	Direction string `json:"direction"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
