package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/stacktile/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// statusFrom decodes the StatusData carried by a response.
func statusFrom(resp *Response) (*StatusData, error) {
	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}
	return &status, nil
}

// Toggle flips tiling on the daemon's active workspace and returns the
// resulting state.
func (c *Client) Toggle() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandToggle})
	if err != nil {
		return nil, err
	}
	return statusFrom(resp)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}
	return statusFrom(resp)
}

// SetRatio sets the master ratio to an absolute value.
func (c *Client) SetRatio(ratio float64) (*StatusData, error) {
	payload, err := json.Marshal(SetRatioPayload{Ratio: ratio})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ratio payload: %w", err)
	}
	resp, err := c.sendRequest(&Request{Command: CommandSetRatio, Payload: payload})
	if err != nil {
		return nil, err
	}
	return statusFrom(resp)
}

// AdjustRatio steps the master ratio by one increment.
func (c *Client) AdjustRatio(increase bool) (*StatusData, error) {
	payload, err := json.Marshal(AdjustRatioPayload{Increase: increase})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal adjust payload: %w", err)
	}
	resp, err := c.sendRequest(&Request{Command: CommandAdjustRatio, Payload: payload})
	if err != nil {
		return nil, err
	}
	return statusFrom(resp)
}

// FocusDirection moves focus to the nearest tiled neighbor.
func (c *Client) FocusDirection(direction string) error {
	payload, err := json.Marshal(DirectionPayload{Direction: direction})
	if err != nil {
		return fmt.Errorf("failed to marshal direction payload: %w", err)
	}
	_, err = c.sendRequest(&Request{Command: CommandFocusDir, Payload: payload})
	return err
}

// SwapDirection swaps the focused window with its nearest tiled neighbor.
func (c *Client) SwapDirection(direction string) error {
	payload, err := json.Marshal(DirectionPayload{Direction: direction})
	if err != nil {
		return fmt.Errorf("failed to marshal direction payload: %w", err)
	}
	_, err = c.sendRequest(&Request{Command: CommandSwapDir, Payload: payload})
	return err
}

// Reload asks the daemon to reload its configuration.
func (c *Client) Reload() error {
	_, err := c.sendRequest(&Request{Command: CommandReload})
	return err
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
