// Package mcp exposes the tiling daemon to MCP clients. Every tool is a
// thin proxy over the daemon's IPC socket so agents and humans share one
// source of truth for tiling state.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/stacktile/internal/ipc"
)

const (
	ServerName    = "stacktile"
	ServerVersion = "0.1.0"
)

// Server is the MCP server for tiling control.
type Server struct {
	mcpServer *mcpsdk.Server
	client    *ipc.Client
}

// NewServer creates an MCP server that proxies to the tiling daemon.
func NewServer() *Server {
	s := &Server{
		client: ipc.NewClient(),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_tiling",
		Description: "Toggle master-stack tiling on the current workspace. Enabling captures every window's floating geometry and tiles them; disabling restores the saved geometry.",
	}, s.handleToggle)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "tiling_status",
		Description: "Report the tiling state of the current workspace: enabled flag, master ratio, tiled and overflow window counts.",
	}, s.handleStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_master_ratio",
		Description: "Set the master area width as a fraction of the work area. Clamped to [0.2, 0.8] and persisted to the config file.",
	}, s.handleSetRatio)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "adjust_master_ratio",
		Description: "Step the master area width by 0.05, growing or shrinking. Clamped to [0.2, 0.8] and persisted to the config file.",
	}, s.handleAdjustRatio)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "focus_direction",
		Description: "Move keyboard focus to the nearest tiled window in a direction (left, right, up, down).",
	}, s.handleFocusDirection)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "swap_direction",
		Description: "Swap the focused tiled window with its nearest neighbor in a direction (left, right, up, down).",
	}, s.handleSwapDirection)
}

func statusOutput(data *ipc.StatusData) StatusOutput {
	return StatusOutput{
		Enabled:       data.Enabled,
		Workspace:     data.Workspace,
		Monitor:       data.Monitor,
		MasterRatio:   data.MasterRatio,
		Tiled:         data.Tiled,
		Overflow:      data.Overflow,
		UptimeSeconds: data.UptimeSeconds,
	}
}

func (s *Server) handleToggle(_ context.Context, _ *mcpsdk.CallToolRequest, _ ToggleTilingInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	data, err := s.client.Toggle()
	if err != nil {
		return nil, StatusOutput{}, fmt.Errorf("toggle failed: %w", err)
	}
	return nil, statusOutput(data), nil
}

func (s *Server) handleStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ TilingStatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	data, err := s.client.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, fmt.Errorf("status failed: %w", err)
	}
	return nil, statusOutput(data), nil
}

func (s *Server) handleSetRatio(_ context.Context, _ *mcpsdk.CallToolRequest, args SetMasterRatioInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	data, err := s.client.SetRatio(args.Ratio)
	if err != nil {
		return nil, StatusOutput{}, fmt.Errorf("set ratio failed: %w", err)
	}
	return nil, statusOutput(data), nil
}

func (s *Server) handleAdjustRatio(_ context.Context, _ *mcpsdk.CallToolRequest, args AdjustMasterRatioInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	data, err := s.client.AdjustRatio(args.Increase)
	if err != nil {
		return nil, StatusOutput{}, fmt.Errorf("adjust ratio failed: %w", err)
	}
	return nil, statusOutput(data), nil
}

func (s *Server) handleFocusDirection(_ context.Context, _ *mcpsdk.CallToolRequest, args DirectionInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := s.client.FocusDirection(args.Direction); err != nil {
		return nil, ActionOutput{}, fmt.Errorf("focus %s failed: %w", args.Direction, err)
	}
	return nil, ActionOutput{Done: true}, nil
}

func (s *Server) handleSwapDirection(_ context.Context, _ *mcpsdk.CallToolRequest, args DirectionInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := s.client.SwapDirection(args.Direction); err != nil {
		return nil, ActionOutput{}, fmt.Errorf("swap %s failed: %w", args.Direction, err)
	}
	return nil, ActionOutput{Done: true}, nil
}
