package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/stacktile/internal/engine"
	"github.com/1broseidon/stacktile/internal/runtimepath"
)

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	eng          *engine.Engine
	startTime    time.Time
	reloadChan   chan struct{}
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(eng *engine.Engine, reloadChan chan struct{}) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		eng:        eng,
		startTime:  time.Now(),
		reloadChan: reloadChan,
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection: one JSON request per
// line, one JSON response per line.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandToggle:
		return s.handleToggle()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandSetRatio:
		return s.handleSetRatio(req.Payload)
	case CommandAdjustRatio:
		return s.handleAdjustRatio(req.Payload)
	case CommandFocusDir:
		return s.handleDirection(req.Payload, s.eng.FocusDirection)
	case CommandSwapDir:
		return s.handleDirection(req.Payload, s.eng.SwapDirection)
	case CommandReload:
		return s.handleReload()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleToggle() *Response {
	if err := s.eng.Toggle(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to toggle tiling: %v", err))
	}
	return s.handleGetStatus()
}

func (s *Server) handleGetStatus() *Response {
	status := StatusData{
		Status:        s.eng.Status(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	}

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleSetRatio(payload json.RawMessage) *Response {
	var p SetRatioPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid ratio payload: %v", err))
	}
	if p.Ratio <= 0 || p.Ratio >= 1 {
		return NewErrorResponse("ratio must be in (0, 1)")
	}
	if err := s.eng.SetMasterRatio(p.Ratio); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to set ratio: %v", err))
	}
	return s.handleGetStatus()
}

func (s *Server) handleAdjustRatio(payload json.RawMessage) *Response {
	var p AdjustRatioPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid adjust payload: %v", err))
	}
	if err := s.eng.AdjustMasterRatio(p.Increase); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to adjust ratio: %v", err))
	}
	return s.handleGetStatus()
}

func (s *Server) handleDirection(payload json.RawMessage, fn func(engine.Direction) error) *Response {
	var p DirectionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid direction payload: %v", err))
	}
	dir, err := engine.ParseDirection(p.Direction)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if err := fn(dir); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to navigate %s: %v", dir, err))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

// handleReload notifies the daemon to reload configuration. The daemon
// owns the config; the server only forwards the intent.
func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
