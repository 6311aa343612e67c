package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ironsheep/photo-prep-mcp/internal/config"
	"github.com/ironsheep/photo-prep-mcp/internal/detection"
	"github.com/ironsheep/photo-prep-mcp/internal/imaging"
	"github.com/ironsheep/photo-prep-mcp/internal/logging"
	"github.com/ironsheep/photo-prep-mcp/internal/ocr"
	"github.com/ironsheep/photo-prep-mcp/internal/preprocess"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "photo-prep-mcp"

	// maxRequestBytes bounds a single JSON-RPC line.
	maxRequestBytes = 4 * 1024 * 1024
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolFailed     = -32000
)

// Version is reported in serverInfo; main overrides it from build flags.
var Version = "0.1.0"

// Server handles MCP protocol communication.
type Server struct {
	cache     *imaging.ImageCache
	processor *preprocess.Processor
	ocr       *ocr.Engine
	defaults  preprocess.Options
	logger    *logging.Logger
}

// MCPRequest represents an incoming JSON-RPC request.
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response.
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error.
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a server using cfg's pipeline defaults. A nil cfg means
// config.Default(); a nil logger discards output.
func New(cfg *config.Config, logger *logging.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	engine := ocr.NewEngine(cfg.TessdataPrefix)
	return &Server{
		cache:     imaging.NewImageCache(),
		processor: preprocess.New(detection.New(), engine, logger),
		ocr:       engine,
		defaults:  cfg.Preprocess,
		logger:    logger,
	}
}

// Run serves stdin/stdout until stdin closes or ctx is cancelled. A read
// blocked on stdin does not delay returning after cancellation.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		errc <- s.Serve(ctx, os.Stdin, os.Stdout)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down", "reason", ctx.Err())
		return ctx.Err()
	}
}

// Serve reads one JSON-RPC request per line from r and writes responses to w.
// It returns nil at end of input and ctx.Err() once ctx is cancelled.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxRequestBytes)

	encoder := json.NewEncoder(w)

	s.logger.Info("server started", "detector", s.processor.Detector().Name())

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp *MCPResponse
		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("failed to parse request", "error", err)
			resp = s.errorResponse(nil, codeParseError, "Parse error", err.Error())
		} else {
			resp = s.handleRequest(ctx, &req)
		}

		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to encode response", "error", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers.
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return s.errorResponse(req.ID, codeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), "")
	}
}

// handleInitialize responds to the initialize request.
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    serverName,
				"version": Version,
			},
		},
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	resp := &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
		},
	}
	if data != "" {
		resp.Error.Data = data
	}
	return resp
}
