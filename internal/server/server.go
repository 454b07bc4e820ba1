package server

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/ironsheep/sprite-atlas-mcp/internal/atlas"
)

// Version is reported in the initialize handshake.
var Version = "dev"

// Server handles MCP protocol communication
type Server struct {
	mu       sync.Mutex
	sessions map[sessionKey]*atlas.Session
}

// sessionKey identifies one manifest opened against one raster location.
type sessionKey struct {
	manifest  string
	sourceDir string
	extension string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New() *Server {
	return &Server{
		sessions: make(map[sessionKey]*atlas.Session),
	}
}

// Run serves MCP on stdin and stdout until stdin is closed.
func (s *Server) Run() error {
	defer s.releaseAll()
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to w.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			glog.Errorf("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				glog.Errorf("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "scanner error")
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	glog.V(2).Infof("request %v: %s", req.ID, req.Method)

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return s.errorResponse(req.ID, -32601, "Method not found: "+req.Method, "")
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "sprite-atlas-mcp",
				"version": Version,
			},
		},
	}
}

// handleToolsList returns the tool catalogue.
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

// session returns the cached session for the key, opening it on first use.
func (s *Server) session(key sessionKey) (*atlas.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[key]; ok {
		return sess, nil
	}
	sess, err := atlas.Open(key.manifest, atlas.Options{
		SourceDir: key.sourceDir,
		Extension: key.extension,
	})
	if err != nil {
		return nil, err
	}
	s.sessions[key] = sess
	glog.V(1).Infof("opened manifest %s (%d sprites)", key.manifest, len(sess.SpriteNames()))
	return sess, nil
}

// release closes the sessions of manifest, or of every manifest when it is
// empty, and reports how many were closed.
func (s *Server) release(manifest string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, sess := range s.sessions {
		if manifest != "" && key.manifest != manifest {
			continue
		}
		sess.Close()
		delete(s.sessions, key)
		n++
	}
	if n > 0 {
		glog.V(1).Infof("released %d sessions", n)
	}
	return n
}

func (s *Server) releaseAll() {
	s.release("")
}
