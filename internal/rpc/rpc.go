// Package rpc implements the stdio JSON-RPC 2.0 (MCP) front: one request per
// line on stdin, one response per line on stdout. Logging goes to stderr
// because stdout belongs to the protocol.
package rpc

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/Sozary/tidsreg/internal/utils"
	"github.com/Sozary/tidsreg/pkg/tidsreg"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "tidsreg-mcp"
	serverVersion   = "1.0.0"

	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInternalError  = -32603
)

type request struct {
	JSONRPC string           `json:"jsonrpc"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
	ID      *json.RawMessage `json:"id,omitempty"`
}

type response struct {
	JSONRPC string           `json:"jsonrpc"`
	Result  interface{}      `json:"result,omitempty"`
	Error   *rpcError        `json:"error,omitempty"`
	ID      *json.RawMessage `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Server struct {
	client *tidsreg.Client
	in     io.Reader
	out    io.Writer
}

func New(client *tidsreg.Client, in io.Reader, out io.Writer) *Server {
	return &Server{client: client, in: in, out: out}
}

// Run reads requests until in is exhausted. Notifications (requests without
// an id) get no response.
func (s *Server) Run() error {
	utils.Log.Info("tidsreg JSON-RPC server starting")

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			utils.Log.WithError(err).Error("invalid JSON received")
			s.write(response{
				JSONRPC: "2.0",
				Error:   &rpcError{Code: codeParseError, Message: "Parse error"},
			})
			continue
		}

		if req.ID == nil {
			if req.Method == "notifications/initialized" {
				utils.Log.Info("client initialized")
			} else {
				utils.Log.WithField("method", req.Method).Debug("notification")
			}
			continue
		}

		s.write(s.handle(req))
	}

	utils.Log.Info("tidsreg JSON-RPC server shutting down")
	return scanner.Err()
}

func (s *Server) handle(req request) response {
	resp := response{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "initialize":
		utils.Log.Info("initializing RPC session")
		resp.Result = map[string]interface{}{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]interface{}{"tools": map[string]interface{}{}},
			"serverInfo": map[string]interface{}{
				"name":    serverName,
				"version": serverVersion,
			},
		}
	case "tools/list":
		resp.Result = map[string]interface{}{"tools": toolDefinitions()}
	case "tools/call":
		resp.Result = s.callTool(req.Params)
	default:
		resp.Error = &rpcError{Code: codeMethodNotFound, Message: "Method not found: " + req.Method}
	}

	return resp
}

func (s *Server) write(resp response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		utils.Log.WithError(err).Error("failed to marshal response")
		payload, _ = json.Marshal(response{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: codeInternalError, Message: "Internal error: " + err.Error()},
			ID:      resp.ID,
		})
	}
	_, _ = s.out.Write(append(payload, '\n'))
}
