package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	shoebox "github.com/unowned-ai/shoebox/pkg"
	"github.com/unowned-ai/shoebox/pkg/service"
	"github.com/unowned-ai/shoebox/pkg/store"
)

// ShoeboxMCPServer exposes a photo library as MCP tools over stdio.
type ShoeboxMCPServer struct {
	mcpServer *server.MCPServer
	repo      *store.Repository
	tools     *Tools
}

// NewShoeboxMCPServer opens the library in cfg and registers every tool.
func NewShoeboxMCPServer(ctx context.Context, cfg store.Config, log *zap.Logger) (*ShoeboxMCPServer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	backend, err := store.NewBackend(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open library backend: %w", err)
	}
	repo, err := store.Open(ctx, backend, log.Named("store"))
	if err != nil {
		backend.Close()
		return nil, err
	}

	s := server.NewMCPServer(
		"Shoebox MCP Server",
		shoebox.Version,
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
		server.WithRecovery(),
	)
	tools := NewTools(service.NewLibrary(repo, nil, log.Named("service")), log.Named("mcp"))
	tools.Register(s)

	return &ShoeboxMCPServer{mcpServer: s, repo: repo, tools: tools}, nil
}

// Start runs the stdio event loop until stdin closes.
func (s *ShoeboxMCPServer) Start() error {
	return server.ServeStdio(s.mcpServer)
}

// MCPRawServer exposes the mcp-go server for additional configuration.
func (s *ShoeboxMCPServer) MCPRawServer() *server.MCPServer {
	return s.mcpServer
}

// Close saves the library and releases the backend.
func (s *ShoeboxMCPServer) Close() error {
	s.tools.mu.Lock()
	defer s.tools.mu.Unlock()
	if err := s.repo.SaveAll(context.Background()); err != nil {
		s.repo.Close()
		return err
	}
	return s.repo.Close()
}

// Tools holds the library behind the MCP handlers. Calls are served one at
// a time; each runs inside its own login session.
type Tools struct {
	mu       sync.Mutex
	lib      *service.Library
	log      *zap.Logger
	handlers map[string]toolHandler
}

type toolHandler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func NewTools(lib *service.Library, log *zap.Logger) *Tools {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tools{lib: lib, log: log, handlers: make(map[string]toolHandler)}
}

func (t *Tools) add(s *server.MCPServer, tool mcp.Tool, h toolHandler) {
	t.handlers[tool.Name] = h
	s.AddTool(tool, h)
}

// Call invokes a registered tool by name without going through a transport.
func (t *Tools) Call(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h, ok := t.handlers[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	var request mcp.CallToolRequest
	request.Params.Name = name
	request.Params.Arguments = args
	return h(ctx, request)
}
