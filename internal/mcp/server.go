// Package mcp wires the search engine into an MCP server over stdio.
package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/repogrep/repogrep-mcp/internal/mcp/tools"
)

// Server hosts the repo_search tool over the MCP stdio transport.
type Server struct {
	mcpServer *sdkmcp.Server
}

// NewServer creates the MCP server and registers the builtin tools.
func NewServer(deps *tools.Deps) (*Server, error) {
	if deps == nil || deps.Engine == nil {
		return nil, fmt.Errorf("deps with a search engine are required")
	}

	srv := sdkmcp.NewServer(
		&sdkmcp.Implementation{
			Name:    "repogrep-mcp",
			Version: "1.0.0",
		},
		nil,
	)
	srv.AddReceivingMiddleware(loggingMiddleware())
	tools.Register(srv, deps)

	return &Server{mcpServer: srv}, nil
}

// Run serves MCP over stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &sdkmcp.StdioTransport{})
}

// MCPServer returns the underlying SDK server for testing.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.mcpServer
}
