package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"cubectl/internal/orchestrator"
	"cubectl/pkg/logging"
)

// Server is an MCP server bound to one Coordinator.
type Server struct {
	coord *orchestrator.Coordinator
	mcp   *server.MCPServer
}

// New builds the server and registers all tools.
func New(name, version string, coord *orchestrator.Coordinator) *Server {
	s := &Server{
		coord: coord,
		mcp: server.NewMCPServer(
			name,
			version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}
	s.mcp.AddTools(s.tools()...)
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves requests on stdin/stdout until ctx ends or the input
// closes.
func (s *Server) ServeStdio(ctx context.Context) error {
	logging.Info("MCP", "Serving %d tools on stdio", len(s.tools()))
	stdio := server.NewStdioServer(s.mcp)
	if err := stdio.Listen(ctx, stdinReader(), stdoutWriter()); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp stdio server: %w", err)
	}
	return nil
}
