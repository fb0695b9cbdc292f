package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"graphreason/internal/persistence"
	"graphreason/internal/server/handlers"
)

// Server wires the Graph-of-Thoughts handler into an MCP server. It holds
// no state of its own; GoTHandler owns every live graph.
type Server struct {
	handler *handlers.GoTHandler
}

// New constructs a Server. store may be nil to disable checkpoint tools.
func New(store persistence.IncrementalPersistence) *Server {
	return &Server{handler: handlers.NewGoTHandler(store)}
}

// RegisterTools registers every Graph-of-Thoughts tool against mcpServer,
// mirroring the teacher's UnifiedServer.RegisterTools's repeated
// mcp.AddTool(mcpServer, &mcp.Tool{...}, handler) calls.
func (s *Server) RegisterTools(mcpServer *mcp.Server) {
	handlers.RegisterGoTTools(mcpServer, s.handler)
}
