package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/logging"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/metrics"
)

// instructions is sent to clients during initialization.
const instructions = "Translate questions about the database into SQL with generate_sql, " +
	"inspect results with run_sql and keep useful queries with save_sql. " +
	"Metabase rejections are returned as tool errors carrying the SQL that was sent."

// Server wraps the mcp-go MCPServer with ekaya-nlsql patterns.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// NewServer creates a new MCP server instance. Every tool call is counted
// and logged; a panicking tool is turned into an error result.
func NewServer(name, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("mcp")

	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(instructions),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(observeToolCalls(logger)),
	)

	return &Server{
		mcp:    mcpServer,
		logger: logger,
	}
}

// MCP returns the underlying MCPServer for tool registration.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// NewStreamableHTTPServer creates an HTTP transport server wrapping this MCP server.
// The HTTP mux handles routing to /mcp, so no endpoint path is configured here.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}

// observeToolCalls records the outcome of every tool call.
func observeToolCalls(logger *zap.Logger) server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			result, err := next(ctx, req)

			outcome := metrics.OutcomeSuccess
			switch {
			case err != nil:
				outcome = metrics.OutcomeError
				logger.Error("MCP tool failed",
					zap.String("tool", req.Params.Name),
					zap.String("request_id", logging.RequestIDFromContext(ctx)),
					zap.String("error", logging.SanitizeError(err)))
			case result != nil && result.IsError:
				outcome = metrics.OutcomeEnvelope
			}
			metrics.ObserveMCPToolCall(req.Params.Name, outcome)

			return result, err
		}
	}
}
