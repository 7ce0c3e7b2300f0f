package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/services"
)

type healthResult struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	SchemaArtifact string `json:"schema_artifact"`
	Metabase       string `json:"metabase"`
}

// RegisterHealthTool adds a health check tool to the MCP server.
// The tool returns the server status, version, schema artifact state and
// whether Metabase answers. schema and metabase may be nil.
func RegisterHealthTool(s *server.MCPServer, version string, schema services.SchemaSource, metabase services.HealthChecker) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status, version, whether the schema artifact is present and whether Metabase is reachable"),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metabaseStatus, _ := services.RemoteStatus(ctx, metabase)
		return jsonResult(healthResult{
			Status:         "ok",
			Version:        version,
			SchemaArtifact: services.ArtifactStatus(schema),
			Metabase:       metabaseStatus,
		})
	})
}
