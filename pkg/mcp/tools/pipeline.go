package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/models"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/services"
)

// PipelineToolDeps contains the services the pipeline tools call.
type PipelineToolDeps struct {
	Generation services.SQLGenerationService
	Execution  services.QueryExecutionService
	Save       services.QuerySaveService
}

// RegisterPipelineTools adds generate_sql, run_sql and save_sql.
func RegisterPipelineTools(s *server.MCPServer, deps *PipelineToolDeps) {
	registerGenerateSQLTool(s, deps)
	registerRunSQLTool(s, deps)
	registerSaveSQLTool(s, deps)
}

func registerGenerateSQLTool(s *server.MCPServer, deps *PipelineToolDeps) {
	tool := mcp.NewTool(
		"generate_sql",
		mcp.WithDescription(
			"Translate a natural-language question into a SQL query against the exported schema. "+
				"The SQL is returned, not executed. Use run_sql to execute it.",
		),
		mcp.WithString(
			"question",
			mcp.Required(),
			mcp.Description("The question to answer, e.g. \"how many users signed up last month\""),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return NewErrorResult("invalid_request", err.Error()), nil
		}

		result, err := deps.Generation.Generate(ctx, question)
		if err != nil {
			if toolErr := actionableError(err); toolErr != nil {
				return toolErr, nil
			}
			return nil, err
		}
		return jsonResult(result)
	})
}

func registerRunSQLTool(s *server.MCPServer, deps *PipelineToolDeps) {
	tool := mcp.NewTool(
		"run_sql",
		mcp.WithDescription(
			"Run a SQL query on Metabase and return its columns and rows. "+
				"If Metabase rejects the query the result is an error carrying Metabase's details and the SQL.",
		),
		mcp.WithString(
			"sql",
			mcp.Required(),
			mcp.Description("The SQL to run"),
		),
		mcp.WithString(
			"download",
			mcp.Description("Optional export format (csv or xlsx); results are returned as JSON"),
			mcp.Enum(string(models.OutputFormatCSV), string(models.OutputFormatXLSX)),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, err := req.RequireString("sql")
		if err != nil {
			return NewErrorResult("invalid_request", err.Error()), nil
		}
		format := models.OutputFormat(getOptionalString(req, "download"))

		outcome, err := deps.Execution.Run(ctx, &models.SQLArtifact{SQL: sql}, format)
		if err != nil {
			if toolErr := actionableError(err); toolErr != nil {
				return toolErr, nil
			}
			return nil, err
		}
		if !outcome.Succeeded() {
			return newEnvelopeResult("query_failed", outcome.Failure), nil
		}
		return jsonResult(outcome.Result)
	})
}

func registerSaveSQLTool(s *server.MCPServer, deps *PipelineToolDeps) {
	tool := mcp.NewTool(
		"save_sql",
		mcp.WithDescription(
			"Save a SQL query as a Metabase question (card). "+
				"Each call creates a new card, even for identical SQL.",
		),
		mcp.WithString(
			"sql",
			mcp.Required(),
			mcp.Description("The SQL to save"),
		),
		mcp.WithString(
			"name",
			mcp.Description("Card name (default: \""+models.DefaultQueryName+"\")"),
		),
		mcp.WithNumber(
			"dashboard_id",
			mcp.Description("Accepted but not used; cards are not attached to dashboards"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, err := req.RequireString("sql")
		if err != nil {
			return NewErrorResult("invalid_request", err.Error()), nil
		}

		artifact := &models.SQLArtifact{
			SQL:  sql,
			Name: getOptionalString(req, "name"),
		}
		if id, ok := getOptionalFloat(req, "dashboard_id"); ok {
			dashboardID := int64(id)
			artifact.DashboardID = &dashboardID
		}

		outcome, err := deps.Save.Save(ctx, artifact)
		if err != nil {
			if toolErr := actionableError(err); toolErr != nil {
				return toolErr, nil
			}
			return nil, err
		}
		if !outcome.Succeeded() {
			return newEnvelopeResult("save_failed", outcome.Failure), nil
		}
		return jsonResult(outcome.Result)
	})
}
