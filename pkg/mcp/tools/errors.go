package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/models"
)

// ErrorResponse represents a structured error in tool results.
// It is returned as a successful tool result so the client sees the details
// instead of a bare JSON-RPC error.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for errors the caller can act on (invalid arguments, missing
// artifact). System failures are returned as Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// newEnvelopeResult reports a Metabase rejection. The envelope itself is
// the details so the client gets the SQL back.
func newEnvelopeResult(code string, envelope *models.ErrorEnvelope) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, envelope.Error, envelope)
}

// actionableError converts errors the caller can fix into an error result.
// It returns nil for anything else.
func actionableError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperrors.ErrEmptyQuestion):
		return NewErrorResult("invalid_request", err.Error())
	case errors.Is(err, apperrors.ErrUnsupportedFormat):
		return NewErrorResult("unsupported_format", err.Error())
	case errors.Is(err, apperrors.ErrSchemaArtifactMissing):
		return NewErrorResult("schema_artifact_missing", err.Error())
	}
	return nil
}
