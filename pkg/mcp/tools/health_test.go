package tools

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/schema"
)

func TestRegisterHealthTool(t *testing.T) {
	mcpServer := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterHealthTool(mcpServer, "test-version", nil, nil)

	tools := listTools(t, mcpServer)
	assert.Equal(t, "Returns server health status, version, whether the schema artifact is present and whether Metabase is reachable", tools["health"])
}

func TestHealthTool_Execute(t *testing.T) {
	store := schema.NewArtifactStore(filepath.Join(t.TempDir(), "schema_context.txt"))
	mcpServer := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	checker := &unreachableMetabase{}
	RegisterHealthTool(mcpServer, "1.2.3", store, checker)

	call := func() healthResult {
		text, isError := callTool(t, mcpServer, "health", nil)
		require.False(t, isError)
		var result healthResult
		require.NoError(t, json.Unmarshal([]byte(text), &result))
		return result
	}

	assert.Equal(t, healthResult{Status: "ok", Version: "1.2.3", SchemaArtifact: "missing", Metabase: "unreachable"}, call())

	require.NoError(t, store.WriteText("Tables:\n"))
	checker.reachable = true
	assert.Equal(t, healthResult{Status: "ok", Version: "1.2.3", SchemaArtifact: "present", Metabase: "ok"}, call())
}

type unreachableMetabase struct {
	reachable bool
}

func (u *unreachableMetabase) Health(ctx context.Context) error {
	if u.reachable {
		return nil
	}
	return errors.New("connection refused")
}

// listTools returns tool descriptions keyed by name, via tools/list.
func listTools(t *testing.T, s *server.MCPServer) map[string]string {
	t.Helper()
	raw, err := json.Marshal(s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`)))
	require.NoError(t, err)

	var response struct {
		Result struct {
			Tools []struct {
				Name        string `json:"name"`
				Description string `json:"description"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &response))

	out := make(map[string]string, len(response.Result.Tools))
	for _, tool := range response.Result.Tools {
		out[tool.Name] = tool.Description
	}
	return out
}

// callTool invokes a tool through tools/call and returns its first text
// content and isError flag. A JSON-RPC error fails the test.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) (string, bool) {
	t.Helper()
	text, isError, rpcErr := callToolRaw(t, s, name, args)
	require.Empty(t, rpcErr, "unexpected JSON-RPC error")
	return text, isError
}

// callToolRaw is callTool without the JSON-RPC error assertion.
func callToolRaw(t *testing.T, s *server.MCPServer, name string, args map[string]any) (string, bool, string) {
	t.Helper()
	params := map[string]any{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	request, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"method":  "tools/call",
		"params":  params,
		"id":      1,
	})
	require.NoError(t, err)

	raw, err := json.Marshal(s.HandleMessage(context.Background(), request))
	require.NoError(t, err)

	var response struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(raw, &response))

	if response.Error != nil {
		return "", false, response.Error.Message
	}
	require.NotEmpty(t, response.Result.Content)
	return response.Result.Content[0].Text, response.Result.IsError, ""
}
