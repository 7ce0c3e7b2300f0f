package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func serveMCP(t *testing.T, logger *zap.Logger, reqBody, respBody string) *httptest.ResponseRecorder {
	t.Helper()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(respBody))
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(reqBody))
	rec := httptest.NewRecorder()
	MCPRequestLogger(logger)(handler).ServeHTTP(rec, req)
	return rec
}

func TestMCPRequestLogger(t *testing.T) {
	t.Run("logs successful tool call", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		rec := serveMCP(t, zap.New(core),
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"generate_sql","arguments":{"question":"how many users"}}}`,
			`{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"{\"sql\":\"SELECT 1\"}"}]}}`)

		assert.Contains(t, rec.Body.String(), "SELECT 1", "response passes through")
		require.Equal(t, 2, logs.Len(), "Should log request and response")

		requestLog := logs.All()[0]
		assert.Equal(t, "MCP request", requestLog.Message)
		assert.Equal(t, "tools/call", requestLog.ContextMap()["method"])
		assert.Equal(t, "generate_sql", requestLog.ContextMap()["tool"])
		args := requestLog.ContextMap()["arguments"].(map[string]any)
		assert.Equal(t, "how many users", args["question"])

		responseLog := logs.All()[1]
		assert.Equal(t, "MCP response success", responseLog.Message)
		assert.Equal(t, "generate_sql", responseLog.ContextMap()["tool"])
		assert.NotNil(t, responseLog.ContextMap()["duration"])
	})

	t.Run("logs JSON-RPC error", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		serveMCP(t, zap.New(core),
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"generate_sql","arguments":{"question":"q"}}}`,
			`{"jsonrpc":"2.0","id":1,"error":{"code":-32603,"message":"generate sql: HTTP 401 Bearer abcdefghijkl"}}`)

		require.Equal(t, 2, logs.Len())
		responseLog := logs.All()[1]
		assert.Equal(t, "MCP response error", responseLog.Message)
		assert.Equal(t, int64(-32603), responseLog.ContextMap()["error_code"])
		assert.Equal(t, "generate sql: HTTP 401 Bearer [REDACTED]", responseLog.ContextMap()["error_message"])
	})

	t.Run("logs tool error result", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		serveMCP(t, zap.New(core),
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"run_sql","arguments":{"sql":"SELEC 1"}}}`,
			`{"jsonrpc":"2.0","id":1,"result":{"isError":true,"content":[{"type":"text","text":"{}"}]}}`)

		require.Equal(t, 2, logs.Len())
		assert.Equal(t, "MCP tool error result", logs.All()[1].Message)
	})

	t.Run("sanitizes sensitive arguments", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		serveMCP(t, zap.New(core),
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"test_tool","arguments":{"password":"secret123","api_key":"abc123","metabase_session":"s","sql":"SELECT 1"}}}`,
			`{"jsonrpc":"2.0","id":1,"result":{}}`)

		args := logs.All()[0].ContextMap()["arguments"].(map[string]any)
		assert.Equal(t, "[REDACTED]", args["password"])
		assert.Equal(t, "[REDACTED]", args["api_key"])
		assert.Equal(t, "[REDACTED]", args["metabase_session"])
		assert.Equal(t, "SELECT 1", args["sql"])
	})

	t.Run("passes through with nil logger", func(t *testing.T) {
		called := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		})

		rec := httptest.NewRecorder()
		MCPRequestLogger(nil)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(`{}`)))

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("handles malformed JSON request gracefully", func(t *testing.T) {
		core, _ := observer.New(zapcore.DebugLevel)
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad request"}`))
		})

		rec := httptest.NewRecorder()
		MCPRequestLogger(zap.New(core))(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(`{invalid json`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("restores the request body", func(t *testing.T) {
		core, _ := observer.New(zapcore.DebugLevel)
		body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`

		var got []byte
		capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b := new(bytes.Buffer)
			_, _ = b.ReadFrom(r.Body)
			got = b.Bytes()
		})

		MCPRequestLogger(zap.New(core))(capture).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(body)))

		assert.Equal(t, body, string(got))
	})
}

func TestSanitizeArguments(t *testing.T) {
	t.Run("redacts sensitive keywords", func(t *testing.T) {
		args := map[string]any{
			"password":      "secret",
			"api_key":       "abc123",
			"access_token":  "xyz789",
			"client_secret": "hidden",
			"credential":    "cred123",
			"normal_field":  "visible",
		}

		result := sanitizeArguments(args)

		for _, k := range []string{"password", "api_key", "access_token", "client_secret", "credential"} {
			assert.Equal(t, "[REDACTED]", result[k], k)
		}
		assert.Equal(t, "visible", result["normal_field"])
	})

	t.Run("truncates long strings", func(t *testing.T) {
		args := map[string]any{
			"sql":   "SELECT " + strings.Repeat("x", 250),
			"short": "abc",
		}

		result := sanitizeArguments(args)

		truncated := result["sql"].(string)
		assert.LessOrEqual(t, len(truncated), 203)
		assert.True(t, strings.HasSuffix(truncated, "..."))
		assert.Equal(t, "abc", result["short"])
	})

	t.Run("scrubs inline secrets", func(t *testing.T) {
		result := sanitizeArguments(map[string]any{"sql": "SELECT * FROM t WHERE password=hunter2"})
		assert.Equal(t, "SELECT * FROM t WHERE password=[REDACTED]", result["sql"])
	})

	t.Run("handles nil and empty arguments", func(t *testing.T) {
		assert.Nil(t, sanitizeArguments(nil))
		assert.Empty(t, sanitizeArguments(map[string]any{}))
	})

	t.Run("preserves non-string values", func(t *testing.T) {
		args := map[string]any{
			"dashboard_id": float64(4),
			"bool":         true,
			"null":         nil,
		}

		result := sanitizeArguments(args)

		assert.Equal(t, float64(4), result["dashboard_id"])
		assert.Equal(t, true, result["bool"])
		assert.Nil(t, result["null"])
	})
}
