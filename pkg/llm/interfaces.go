// Package llm provides the generative model clients used to translate
// questions into SQL.
package llm

import (
	"context"
)

// Generator is the single-shot completion capability used for SQL generation.
// Use this interface for dependency injection to enable mocking in tests.
type Generator interface {
	// GenerateResponse sends prompt with an optional system message and
	// returns the raw model output.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// GenerateResponseResult is the raw completion and its token usage.
type GenerateResponseResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Ensure the clients implement Generator at compile time.
var (
	_ Generator = (*Client)(nil)
	_ Generator = (*AnthropicClient)(nil)
	_ Generator = (*MockLLMClient)(nil)
)
