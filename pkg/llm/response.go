package llm

import "regexp"

// thinkTagPattern matches <think>...</think> blocks that reasoning models
// emit at the start of a response.
var thinkTagPattern = regexp.MustCompile(`(?s)^\s*<think>.*?</think>\s*`)

// StripThinking removes a leading <think>...</think> block from response.
func StripThinking(response string) string {
	return thinkTagPattern.ReplaceAllString(response, "")
}

