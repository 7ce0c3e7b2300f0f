package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripThinking(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no tags", "SELECT 1", "SELECT 1"},
		{"leading block", "<think>\ncount rows in users\n</think>\nSELECT COUNT(*) FROM emsp.users", "SELECT COUNT(*) FROM emsp.users"},
		{"leading whitespace", "  <think>x</think>  SELECT 1", "SELECT 1"},
		{"inner tag kept", "SELECT '<think>a</think>'", "SELECT '<think>a</think>'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripThinking(tt.input))
		})
	}
}

