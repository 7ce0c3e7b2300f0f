package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckQuestionForInjection(t *testing.T) {
	tests := []struct {
		name            string
		question        string
		expectInjection bool
	}{
		// Ordinary questions
		{"plain question", "how many users are there", false},
		{"normal sentence", "This is a normal description with spaces", false},
		{"sql keywords in prose", "SELECT the best option from the menu", false},
		{"apostrophe", "O'Brien", false},
		{"empty", "", false},

		// Injection payloads pasted into the question box
		{"classic quote injection", "' OR '1'='1", true},
		{"drop table", "'; DROP TABLE users--", true},
		{"union select", "1 UNION SELECT * FROM passwords", true},
		{"comment injection", "admin'--", true},
		{"stacked queries", "admin'; DELETE FROM logs; --", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckQuestionForInjection(tt.question)

			if !tt.expectInjection {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.True(t, result.IsSQLi)
			assert.NotEmpty(t, result.Fingerprint)
			assert.Equal(t, tt.question, result.Input)
		})
	}
}
