// Package prompts holds the prompt templates sent to the generative model.
package prompts

import (
	"fmt"
	"strings"
)

// SQLGenerationSystemMessage is sent as the system message alongside the
// generation prompt. The prompt itself carries all of the rules.
const SQLGenerationSystemMessage = "You translate questions into SQL for a single known schema."

// BuildSQLGenerationPrompt creates the prompt for translating question into
// SQL. schemaText is embedded verbatim. Every table reference in the answer
// must be qualified with namespace.
func BuildSQLGenerationPrompt(schemaText, namespace, question string) string {
	var prompt strings.Builder

	prompt.WriteString("You are a SQL expert. The database schema is:\n\n")
	prompt.WriteString(schemaText)
	prompt.WriteString("\n\n")

	prompt.WriteString("Rules:\n")
	prompt.WriteString(fmt.Sprintf("- Always prefix every table with the schema name: %s.\n", namespace))
	prompt.WriteString("- ONLY use the tables and columns listed in the schema above.\n")
	prompt.WriteString("- Do not invent new tables or columns.\n\n")

	prompt.WriteString("Convert the following natural language question into a valid SQL query:\n")
	prompt.WriteString(fmt.Sprintf("Question: %s\n\n", question))
	prompt.WriteString("Return only SQL code, nothing else.")

	return prompt.String()
}
