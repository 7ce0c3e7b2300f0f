// Package sql post-processes SQL produced by the generative model.
package sql

import "strings"

// StripCodeFences removes every "```sql" and "```" marker from response and
// trims surrounding whitespace. Markers are removed wherever they occur, not
// only at the edges. The result may be empty.
func StripCodeFences(response string) string {
	cleaned := strings.ReplaceAll(response, "```sql", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}
