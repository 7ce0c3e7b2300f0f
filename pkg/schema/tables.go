package schema

import "strings"

// TableNames returns the table names listed in a rendered schema artifact,
// in artifact order. Lines after the Relations header are ignored.
func TableNames(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Relations:") {
			break
		}
		open := strings.IndexByte(line, '(')
		if open <= 0 || !strings.HasSuffix(line, ")") {
			continue
		}
		names = append(names, line[:open])
	}
	return names
}
