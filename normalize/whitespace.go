package normalize

import "strings"

// Whitespace collapses runs of whitespace to a single space and trims the
// ends, applied to a string when the job's normalize_strings is on.
func Whitespace(s string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range strings.TrimSpace(s) {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !inSpace {
				b.WriteByte(' ')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
