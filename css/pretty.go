package css

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Pretty normalizes stylesheet text for display and comparison: blank lines
// are dropped, leading white space is discarded, every brace ends its line
// and lines are indented by two spaces per open brace. Pretty is idempotent
// and does not depend on the indentation of its input.
func Pretty(s string) string {
	var (
		out           = make([]byte, 0, len(s))
		levels        int
		insignificant = true
	)
	for _, r := range s {
		switch {
		case r == '\n':
			if !insignificant {
				insignificant = true
				out = append(out, '\n')
			}
		case r == '{':
			levels++
			out = append(out, "{\n"...)
			insignificant = true
		case r == '}':
			if !insignificant {
				out = append(bytes.TrimRight(out, " \t"), '\n')
			}
			levels = max(levels-1, 0)
			out = append(out, strings.Repeat(indentUnit, levels)...)
			out = append(out, "}\n"...)
			insignificant = true
		case insignificant && unicode.IsSpace(r):
		case insignificant:
			insignificant = false
			out = append(out, strings.Repeat(indentUnit, levels)...)
			out = utf8.AppendRune(out, r)
		default:
			out = utf8.AppendRune(out, r)
		}
	}
	return string(out)
}
