// Package source reads style templates from text files. A template file is
// plain CSS with ${name} markers in place of dynamic values, the values come
// from a YAML document.
package source

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnterminatedMarker is returned for ${ without closing brace.
	ErrUnterminatedMarker = errors.New("unterminated value marker")
	// ErrBadName is returned when a marker does not contain an identifier.
	ErrBadName = errors.New("bad value name")
	// ErrMissingValue is returned when a value for a marker was not provided.
	ErrMissingValue = errors.New("missing value")
	// ErrBadValue is returned for values which cannot be bound.
	ErrBadValue = errors.New("unsupported value")
)

// Split cuts text into literal segments around ${name} markers. There is
// always one segment more than names. "$${" produces a literal "${".
func Split(text string) (segments, names []string, err error) {
	var (
		seg  strings.Builder
		line = 1
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\n' {
			line++
		}
		if c != '$' {
			seg.WriteByte(c)
			continue
		}
		if strings.HasPrefix(text[i:], "$${") {
			seg.WriteString("${")
			i += 2
			continue
		}
		if !strings.HasPrefix(text[i:], "${") {
			seg.WriteByte(c)
			continue
		}

		// markers do not span lines
		end := strings.IndexAny(text[i+2:], "}\n")
		if end < 0 || text[i+2+end] == '\n' {
			return nil, nil, fmt.Errorf("line %d: %w", line, ErrUnterminatedMarker)
		}
		name := strings.TrimSpace(text[i+2 : i+2+end])
		if !validName(name) {
			return nil, nil, fmt.Errorf("line %d: %q: %w", line, name, ErrBadName)
		}
		segments = append(segments, seg.String())
		names = append(names, name)
		seg.Reset()
		i += 2 + end
	}
	segments = append(segments, seg.String())
	return segments, names, nil
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r == '.' || r == '-' || r >= '0' && r <= '9'):
		default:
			return false
		}
	}
	return true
}
