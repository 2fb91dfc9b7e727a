package css

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrUnmatchedBrace is returned when a closing brace has no opening pair.
	ErrUnmatchedBrace = errors.New("CSS had unmatched braces")
	// ErrUnclosedBrace is returned when input ends with open blocks.
	ErrUnclosedBrace = errors.New("CSS had unclosed braces")
	// ErrValueCount is returned when a fragment does not have exactly one
	// value less than its template has segments.
	ErrValueCount = errors.New("number of values does not match template segments")
	// ErrNoSegments is returned for templates created without any segment.
	ErrNoSegments = errors.New("template has no segments")
	// ErrRecursiveFragment is returned when a fragment is nested, directly or
	// through other fragments, into itself.
	ErrRecursiveFragment = errors.New("fragment is nested into itself")
)

// Indexes into Stylesheet.Sheets.
const (
	MainSheet    = 0 // scoped body wrapped into the hash class
	HoistedSheet = 1 // @keyframes and :root regions, emitted unscoped
)

// Placeholder is the binding site of one dynamic value. The value is
// exposed to the stylesheet as a custom property named after the scope hash
// and the placeholder index.
type Placeholder struct {
	Index int // 1-based position among bindable values
	Value any // caller supplied, never interpreted by the compiler
	hash  string
}

// Name returns the custom property name, e.g. "--css-1x2y3z-1".
func (p Placeholder) Name() string {
	return "--" + p.hash + "-" + strconv.Itoa(p.Index)
}

// Var returns the custom property reference, e.g. "var(--css-1x2y3z-1)".
func (p Placeholder) Var() string {
	return "var(" + p.Name() + ")"
}

func (p Placeholder) String() string {
	return p.Var()
}

// Stylesheet is a compiled fragment.
type Stylesheet struct {
	Hash          string
	Sheets        []string // see MainSheet and HoistedSheet
	Placeholders  []Placeholder
	MainBodyEmpty bool // scope wrapper was elided, main sheet is empty
}

// Main returns the scoped part of the stylesheet.
func (s *Stylesheet) Main() string {
	return s.Sheets[MainSheet]
}

// Hoisted returns the unscoped @keyframes and :root part of the stylesheet.
func (s *Stylesheet) Hoisted() string {
	return s.Sheets[HoistedSheet]
}

// Text returns both sheets joined with a new line, the form in which a
// stylesheet is inserted into a document.
func (s *Stylesheet) Text() string {
	return strings.Join(s.Sheets, "\n")
}

// bind returns a copy of s with placeholder values taken from values, which
// must be in placeholder order.
func (s *Stylesheet) bind(values []any) *Stylesheet {
	out := *s
	out.Sheets = append([]string(nil), s.Sheets...)
	out.Placeholders = make([]Placeholder, len(s.Placeholders))
	for i, p := range s.Placeholders {
		p.Value = nil
		if i < len(values) {
			p.Value = values[i]
		}
		out.Placeholders[i] = p
	}
	return &out
}
