package render

import (
	"fmt"
	"strings"

	"tcss/css"
)

// Unset is rendered for placeholders bound to nil.
const Unset = "unset"

// maxCalls limits unwrapping of functions returning functions.
const maxCalls = 16

// Binding is a resolved custom property assignment for an element.
type Binding struct {
	Name  string
	Value string
}

func (b Binding) String() string {
	return b.Name + ": " + b.Value
}

// Bindings resolves placeholder values of s in placeholder order. Values
// which are functions without arguments are called until something else is
// returned, so that values can be computed at render time.
func Bindings(s *css.Stylesheet) []Binding {
	out := make([]Binding, 0, len(s.Placeholders))
	for _, p := range s.Placeholders {
		out = append(out, Binding{Name: p.Name(), Value: Value(p.Value)})
	}
	return out
}

// Value formats a single placeholder value.
func Value(v any) string {
	for range maxCalls {
		switch fn := v.(type) {
		case func() any:
			v = fn()
			continue
		case func() string:
			v = fn()
			continue
		}
		break
	}

	switch x := v.(type) {
	case nil:
		return Unset
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// InlineStyle renders bindings of s as the value of a style attribute.
func InlineStyle(s *css.Stylesheet) string {
	bindings := Bindings(s)
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "; ")
}

// ClassName appends the scope class of s to existing class names. Nothing
// is appended when the scope wrapper was elided or the class is already
// present.
func ClassName(existing string, s *css.Stylesheet) string {
	if s.MainBodyEmpty {
		return existing
	}
	for _, c := range strings.Fields(existing) {
		if c == s.Hash {
			return existing
		}
	}
	if strings.TrimSpace(existing) == "" {
		return s.Hash
	}
	return existing + " " + s.Hash
}
