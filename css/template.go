// Package css compiles style templates into scope hashed stylesheets whose
// dynamic values are exposed as CSS custom properties.
package css

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

var lastTemplateID atomic.Uint64

// Template is the literal part of a style declaration: the text segments
// around the interpolated values. A Template is meant to be created once per
// call site (usually as a package level variable) so that its identity is
// stable, compiled stylesheets are cached against that identity.
type Template struct {
	id       uint64
	segments []string
}

// NewTemplate registers segments under a new template identity. The number
// of values later bound with With must be one less than the number of
// segments.
func NewTemplate(segments ...string) *Template {
	return &Template{
		id:       lastTemplateID.Add(1),
		segments: append([]string(nil), segments...),
	}
}

// ID returns the process unique identity of the template.
func (t *Template) ID() uint64 {
	return t.id
}

// Segments returns a copy of the literal segments.
func (t *Template) Segments() []string {
	return append([]string(nil), t.segments...)
}

// With binds dynamic values to the template. Values are interpreted by kind
// during compilation:
//   - Literal: inlined verbatim
//   - *Fragment or Embedder: flattened in place as nested style
//   - anything else: bound as a CSS custom property
func (t *Template) With(values ...any) *Fragment {
	return &Fragment{tmpl: t, values: append([]any(nil), values...)}
}

// Fragment is a template together with one set of dynamic values. It is the
// unit of compilation and can itself be passed as a value to another
// template.
type Fragment struct {
	tmpl   *Template
	values []any
}

// Template returns the template the fragment was built from.
func (f *Fragment) Template() *Template {
	return f.tmpl
}

// Values returns a copy of the bound values.
func (f *Fragment) Values() []any {
	return append([]any(nil), f.values...)
}

// CSSFragment makes *Fragment an Embedder of itself.
func (f *Fragment) CSSFragment() *Fragment {
	return f
}

// Embedder is implemented by values carrying a style fragment, for example a
// component wrapper produced around a compiled fragment. Embedded fragments
// are composed structurally rather than bound as variables.
type Embedder interface {
	CSSFragment() *Fragment
}

// Literal marks a value to be inserted into the stylesheet as is, without
// allocating a custom property for it.
type Literal struct {
	Value string
}

// Raw wraps a scalar into a Literal. Strings are used directly, other values
// are formatted with fmt.
func Raw(v any) Literal {
	switch x := v.(type) {
	case string:
		return Literal{Value: x}
	case Literal:
		return x
	case fmt.Stringer:
		return Literal{Value: x.String()}
	}
	return Literal{Value: fmt.Sprint(v)}
}

// resolveNested reports whether v is a nested style fragment.
func resolveNested(v any) (*Fragment, bool) {
	switch x := v.(type) {
	case *Fragment:
		return x, x != nil
	case Embedder:
		f := x.CSSFragment()
		return f, f != nil
	}
	return nil, false
}

type itemKind uint8

const (
	itemText itemKind = iota
	itemValue
	itemLiteral
)

// item is one element of a flattened fragment: a literal text segment, a
// bindable value or an inline literal.
type item struct {
	kind  itemKind
	text  string
	value any
}

// flattened is the fully expanded token stream of a fragment with nested
// fragments spliced in place.
type flattened struct {
	items []item
	// signature identifies the literal structure: every template met while
	// expanding, every inline literal and the position of every bindable
	// value. Equal signatures compile to equal stylesheets regardless of the
	// bindable values themselves.
	signature string
	values    int
}

type frame struct {
	f   *Fragment
	pos int
}

// flatten expands f iteratively, replacing every nested fragment value with
// its own segments and values. A fragment nested into itself is an error.
func flatten(f *Fragment) (*flattened, error) {
	var (
		out   = &flattened{}
		sig   strings.Builder
		stack []frame
	)

	enter := func(f *Fragment) error {
		if len(f.tmpl.segments) == 0 {
			return fmt.Errorf("template %d: %w", f.tmpl.id, ErrNoSegments)
		}
		if len(f.values) != len(f.tmpl.segments)-1 {
			return fmt.Errorf("template %d has %d segments and %d values: %w",
				f.tmpl.id, len(f.tmpl.segments), len(f.values), ErrValueCount)
		}
		for _, fr := range stack {
			if fr.f == f {
				return fmt.Errorf("template %d: %w", f.tmpl.id, ErrRecursiveFragment)
			}
		}
		sig.WriteByte('t')
		sig.WriteString(strconv.FormatUint(f.tmpl.id, 10))
		stack = append(stack, frame{f: f})
		return nil
	}

	if err := enter(f); err != nil {
		return nil, err
	}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		segs, vals := top.f.tmpl.segments, top.f.values
		if top.pos >= len(segs) {
			stack = stack[:len(stack)-1]
			sig.WriteByte('.')
			continue
		}

		i := top.pos
		top.pos++
		out.items = append(out.items, item{kind: itemText, text: segs[i]})
		if i >= len(vals) {
			continue
		}

		v := vals[i]
		if lit, ok := v.(Literal); ok {
			out.items = append(out.items, item{kind: itemLiteral, text: lit.Value})
			sig.WriteByte('l')
			sig.WriteString(strconv.Itoa(len(lit.Value)))
			sig.WriteByte(':')
			sig.WriteString(lit.Value)
			continue
		}
		if nested, ok := resolveNested(v); ok {
			// enter may grow the stack, top is stale afterwards
			if err := enter(nested); err != nil {
				return nil, err
			}
			continue
		}
		out.items = append(out.items, item{kind: itemValue, value: v})
		out.values++
		sig.WriteByte('v')
	}
	return out, nil
}

// bindable returns the bindable values in encounter order.
func (fl *flattened) bindable() []any {
	vals := make([]any, 0, fl.values)
	for _, it := range fl.items {
		if it.kind == itemValue {
			vals = append(vals, it.value)
		}
	}
	return vals
}
